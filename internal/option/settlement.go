package option

import (
	"math/big"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/ethereum/go-ethereum/common"
)

// NetSettlement splits collateral at expiry between the buyer and the seller without a strike
// payment. The buyer gets the value of the collateral above the strike, rounded down.
func NetSettlement(collateral, price, strike *big.Int) (buyerShare, sellerShare *big.Int) {
	buyerShare = new(big.Int)
	if price.Cmp(strike) > 0 {
		buyerShare.Sub(price, strike)
		buyerShare.Mul(buyerShare, collateral)
		buyerShare.Quo(buyerShare, price)
	}
	sellerShare = new(big.Int).Sub(collateral, buyerShare)
	return buyerShare, sellerShare
}

// settle records the outcome before any value leaves the contract, so a recipient that calls
// back into the option already sees it settled. Whatever is left on the contract balance after
// the payouts belongs to the seller.
func (o *Option) settle(tx *chain.Tx, kind SettlementKind, price, buyerPayout, sellerPayout *big.Int) error {
	buyer := o.state.buyer

	settlement := &Settlement{
		Kind:         kind,
		Price:        new(big.Int).Set(price),
		BuyerPayout:  new(big.Int).Set(buyerPayout),
		SellerPayout: new(big.Int).Set(sellerPayout),
		SettledAt:    tx.Now(),
	}

	next := o.state
	next.status = StatusSettled
	next.collateral = new(big.Int)
	next.settlement = settlement
	o.commit(tx, next)

	if err := o.pay(tx, buyer, buyerPayout); err != nil {
		return err
	}
	if err := o.pay(tx, o.seller, sellerPayout); err != nil {
		return err
	}
	if rest := tx.BalanceOf(o.addr); rest.Sign() > 0 {
		if err := o.pay(tx, o.seller, rest); err != nil {
			return err
		}
		settlement.SellerPayout.Add(settlement.SellerPayout, rest)
	}

	tx.Emit(settlementEvent(kind), map[string]string{
		"caller":       tx.Sender().Hex(),
		"price":        price.String(),
		"buyerPayout":  settlement.BuyerPayout.String(),
		"sellerPayout": settlement.SellerPayout.String(),
	})
	o.log.Infof("%s at price %s, buyer %s gets %s, seller gets %s",
		kind, price, lib.AddrShort(buyer.Hex()), settlement.BuyerPayout, settlement.SellerPayout)

	return nil
}

func (o *Option) pay(tx *chain.Tx, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := tx.Send(to, amount); err != nil {
		return lib.WrapError(ErrTransferFailed, err)
	}
	return nil
}

func settlementEvent(kind SettlementKind) string {
	switch kind {
	case SettlementExercised:
		return EventExercised
	case SettlementExpiredWorthless:
		return EventExpiredWorthless
	case SettlementAutoExercised:
		return EventAutoExercised
	}
	return ""
}
