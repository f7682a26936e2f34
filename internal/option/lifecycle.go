package option

import (
	"fmt"
	"math/big"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/ethereum/go-ethereum/common"
)

// BuyOption makes the caller the buyer. With a payment token the premium is pulled from the
// caller using the allowance granted to this option, otherwise the attached native value is
// the premium. Either way the premium goes straight to the seller.
func (o *Option) BuyOption(tx *chain.Tx) error {
	if err := o.checkTarget(tx); err != nil {
		return err
	}
	if o.broker != (common.Address{}) {
		return ErrNotBroker
	}
	return o.buy(tx, tx.Sender())
}

// BuyOptionFor is the purchase path used by the marketplace that created the option,
// the buyer pays the premium exactly as in BuyOption
func (o *Option) BuyOptionFor(tx *chain.Tx, buyer common.Address) error {
	if err := o.checkTarget(tx); err != nil {
		return err
	}
	if o.broker == (common.Address{}) || tx.Sender() != o.broker {
		return ErrNotBroker
	}
	return o.buy(tx, buyer)
}

func (o *Option) buy(tx *chain.Tx, buyer common.Address) error {
	if o.state.status != StatusCreated {
		return ErrAlreadySold
	}

	value := tx.Value()
	if o.token != nil && value.Sign() != 0 {
		return lib.WrapError(ErrIncorrectPayment, fmt.Errorf("premium is paid in token, got %s native", value))
	}
	if o.token == nil && value.Cmp(o.premium) < 0 {
		return lib.WrapError(ErrIncorrectPayment, fmt.Errorf("premium %s, got %s", o.premium, value))
	}

	next := o.state
	next.buyer = buyer
	next.status = StatusSold
	next.soldAt = tx.Now()
	o.commit(tx, next)

	paid := value
	if o.token != nil {
		paid = o.Premium()
		err := tx.Call(o.token.Address(), nil, func(sub *chain.Tx) error {
			return o.token.TransferFrom(sub, buyer, o.seller, paid)
		})
		if err != nil {
			return lib.WrapError(ErrTransferFailed, err)
		}
	} else if value.Sign() > 0 {
		if err := tx.Send(o.seller, value); err != nil {
			return lib.WrapError(ErrTransferFailed, err)
		}
	}

	tx.Emit(EventPurchased, map[string]string{
		"buyer":   buyer.Hex(),
		"premium": paid.String(),
	})
	o.log.Infof("sold to %s for premium %s", buyer.Hex(), paid)
	return nil
}

// ExerciseOption lets the buyer claim the collateral before expiration while in the money,
// the attached value must equal the exercise payment and goes to the seller
func (o *Option) ExerciseOption(tx *chain.Tx) error {
	if err := o.checkTarget(tx); err != nil {
		return err
	}
	if o.state.status != StatusSold {
		return ErrNotSold
	}
	if tx.Sender() != o.state.buyer {
		return ErrNotBuyer
	}
	if o.IsExpired(tx.Now()) {
		return ErrExpired
	}

	price, err := o.latestPrice(tx)
	if err != nil {
		return err
	}
	if o.Moneyness(price) != MoneynessInTheMoney {
		return lib.WrapError(ErrOutOfTheMoney, fmt.Errorf("price %s, strike %s", price, o.strikePrice))
	}

	paid := tx.Value()
	if paid.Cmp(o.exercisePayment) != 0 {
		return lib.WrapError(ErrIncorrectPayment, fmt.Errorf("exercise requires %s, got %s", o.exercisePayment, paid))
	}

	return o.settle(tx, SettlementExercised, price, o.Collateral(), paid)
}

// ExpireWorthless returns the collateral to the seller once the option expired out of the money
func (o *Option) ExpireWorthless(tx *chain.Tx) error {
	if err := o.checkTarget(tx); err != nil {
		return err
	}
	if o.state.status != StatusSold {
		return ErrNotSold
	}
	if tx.Sender() != o.seller {
		return ErrNotSeller
	}
	if !o.IsExpired(tx.Now()) {
		return ErrNotYetExpired
	}
	if tx.Value().Sign() != 0 {
		return lib.WrapError(ErrIncorrectPayment, fmt.Errorf("no value expected"))
	}

	price, err := o.latestPrice(tx)
	if err != nil {
		return err
	}
	if o.Moneyness(price) != MoneynessOutOfTheMoney {
		return lib.WrapError(ErrStillInTheMoney, fmt.Errorf("price %s, strike %s", price, o.strikePrice))
	}

	return o.settle(tx, SettlementExpiredWorthless, price, new(big.Int), o.Collateral())
}

// AutoExercise settles an expired in-the-money option. It can be called by anyone, the
// caller gets nothing. No strike payment is collected, instead the option is net settled:
// the buyer receives collateral*(price-strike)/price, the seller keeps the rest.
func (o *Option) AutoExercise(tx *chain.Tx) error {
	if err := o.checkTarget(tx); err != nil {
		return err
	}
	if o.state.status != StatusSold {
		return ErrNotSold
	}
	if !o.IsExpired(tx.Now()) {
		return ErrNotYetExpired
	}
	if tx.Value().Sign() != 0 {
		return lib.WrapError(ErrIncorrectPayment, fmt.Errorf("no value expected"))
	}

	price, err := o.latestPrice(tx)
	if err != nil {
		return err
	}
	if o.Moneyness(price) != MoneynessInTheMoney {
		return lib.WrapError(ErrOutOfTheMoney, fmt.Errorf("price %s, strike %s", price, o.strikePrice))
	}

	buyerShare, sellerShare := NetSettlement(o.Collateral(), price, o.strikePrice)
	return o.settle(tx, SettlementAutoExercised, price, buyerShare, sellerShare)
}
