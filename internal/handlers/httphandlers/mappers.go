package httphandlers

import (
	"fmt"
	"math/big"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/Lumerin-protocol/covered-call/internal/marketplace"
	"github.com/Lumerin-protocol/covered-call/internal/option"
	"github.com/ethereum/go-ethereum/common"
)

const nativeDecimals = 18

func (h *HTTPHandler) mapOption(s option.Snapshot, now time.Time) *Option {
	res := &Option{
		Resource: Resource{
			Self: h.publicUrl.JoinPath(fmt.Sprintf("/options/%s", s.Address.Hex())).String(),
		},
		Address:         s.Address.Hex(),
		Seller:          s.Seller.Hex(),
		Buyer:           addrPtr(s.Buyer),
		Broker:          addrPtr(s.Broker),
		PaymentToken:    addrPtr(s.PaymentToken),
		StrikePrice:     s.StrikePrice.String(),
		ExercisePayment: s.ExercisePayment.String(),
		Premium:         s.Premium.String(),
		Collateral:      s.Collateral.String(),
		CollateralEth:   lib.FormatUnits(s.Collateral, nativeDecimals),
		Expiration:      formatTime(s.Expiration),
		CreatedAt:       formatTime(s.CreatedAt),
		SoldAt:          timePtr(s.SoldAt),
		Status:          s.Status.String(),
		IsExpired:       !now.Before(s.Expiration),
	}
	if s.Settlement != nil {
		res.Settlement = &Settlement{
			Kind:         s.Settlement.Kind.String(),
			Price:        s.Settlement.Price.String(),
			BuyerPayout:  s.Settlement.BuyerPayout.String(),
			SellerPayout: s.Settlement.SellerPayout.String(),
			SettledAt:    formatTime(s.Settlement.SettledAt),
		}
	}
	return res
}

func (h *HTTPHandler) mapListing(l marketplace.Listing, opt *Option) Listing {
	return Listing{
		ID:              l.ID,
		Seller:          l.Seller.Hex(),
		ContractAddress: l.ContractAddress.Hex(),
		Sold:            l.Sold,
		Option:          opt,
	}
}

func mapReceipt(r *chain.Receipt) *TxResponse {
	return &TxResponse{
		TxHash: r.TxHash.Hex(),
		Block:  r.Block,
		Time:   formatTime(r.Time),
		Events: mapEvents(r.Events),
	}
}

func mapEvents(events []chain.Event) []Event {
	res := make([]Event, 0, len(events))
	for _, e := range events {
		res = append(res, Event{
			Block:    e.Block,
			TxHash:   e.TxHash.Hex(),
			Contract: e.Contract.Hex(),
			Name:     e.Name,
			Data:     e.Data,
			Time:     formatTime(e.Time),
		})
	}
	return res
}

func addrPtr(addr common.Address) *string {
	if addr == (common.Address{}) {
		return nil
	}
	s := addr.Hex()
	return &s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// timePtr converts zero time to nil
func timePtr(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := formatTime(t)
	return &s
}

func formatAmount(amount *big.Int, decimals uint8) string {
	return lib.FormatUnits(amount, int32(decimals))
}
