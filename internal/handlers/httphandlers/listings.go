package httphandlers

import (
	"fmt"
	"math/big"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
)

func (h *HTTPHandler) GetListings(ctx *gin.Context) {
	data := []Listing{}
	now := h.chain.Now()

	h.chain.View(func() {
		for _, l := range h.market.GetListings() {
			var opt *Option
			if o, ok := h.market.Option(l.ContractAddress); ok {
				opt = h.mapOption(o.Snapshot(), now)
			}
			data = append(data, h.mapListing(l, opt))
		}
	})

	if ctx.Query("sold") != "" {
		sold := ctx.Query("sold") == "true"
		data = filter(data, func(l Listing) bool { return l.Sold == sold })
	}

	slices.SortStableFunc(data, func(a Listing, b Listing) bool {
		return a.ID < b.ID
	})

	ctx.JSON(200, data)
}

func (h *HTTPHandler) CreateListing(ctx *gin.Context) {
	var req CreateListingReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.abortWithError(ctx, lib.WrapError(ErrBadRequest, err))
		return
	}

	from, err := h.account(req.From)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}
	amounts, err := parseAmounts(req.StrikePrice, req.Premium, req.Collateral)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}
	strike, premium, collateral := amounts[0], amounts[1], amounts[2]

	var optionAddr common.Address
	receipt, err := h.chain.Transact(ctx.Request.Context(), chain.Msg{From: from, To: h.market.Address(), Value: collateral}, func(tx *chain.Tx) error {
		addr, err := h.market.ListCoveredCall(tx, h.priceOracle, strike, time.Unix(req.Expiration, 0), premium)
		optionAddr = addr
		return err
	})
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}

	res := mapReceipt(receipt)
	res.Address = addrPtr(optionAddr)
	ctx.JSON(201, res)
}

func (h *HTTPHandler) BuyListing(ctx *gin.Context) {
	var req ValueReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.abortWithError(ctx, lib.WrapError(ErrBadRequest, err))
		return
	}

	from, err := h.account(req.From)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}
	optionAddr, err := parseAddress(ctx.Param("address"))
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}
	value, err := parseOptionalAmount(req.Value)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}

	receipt, err := h.chain.Transact(ctx.Request.Context(), chain.Msg{From: from, To: h.market.Address(), Value: value}, func(tx *chain.Tx) error {
		return h.market.BuyCoveredCall(tx, optionAddr)
	})
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}

	ctx.JSON(200, mapReceipt(receipt))
}

// account resolves the sender of a request, only accounts managed by the node can send
func (h *HTTPHandler) account(addr string) (common.Address, error) {
	a, err := parseAddress(addr)
	if err != nil {
		return common.Address{}, err
	}
	if _, ok := h.accounts.Load(a.Hex()); !ok {
		return common.Address{}, lib.WrapError(ErrUnknownAccount, fmt.Errorf("%s", a.Hex()))
	}
	return a, nil
}

func parseAddress(addr string) (common.Address, error) {
	if !common.IsHexAddress(addr) {
		return common.Address{}, lib.WrapError(ErrBadRequest, fmt.Errorf("invalid address %q", addr))
	}
	return common.HexToAddress(addr), nil
}

func parseAmounts(values ...string) ([]*big.Int, error) {
	res := make([]*big.Int, len(values))
	for i, v := range values {
		amount, err := lib.ParseBaseUnits(v)
		if err != nil {
			return nil, err
		}
		res[i] = amount
	}
	return res, nil
}

func parseOptionalAmount(value string) (*big.Int, error) {
	if value == "" {
		return new(big.Int), nil
	}
	return lib.ParseBaseUnits(value)
}

func filter[T any](items []T, keep func(T) bool) []T {
	res := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			res = append(res, item)
		}
	}
	return res
}
