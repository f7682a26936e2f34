package httphandlers

import (
	"fmt"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// Mint sends payment tokens from the minter account to any address
func (h *HTTPHandler) Mint(ctx *gin.Context) {
	var req MintReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.abortWithError(ctx, lib.WrapError(ErrBadRequest, err))
		return
	}
	amount, err := lib.ParseBaseUnits(req.Amount)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}
	to := common.HexToAddress(req.To)

	receipt, err := h.chain.Transact(ctx.Request.Context(), chain.Msg{From: h.dev.Minter.Address, To: h.token.Address()}, func(tx *chain.Tx) error {
		return h.token.Mint(tx, to, amount)
	})
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}

	ctx.JSON(200, mapReceipt(receipt))
}

func (h *HTTPHandler) SetPrice(ctx *gin.Context) {
	var req SetPriceReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.abortWithError(ctx, lib.WrapError(ErrBadRequest, err))
		return
	}
	price, err := lib.ParseBaseUnits(req.Price)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}
	if price.Sign() == 0 {
		h.abortWithError(ctx, lib.WrapError(ErrBadRequest, fmt.Errorf("price must be positive")))
		return
	}

	h.dev.Feed.SetLatestPrice(price)
	h.log.Infof("mock price set to %s", lib.FormatUnits(price, nativeDecimals))

	ctx.JSON(200, gin.H{"price": price.String()})
}

func (h *HTTPHandler) AdvanceTime(ctx *gin.Context) {
	var req AdvanceTimeReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.abortWithError(ctx, lib.WrapError(ErrBadRequest, err))
		return
	}
	d, err := time.ParseDuration(req.Duration)
	if err != nil || d <= 0 {
		h.abortWithError(ctx, lib.WrapError(ErrBadRequest, fmt.Errorf("invalid duration %q", req.Duration)))
		return
	}

	now := h.dev.Clock.Advance(d)
	h.log.Infof("block time advanced by %s to %s", d, formatTime(now))

	ctx.JSON(200, gin.H{"time": formatTime(now)})
}
