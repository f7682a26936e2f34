package httphandlers

import (
	"fmt"
	"math/big"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/Lumerin-protocol/covered-call/internal/option"
	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) GetOption(ctx *gin.Context) {
	opt, err := h.loadOption(ctx.Param("address"))
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}

	var snap option.Snapshot
	h.chain.View(func() {
		snap = opt.Snapshot()
	})

	ctx.JSON(200, h.mapOption(snap, h.chain.Now()))
}

func (h *HTTPHandler) ExerciseOption(ctx *gin.Context) {
	var req ValueReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.abortWithError(ctx, lib.WrapError(ErrBadRequest, err))
		return
	}
	value, err := parseOptionalAmount(req.Value)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}

	h.callOption(ctx, req.From, value, func(opt *option.Option) func(tx *chain.Tx) error {
		return opt.ExerciseOption
	})
}

func (h *HTTPHandler) ExpireOption(ctx *gin.Context) {
	var req FromReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.abortWithError(ctx, lib.WrapError(ErrBadRequest, err))
		return
	}

	h.callOption(ctx, req.From, nil, func(opt *option.Option) func(tx *chain.Tx) error {
		return opt.ExpireWorthless
	})
}

func (h *HTTPHandler) AutoExerciseOption(ctx *gin.Context) {
	var req FromReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.abortWithError(ctx, lib.WrapError(ErrBadRequest, err))
		return
	}

	h.callOption(ctx, req.From, nil, func(opt *option.Option) func(tx *chain.Tx) error {
		return opt.AutoExercise
	})
}

func (h *HTTPHandler) callOption(ctx *gin.Context, fromAddr string, value *big.Int, method func(opt *option.Option) func(tx *chain.Tx) error) {
	from, err := h.account(fromAddr)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}
	opt, err := h.loadOption(ctx.Param("address"))
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}

	receipt, err := h.chain.Transact(ctx.Request.Context(), chain.Msg{From: from, To: opt.Address(), Value: value}, method(opt))
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}

	ctx.JSON(200, mapReceipt(receipt))
}

// loadOption finds an option by address, listed or deployed directly
func (h *HTTPHandler) loadOption(addr string) (*option.Option, error) {
	a, err := parseAddress(addr)
	if err != nil {
		return nil, err
	}
	contract, ok := h.chain.ContractAt(a)
	if !ok {
		return nil, lib.WrapError(ErrOptionNotFound, fmt.Errorf("%s", a.Hex()))
	}
	opt, ok := contract.(*option.Option)
	if !ok {
		return nil, lib.WrapError(ErrOptionNotFound, fmt.Errorf("%s is not an option", a.Hex()))
	}
	return opt, nil
}
