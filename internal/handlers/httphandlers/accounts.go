package httphandlers

import (
	"fmt"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
)

func (h *HTTPHandler) GetAccounts(ctx *gin.Context) {
	data := []Account{}
	h.accounts.Range(func(w *lib.Wallet) bool {
		index := w.Index
		acc := h.mapAccount(w.Address)
		acc.Index = &index
		data = append(data, acc)
		return true
	})

	slices.SortStableFunc(data, func(a Account, b Account) bool {
		return *a.Index < *b.Index
	})

	ctx.JSON(200, data)
}

func (h *HTTPHandler) GetAccount(ctx *gin.Context) {
	addr, err := parseAddress(ctx.Param("address"))
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}

	acc := h.mapAccount(addr)
	if w, ok := h.accounts.Load(addr.Hex()); ok {
		index := w.Index
		acc.Index = &index
	}
	ctx.JSON(200, acc)
}

func (h *HTTPHandler) Approve(ctx *gin.Context) {
	var req ApproveReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.abortWithError(ctx, lib.WrapError(ErrBadRequest, err))
		return
	}

	from, err := h.account(req.From)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}
	amount, err := lib.ParseBaseUnits(req.Amount)
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}
	spender := common.HexToAddress(req.Spender)

	receipt, err := h.chain.Transact(ctx.Request.Context(), chain.Msg{From: from, To: h.token.Address()}, func(tx *chain.Tx) error {
		return h.token.Approve(tx, spender, amount)
	})
	if err != nil {
		h.abortWithError(ctx, err)
		return
	}

	ctx.JSON(200, mapReceipt(receipt))
}

func (h *HTTPHandler) mapAccount(addr common.Address) Account {
	var acc Account
	native := h.chain.BalanceOf(addr)
	h.chain.View(func() {
		tokenBalance := h.token.BalanceOf(addr)
		acc = Account{
			Resource: Resource{
				Self: h.publicUrl.JoinPath(fmt.Sprintf("/accounts/%s", addr.Hex())).String(),
			},
			Address:       addr.Hex(),
			NativeBalance: native.String(),
			NativeEth:     lib.FormatUnits(native, nativeDecimals),
			TokenBalance:  tokenBalance.String(),
			TokenSymbol:   h.token.Symbol(),
			TokenAmount:   formatAmount(tokenBalance, h.token.Decimals()),
		}
	})
	return acc
}
