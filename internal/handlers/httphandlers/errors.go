package httphandlers

import (
	"errors"
	"net/http"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/Lumerin-protocol/covered-call/internal/marketplace"
	"github.com/Lumerin-protocol/covered-call/internal/option"
	"github.com/Lumerin-protocol/covered-call/internal/token"
	"github.com/gin-gonic/gin"
)

var (
	ErrBadRequest     = errors.New("bad request")
	ErrUnknownAccount = errors.New("account is not managed by this node")
	ErrOptionNotFound = errors.New("option not found")
)

const (
	KindInvalidParameters = "invalid_parameters"
	KindPaymentFailure    = "payment_failure"
	KindUnauthorized      = "unauthorized"
	KindNotFound          = "not_found"
	KindWrongState        = "wrong_state"
	KindTimingViolation   = "timing_violation"
	KindPriceCondition    = "price_condition"
	KindOracle            = "oracle"
	KindInternal          = "internal"
)

// MapError returns http status and error kind
func MapError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, lib.ErrInvalidAmount),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, option.ErrInvalidParameters):
		return http.StatusBadRequest, KindInvalidParameters

	case errors.Is(err, option.ErrPaymentFailure),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, chain.ErrInsufficientBalance),
		errors.Is(err, chain.ErrTransferFailed):
		return http.StatusBadRequest, KindPaymentFailure

	case errors.Is(err, option.ErrUnauthorized),
		errors.Is(err, ErrUnknownAccount),
		errors.Is(err, token.ErrNotMinter):
		return http.StatusForbidden, KindUnauthorized

	case errors.Is(err, marketplace.ErrListingNotFound),
		errors.Is(err, ErrOptionNotFound):
		return http.StatusNotFound, KindNotFound

	case errors.Is(err, option.ErrWrongState):
		return http.StatusConflict, KindWrongState
	case errors.Is(err, option.ErrTimingViolation):
		return http.StatusConflict, KindTimingViolation
	case errors.Is(err, option.ErrPriceCondition):
		return http.StatusConflict, KindPriceCondition

	case errors.Is(err, option.ErrOracle):
		return http.StatusInternalServerError, KindOracle
	}
	return http.StatusInternalServerError, KindInternal
}

func (h *HTTPHandler) abortWithError(ctx *gin.Context, err error) {
	status, kind := MapError(err)
	if status >= 500 {
		h.log.Errorf("request %s failed: %s", ctx.GetString(contextRequestID), err)
	}
	ctx.AbortWithStatusJSON(status, ErrorResponse{
		Error: err.Error(),
		Kind:  kind,
	})
}
