package option

import (
	"errors"

	"github.com/Lumerin-protocol/covered-call/internal/lib"
)

// Error kinds, every specific error below wraps exactly one of them
var (
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrWrongState        = errors.New("wrong state")
	ErrTimingViolation   = errors.New("timing violation")
	ErrPriceCondition    = errors.New("price condition")
	ErrPaymentFailure    = errors.New("payment failure")
	ErrOracle            = errors.New("price oracle failure")
)

var (
	ErrNotBuyer  = lib.WrapError(ErrUnauthorized, errors.New("caller is not the buyer"))
	ErrNotSeller = lib.WrapError(ErrUnauthorized, errors.New("caller is not the seller"))
	ErrNotBroker = lib.WrapError(ErrUnauthorized, errors.New("option is brokered, purchase must go through its marketplace"))

	ErrAlreadySold = lib.WrapError(ErrWrongState, errors.New("option already sold"))
	ErrNotSold     = lib.WrapError(ErrWrongState, errors.New("option is not in sold state"))

	ErrExpired       = lib.WrapError(ErrTimingViolation, errors.New("option expired"))
	ErrNotYetExpired = lib.WrapError(ErrTimingViolation, errors.New("option not yet expired"))

	ErrOutOfTheMoney   = lib.WrapError(ErrPriceCondition, errors.New("option is out of the money"))
	ErrStillInTheMoney = lib.WrapError(ErrPriceCondition, errors.New("option is still in the money"))

	ErrIncorrectPayment = lib.WrapError(ErrPaymentFailure, errors.New("incorrect payment"))
	ErrTransferFailed   = lib.WrapError(ErrPaymentFailure, errors.New("transfer failed"))

	ErrWrongTarget = errors.New("call is not addressed to this option")
)
