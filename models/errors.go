package models

import (
	"errors"
	"fmt"

	"github.com/use-agent/dicepool/dice"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidArgument = "INVALID_ARGUMENT"
	ErrCodeNoRerollTarget  = "NO_REROLL_TARGET"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DiceError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type DiceError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *DiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DiceError) Unwrap() error {
	return e.Err
}

// NewDiceError creates a new DiceError.
func NewDiceError(code, message string, err error) *DiceError {
	return &DiceError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *DiceError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// FromError classifies err. Engine failures map to INVALID_ARGUMENT or
// NO_REROLL_TARGET, an existing DiceError is returned as is and anything
// else becomes INTERNAL_ERROR.
func FromError(err error) *DiceError {
	var de *DiceError
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, dice.ErrInvalidDieCount), errors.Is(err, dice.ErrInvalidFace):
		return NewDiceError(ErrCodeInvalidArgument, err.Error(), err)
	case errors.Is(err, dice.ErrNoRerollTarget):
		return NewDiceError(ErrCodeNoRerollTarget, err.Error(), err)
	default:
		return NewDiceError(ErrCodeInternal, "internal error", err)
	}
}
