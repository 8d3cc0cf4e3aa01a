package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/use-agent/dicepool/dice"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"die count", dice.ErrInvalidDieCount, ErrCodeInvalidArgument},
		{"face", fmt.Errorf("validate: %w", dice.ErrInvalidFace), ErrCodeInvalidArgument},
		{"no target", dice.ErrNoRerollTarget, ErrCodeNoRerollTarget},
		{"existing", NewDiceError(ErrCodeUnauthorized, "nope", nil), ErrCodeUnauthorized},
		{"unknown", errors.New("boom"), ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			if got.Code != tt.want {
				t.Errorf("FromError(%v).Code = %s, want %s", tt.err, got.Code, tt.want)
			}
			if !errors.Is(got, tt.err) && got != tt.err {
				t.Errorf("FromError(%v) lost the wrapped error", tt.err)
			}
		})
	}
}

func TestDiceError_Error(t *testing.T) {
	e := NewDiceError(ErrCodeNoRerollTarget, "no die showing 1", nil)
	if got := e.Error(); got != "NO_REROLL_TARGET: no die showing 1" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := NewDiceError(ErrCodeInternal, "internal error", errors.New("disk"))
	if got := wrapped.Error(); got != "INTERNAL_ERROR: internal error: disk" {
		t.Errorf("Error() = %q", got)
	}
	if d := wrapped.ToDetail(); d.Code != ErrCodeInternal || d.Message != "internal error" {
		t.Errorf("ToDetail() = %+v", d)
	}
}
