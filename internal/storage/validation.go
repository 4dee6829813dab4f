package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oakmont/wealthsim/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrEmptySlice      = errors.New("slice cannot be empty")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidDelta    = errors.New("invalid position delta")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validatePositions validates a slice of positions before writing.
func validatePositions(positions []model.InvestmentPosition) error {
	if positions == nil {
		return fmt.Errorf("%w: positions", ErrNilParameter)
	}
	if len(positions) == 0 {
		return fmt.Errorf("%w: positions", ErrEmptySlice)
	}
	for i := range positions {
		if err := positions[i].Validate(); err != nil {
			return fmt.Errorf("%w: index %d: %v", ErrInvalidPosition, i, err)
		}
	}
	return nil
}

// validateDelta checks a transition delta before it is applied.
func validateDelta(d *model.PositionDelta) error {
	if d.PositionID == "" {
		return fmt.Errorf("%w: missing position ID", ErrInvalidDelta)
	}
	if d.NewHoldAmount < 0 {
		return fmt.Errorf("%w: negative hold amount for %s", ErrInvalidDelta, d.PositionID)
	}
	if d.NewStatus == model.StatusFullyRedeemed && d.NewHoldAmount != 0 {
		return fmt.Errorf("%w: full redemption of %s leaves hold amount %.2f",
			ErrInvalidDelta, d.PositionID, d.NewHoldAmount)
	}
	if d.OldStatus == model.StatusFullyRedeemed {
		return fmt.Errorf("%w: %s transitions out of terminal state", ErrInvalidDelta, d.PositionID)
	}
	return nil
}
