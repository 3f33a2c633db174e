package services

import (
	"context"
	"errors"
	"fmt"

	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
	"github.com/baharkarakas/h2credits-backend/internal/worker"
)

// Typed failures returned by every service operation. Callers match them with
// errors.Is and render their own messages.
var (
	ErrInvalidTransferState = errors.New("invalid transfer state")
	ErrNotOwner             = errors.New("caller does not own the credit")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidExpiry        = errors.New("invalid expiry")
	ErrInvalidInput         = errors.New("invalid input")
	ErrBidTooLow            = errors.New("bid below minimum bid price")
	ErrBidNotFound          = errors.New("bid not found")
	ErrBidNotActive         = errors.New("bid not active")
	ErrCreditNotAvailable   = errors.New("credit not available")
	ErrAlreadyRetired       = errors.New("credit already retired")
	ErrNotFound             = errors.New("not found")
	ErrPartnershipNotOpen   = errors.New("partnership not open")
	ErrAllocationExceeded   = errors.New("allocation exceeds credit quantity")
	ErrForbidden            = errors.New("forbidden")
	ErrPersistence          = errors.New("persistence failure")
	ErrTimeout              = errors.New("operation timed out")
)

// isTyped reports whether err already carries one of the service failures.
func isTyped(err error) bool {
	for _, t := range []error{
		ErrInvalidTransferState, ErrNotOwner, ErrInvalidPrice, ErrInvalidQuantity,
		ErrInvalidExpiry, ErrInvalidInput, ErrBidTooLow, ErrBidNotFound, ErrBidNotActive,
		ErrCreditNotAvailable, ErrAlreadyRetired, ErrNotFound, ErrPartnershipNotOpen,
		ErrAllocationExceeded, ErrForbidden, ErrPersistence, ErrTimeout,
	} {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// classify turns a raw error from the store or the worker pool into a typed
// failure. Store errors become ErrPersistence with the cause kept in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case isTyped(err):
		return err
	case errors.Is(err, worker.ErrTimeout), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, repo.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
}

// reason is the metrics label for a typed failure.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTransferState):
		return "invalid_transfer_state"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrInvalidExpiry):
		return "invalid_expiry"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrBidTooLow):
		return "bid_too_low"
	case errors.Is(err, ErrBidNotFound):
		return "bid_not_found"
	case errors.Is(err, ErrBidNotActive):
		return "bid_not_active"
	case errors.Is(err, ErrCreditNotAvailable):
		return "credit_not_available"
	case errors.Is(err, ErrAlreadyRetired):
		return "already_retired"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPartnershipNotOpen):
		return "partnership_not_open"
	case errors.Is(err, ErrAllocationExceeded):
		return "allocation_exceeded"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	}
	return "other"
}
