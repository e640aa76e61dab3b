package service

import (
	"errors"
	"fmt"

	"go-inventory-loans/pkg/validator"
)

// Error definitions. Handlers map these onto HTTP statuses with errors.Is;
// anything not in this list is treated as an internal failure.
var (
	// Not found
	ErrItemNotFound = errors.New("item not found")
	ErrLoanNotFound = errors.New("loan not found")
	ErrUserNotFound = errors.New("user not found")

	// Invalid argument
	ErrValidation             = errors.New("validation failed")
	ErrInvalidQuantity        = errors.New("quantity must be greater than zero")
	ErrInvalidDirection       = errors.New("direction must be IN or OUT")
	ErrInvalidDecision        = errors.New("decision must be approved or rejected")
	ErrMissingReason          = errors.New("loan reason is required")
	ErrMissingRejectionReason = errors.New("rejection reason is required")
	ErrEmptyFeedback          = errors.New("feedback message cannot be empty")

	// Business rule failures
	ErrInsufficientStock = errors.New("insufficient stock remaining")
	ErrInvalidTransition = errors.New("loan status transition not allowed")
	ErrLoanOverdue       = errors.New("loan is overdue and cannot be extended")
	ErrForbidden         = errors.New("admin capability required")

	// Conflicts
	ErrConflict           = errors.New("resource was modified concurrently")
	ErrDuplicateItemName  = errors.New("item name already in use")
	ErrItemHasActiveLoans = errors.New("item still has active loans")
	ErrItemHasHistory     = errors.New("item has ledger history and cannot be deleted")
)

// validateInput runs struct validation and reports the first failure,
// wrapping ErrValidation so handlers can classify it as a 400
func validateInput(data interface{}) error {
	if errs := validator.ValidateStruct(data); len(errs) > 0 {
		first := errs[0]
		return fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrValidation, first.FailedField, first.Tag)
	}
	return nil
}
