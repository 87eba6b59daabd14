package models

import (
	"errors"
	"fmt"
)

// ErrAlreadyReceived: re-receiving a received purchase order. Safe for the
// caller to treat as a no-op on retry.
var ErrAlreadyReceived = errors.New("purchase order already received")

// InsufficientStockError is returned when a decrement would drive an item's
// quantity below zero. The failing item is named so the message is actionable.
type InsufficientStockError struct {
	ItemId    int
	Sku       string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): available=%d, requested=%d",
		e.Name, e.Sku, e.Available, e.Requested)
}

func IsInsufficientStock(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}

// InvalidStateTransitionError reports an illegal status change with both the
// current and the attempted state.
type InvalidStateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid %s status transition: %s -> %s", e.Entity, e.From, e.To)
}

func IsInvalidStateTransition(err error) bool {
	var iste *InvalidStateTransitionError
	return errors.As(err, &iste)
}

// ValidationError: malformed input rejected before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func newValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
