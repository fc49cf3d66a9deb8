/*
errors.go - Centralized error types for the dues engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Store and api packages wrap these with context (github.com/pkg/errors).

ERROR CATEGORIES:
  1. Ledger errors - Payment persistence failures
  2. Validation errors - Malformed input
  3. Lookup errors - Missing students, fee structures, tenants
  4. Billing errors - Tenant gated for overdue platform billing

USAGE:
    if errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
        // Already recorded, safe to ignore
    }

SEE ALSO:
  - ledger.go: Uses these errors
  - billing/billing.go: Returns BillingOverdueError
  - api/handlers.go: Maps them to HTTP status codes
*/
package generic

import (
	"fmt"

	"github.com/pkg/errors"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateIdempotencyKey is returned when a payment with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInvalidPayment is returned when a payment fails validation.
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrInvalidInput is returned for malformed configuration or request data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrTenantMismatch is returned when a write targets a record owned by
	// another tenant.
	ErrTenantMismatch = errors.New("record belongs to another tenant")

	// ErrBillingOverdue is returned when a tenant has unpaid platform billing
	// past its due date.
	ErrBillingOverdue = errors.New("tenant billing overdue")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidPaymentError names the offending field.
type InvalidPaymentError struct {
	Field  string
	Reason string
}

func (e *InvalidPaymentError) Error() string {
	return fmt.Sprintf("invalid payment: %s %s", e.Field, e.Reason)
}

func (e *InvalidPaymentError) Unwrap() error {
	return ErrInvalidPayment
}

// NotFoundError names what was looked up.
type NotFoundError struct {
	Kind string // "student", "fee_structure", "tenant", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// BillingOverdueError carries the schedule that gates the tenant.
type BillingOverdueError struct {
	TenantID    TenantID
	OverdueFrom TimePoint
	Amount      Money
}

func (e *BillingOverdueError) Error() string {
	return fmt.Sprintf("tenant %s billing overdue since %s (amount %s)",
		e.TenantID, e.OverdueFrom, e.Amount)
}

func (e *BillingOverdueError) Unwrap() error {
	return ErrBillingOverdue
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPayment) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
