/*
Package generic provides the money, calendar and ledger primitives the dues
engine is built on.

PURPOSE:
  Domain-agnostic building blocks: exact decimal money, day-granular time
  points and billing periods, and an append-only payment ledger. The dues
  package layers fee rules on top; the store and api packages persist and
  expose them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: An exact decimal amount (never float64)
  - Payment: An immutable record that money was paid against a fee item
  - IDs: Type-safe identifiers for students, fee items, payments, tenants

DESIGN PRINCIPLES:
  1. Immutability: Payments are never modified, only appended
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Type Safety: Strong typing for IDs prevents mixing student/fee IDs
  4. Idempotency: Every payment may carry an idempotency key

USAGE:
  p := generic.Payment{
      StudentID: "stu-1",
      FeeItemID: "tuition",
      AmountPaid: generic.MustMoney("2000"),
      DatePaid:  generic.NewTimePoint(2024, time.January, 10),
  }

SEE ALSO:
  - ledger.go: Payment ledger with idempotency
  - period.go: Billing windows
  - dues/: Fee rules and late-fee accrual
*/
package generic

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Exact decimal amount
// =============================================================================

// Money is a decimal amount in the tenant's currency. Values coming from
// JSON may be strings ("12.50") or numbers (12.5); both decode exactly.
type Money struct {
	decimal.Decimal
}

func NewMoney(value int64) Money { return Money{decimal.NewFromInt(value)} }

// ParseMoney parses a decimal string.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d}, nil
}

// MustMoney parses a decimal string and returns zero on failure.
// Use only with literals.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		return Zero()
	}
	return m
}

func Zero() Money { return Money{decimal.Zero} }

func (m Money) Add(b Money) Money           { return Money{m.Decimal.Add(b.Decimal)} }
func (m Money) Sub(b Money) Money           { return Money{m.Decimal.Sub(b.Decimal)} }
func (m Money) Mul(s decimal.Decimal) Money { return Money{m.Decimal.Mul(s)} }
func (m Money) MulInt(n int) Money          { return Money{m.Decimal.Mul(decimal.NewFromInt(int64(n)))} }
func (m Money) Percent(p Money) Money {
	return Money{m.Decimal.Mul(p.Decimal).Div(decimal.NewFromInt(100))}
}
func (m Money) GreaterThan(b Money) bool { return m.Decimal.GreaterThan(b.Decimal) }
func (m Money) LessThan(b Money) bool    { return m.Decimal.LessThan(b.Decimal) }
func (m Money) Equal(b Money) bool       { return m.Decimal.Equal(b.Decimal) }

// NonNegative clamps negative amounts to zero.
func (m Money) NonNegative() Money {
	if m.IsNegative() {
		return Zero()
	}
	return m
}

// String renders with two decimal places.
func (m Money) String() string { return m.StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Decimal.UnmarshalJSON(b)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type StudentID string
type FeeItemID string
type PaymentID string

// =============================================================================
// PAYMENT - Immutable record of money received
// =============================================================================

type Payment struct {
	ID             PaymentID
	StudentID      StudentID
	FeeItemID      FeeItemID
	AmountPaid     Money
	DatePaid       TimePoint
	Reference      string
	IdempotencyKey string

	// Audit fields
	RecordedBy string
	CreatedAt  TimePoint
}

// Validate checks the invariants a payment must satisfy before it is
// appended: it must name a student and fee item and move a positive amount.
func (p Payment) Validate() error {
	switch {
	case p.StudentID == "":
		return &InvalidPaymentError{Field: "student_id", Reason: "is required"}
	case p.FeeItemID == "":
		return &InvalidPaymentError{Field: "fee_item_id", Reason: "is required"}
	case !p.AmountPaid.IsPositive():
		return &InvalidPaymentError{Field: "amount_paid", Reason: "must be greater than zero"}
	case p.DatePaid.IsZero():
		return &InvalidPaymentError{Field: "date_paid", Reason: "is required"}
	}
	return nil
}

// SumPayments totals the payments for a fee item whose date falls in the
// period.
func SumPayments(payments []Payment, feeItemID FeeItemID, period Period) Money {
	total := Zero()
	for _, p := range payments {
		if p.FeeItemID == feeItemID && period.Contains(p.DatePaid) {
			total = total.Add(p.AmountPaid)
		}
	}
	return total
}

// LatestPayment returns the latest DatePaid, or the zero TimePoint.
func LatestPayment(payments []Payment) TimePoint {
	var latest TimePoint
	for _, p := range payments {
		if latest.IsZero() || p.DatePaid.After(latest) {
			latest = p.DatePaid
		}
	}
	return latest
}
