/*
ledger.go - Append-only payment log

PURPOSE:
  The Ledger is the source of truth for money received. Dues are never
  stored; they are recomputed from fee configuration plus the payments
  recorded here, so there is no "balance" column that can drift.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. VALID: Every payment names a student and fee item and is positive.
  3. IDEMPOTENT: Same idempotency key = same payment (no duplicates)

SEE ALSO:
  - store.go: Low-level persistence interface
  - dues/monthly.go: Consumes payments to net against dues
*/
package generic

import "context"

// Ledger is the source of truth for recorded payments.
type Ledger interface {
	// Record validates and appends a payment. Fails if the idempotency key
	// exists.
	Record(ctx context.Context, p Payment) error

	// RecordBatch validates and appends payments atomically.
	RecordBatch(ctx context.Context, ps []Payment) error

	// Payments returns all payments for a student, chronologically.
	Payments(ctx context.Context, studentID StudentID) ([]Payment, error)

	// PaidInPeriod sums a fee item's payments inside the period.
	PaidInPeriod(ctx context.Context, studentID StudentID, feeItemID FeeItemID, period Period) (Money, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using PaymentStore
// =============================================================================

type DefaultLedger struct {
	Store PaymentStore
}

func NewLedger(store PaymentStore) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Record(ctx context.Context, p Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.IdempotencyKey != "" {
		exists, err := l.Store.Exists(ctx, p.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.Append(ctx, p)
}

func (l *DefaultLedger) RecordBatch(ctx context.Context, ps []Payment) error {
	seen := make(map[string]bool, len(ps))
	for _, p := range ps {
		if err := p.Validate(); err != nil {
			return err
		}
		if p.IdempotencyKey == "" {
			continue
		}
		if seen[p.IdempotencyKey] {
			return ErrDuplicateIdempotencyKey
		}
		seen[p.IdempotencyKey] = true

		exists, err := l.Store.Exists(ctx, p.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.AppendBatch(ctx, ps)
}

func (l *DefaultLedger) Payments(ctx context.Context, studentID StudentID) ([]Payment, error) {
	return l.Store.LoadPayments(ctx, studentID)
}

func (l *DefaultLedger) PaidInPeriod(ctx context.Context, studentID StudentID, feeItemID FeeItemID, period Period) (Money, error) {
	ps, err := l.Store.LoadPaymentsInRange(ctx, studentID, period)
	if err != nil {
		return Money{}, err
	}
	return SumPayments(ps, feeItemID, period), nil
}
