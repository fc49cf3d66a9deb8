/*
store.go - Persistence interface for payments

PURPOSE:
  Defines the interface between the dues logic and the database. The
  PaymentStore persists payments with append-only semantics. Different
  implementations can use SQLite, PostgreSQL, or in-memory storage.

APPEND-ONLY CONTRACT:
  - Append(): Single payment write
  - AppendBatch(): Atomic multi-payment write
  - NO Update() or Delete() methods exist
  Corrections are recorded as new payments (a refund is out of scope here).

IDEMPOTENCY:
  Every write may include an idempotency key. If the key already exists,
  the write is rejected. This prevents duplicate payments from network
  retries or a double-clicked "record payment" button.

IMPLEMENTATIONS:
  - store/sqlstore: SQLite / PostgreSQL via sqlx
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Higher-level interface using PaymentStore
*/
package generic

import "context"

// PaymentStore handles persistence of payments.
// IMPORTANT: PaymentStore is APPEND-ONLY. No Update, No Delete.
type PaymentStore interface {
	// Append persists a payment. Returns ErrDuplicateIdempotencyKey if the
	// key exists.
	Append(ctx context.Context, p Payment) error

	// AppendBatch persists multiple payments atomically.
	AppendBatch(ctx context.Context, ps []Payment) error

	// LoadPayments returns all payments for a student ordered by DatePaid.
	LoadPayments(ctx context.Context, studentID StudentID) ([]Payment, error)

	// LoadPaymentsInRange returns payments with DatePaid in [period.Start, period.End].
	LoadPaymentsInRange(ctx context.Context, studentID StudentID, period Period) ([]Payment, error)

	// Exists checks if idempotency key already exists.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}
