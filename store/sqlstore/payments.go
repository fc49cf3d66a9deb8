package sqlstore

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/warp/dues-engine/generic"
)

// =============================================================================
// PAYMENT STORE (generic.PaymentStore interface)
// =============================================================================

type paymentRow struct {
	ID             string         `db:"id"`
	StudentID      string         `db:"student_id"`
	FeeItemID      string         `db:"fee_item_id"`
	Amount         string         `db:"amount"`
	DatePaid       string         `db:"date_paid"`
	Reference      sql.NullString `db:"reference"`
	IdempotencyKey sql.NullString `db:"idempotency_key"`
	RecordedBy     sql.NullString `db:"recorded_by"`
	CreatedAt      string         `db:"created_at"`
}

func (r paymentRow) toPayment() generic.Payment {
	return generic.Payment{
		ID:             generic.PaymentID(r.ID),
		StudentID:      generic.StudentID(r.StudentID),
		FeeItemID:      generic.FeeItemID(r.FeeItemID),
		AmountPaid:     generic.MustMoney(r.Amount),
		DatePaid:       parseDate(r.DatePaid),
		Reference:      r.Reference.String,
		IdempotencyKey: r.IdempotencyKey.String,
		RecordedBy:     r.RecordedBy.String,
		CreatedAt:      parseTimestamp(r.CreatedAt),
	}
}

const paymentColumns = `id, student_id, fee_item_id, amount, date_paid, reference, idempotency_key, recorded_by, created_at`

// Append adds a payment. Append-only.
func (s *Store) Append(ctx context.Context, p generic.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendPayment(ctx, s.db, p)
}

func (s *Store) appendPayment(ctx context.Context, db execer, p generic.Payment) error {
	if p.ID == "" {
		p.ID = generic.PaymentID(uuid.New().String())
	}

	query := db.Rebind(`
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := db.ExecContext(ctx, query,
		string(p.ID),
		string(p.StudentID),
		string(p.FeeItemID),
		p.AmountPaid.Decimal.String(),
		formatDate(p.DatePaid),
		nullString(p.Reference),
		nullString(p.IdempotencyKey),
		nullString(p.RecordedBy),
		now(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return errors.Wrap(err, "failed to append payment")
	}
	return nil
}

// AppendBatch adds multiple payments atomically.
func (s *Store) AppendBatch(ctx context.Context, ps []generic.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicate idempotency keys within the batch first
	keys := make(map[string]bool)
	for _, p := range ps {
		if p.IdempotencyKey == "" {
			continue
		}
		if keys[p.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		keys[p.IdempotencyKey] = true
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, p := range ps {
		if err := s.appendPayment(ctx, tx, p); err != nil {
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit payments")
}

// LoadPayments returns all payments for a student ordered by DatePaid.
func (s *Store) LoadPayments(ctx context.Context, studentID generic.StudentID) ([]generic.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := s.db.Rebind(`
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE student_id = ?
		ORDER BY date_paid ASC, created_at ASC, id ASC
	`)
	return s.queryPayments(ctx, query, string(studentID))
}

// LoadPaymentsInRange returns payments with DatePaid inside the period.
func (s *Store) LoadPaymentsInRange(ctx context.Context, studentID generic.StudentID, period generic.Period) ([]generic.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := s.db.Rebind(`
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE student_id = ? AND date_paid >= ? AND date_paid <= ?
		ORDER BY date_paid ASC, created_at ASC, id ASC
	`)
	return s.queryPayments(ctx, query, string(studentID), formatDate(period.Start), formatDate(period.End))
}

// Exists checks if an idempotency key exists.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.GetContext(ctx, &count,
		s.db.Rebind("SELECT COUNT(*) FROM payments WHERE idempotency_key = ?"),
		idempotencyKey,
	)
	if err != nil {
		return false, errors.Wrap(err, "failed to check idempotency key")
	}
	return count > 0, nil
}

func (s *Store) queryPayments(ctx context.Context, query string, args ...interface{}) ([]generic.Payment, error) {
	var rows []paymentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to query payments")
	}

	payments := make([]generic.Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, r.toPayment())
	}
	return payments, nil
}
