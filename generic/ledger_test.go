package generic_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warp/dues-engine/generic"
	"github.com/warp/dues-engine/generic/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestLedger() generic.Ledger {
	return generic.NewLedger(store.NewMemory())
}

func pay(key string, amount int64, on generic.TimePoint) generic.Payment {
	return generic.Payment{
		ID:             generic.PaymentID("pay-" + key),
		StudentID:      "stu-1",
		FeeItemID:      "tuition",
		AmountPaid:     generic.NewMoney(amount),
		DatePaid:       on,
		IdempotencyKey: key,
	}
}

// =============================================================================
// LEDGER TESTS
// =============================================================================

func TestLedger_RecordAndLoadChronologically(t *testing.T) {
	// GIVEN: Payments recorded out of date order
	// WHEN: Loading them back
	// THEN: They come back sorted by DatePaid
	ctx := context.Background()
	ledger := newTestLedger()

	for _, p := range []generic.Payment{
		pay("k3", 300, d(2024, time.March, 1)),
		pay("k1", 100, d(2024, time.January, 1)),
		pay("k2", 200, d(2024, time.February, 1)),
	} {
		if err := ledger.Record(ctx, p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := ledger.Payments(ctx, "stu-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 payments, got %d", len(got))
	}
	for i, key := range []string{"k1", "k2", "k3"} {
		if got[i].IdempotencyKey != key {
			t.Errorf("position %d: expected %s, got %s", i, key, got[i].IdempotencyKey)
		}
	}
}

func TestLedger_DuplicateIdempotencyKeyRejected(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()

	if err := ledger.Record(ctx, pay("same", 100, d(2024, time.January, 5))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ledger.Record(ctx, pay("same", 100, d(2024, time.January, 5)))
	if !errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
		t.Fatalf("expected ErrDuplicateIdempotencyKey, got %v", err)
	}

	got, _ := ledger.Payments(ctx, "stu-1")
	if len(got) != 1 {
		t.Errorf("retry must not create a second payment, got %d", len(got))
	}
}

func TestLedger_RejectsInvalidPayments(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()

	tests := []struct {
		name  string
		edit  func(p *generic.Payment)
		field string
	}{
		{"missing student", func(p *generic.Payment) { p.StudentID = "" }, "student_id"},
		{"missing fee", func(p *generic.Payment) { p.FeeItemID = "" }, "fee_item_id"},
		{"zero amount", func(p *generic.Payment) { p.AmountPaid = generic.Zero() }, "amount_paid"},
		{"negative amount", func(p *generic.Payment) { p.AmountPaid = generic.NewMoney(-5) }, "amount_paid"},
		{"missing date", func(p *generic.Payment) { p.DatePaid = generic.TimePoint{} }, "date_paid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pay("", 100, d(2024, time.January, 5))
			tt.edit(&p)

			err := ledger.Record(ctx, p)
			var invalid *generic.InvalidPaymentError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidPaymentError, got %v", err)
			}
			if invalid.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, invalid.Field)
			}
			if !generic.IsClientError(err) {
				t.Error("expected invalid payment to be a client error")
			}
		})
	}
}

func TestLedger_RecordBatchIsAtomic(t *testing.T) {
	// GIVEN: A batch whose last payment repeats an earlier key
	// WHEN: Recording the batch
	// THEN: Nothing from the batch is stored
	ctx := context.Background()
	ledger := newTestLedger()

	err := ledger.RecordBatch(ctx, []generic.Payment{
		pay("b1", 100, d(2024, time.January, 5)),
		pay("b2", 100, d(2024, time.February, 5)),
		pay("b1", 100, d(2024, time.March, 5)),
	})
	if !errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
		t.Fatalf("expected ErrDuplicateIdempotencyKey, got %v", err)
	}

	got, _ := ledger.Payments(ctx, "stu-1")
	if len(got) != 0 {
		t.Errorf("expected empty ledger after rejected batch, got %d payments", len(got))
	}
}

func TestLedger_PaidInPeriod(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()

	other := pay("other-fee", 999, d(2024, time.January, 20))
	other.FeeItemID = "transport"

	if err := ledger.RecordBatch(ctx, []generic.Payment{
		pay("jan-a", 500, d(2024, time.January, 1)),
		pay("jan-b", 700, d(2024, time.January, 31)),
		pay("feb", 900, d(2024, time.February, 1)),
		other,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paid, err := ledger.PaidInPeriod(ctx, "stu-1", "tuition", generic.MonthPeriod(2024, time.January))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paid.String() != "1200.00" {
		t.Errorf("expected 1200.00 paid in January, got %s", paid)
	}
}

func TestLatestPayment(t *testing.T) {
	if got := generic.LatestPayment(nil); !got.IsZero() {
		t.Errorf("expected zero time point, got %s", got)
	}

	got := generic.LatestPayment([]generic.Payment{
		pay("a", 1, d(2024, time.March, 1)),
		pay("b", 1, d(2024, time.June, 9)),
		pay("c", 1, d(2024, time.April, 1)),
	})
	if got.String() != "2024-06-09" {
		t.Errorf("expected 2024-06-09, got %s", got)
	}
}
