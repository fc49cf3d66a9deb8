package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/dues-engine/billing"
	"github.com/warp/dues-engine/generic"
)

type fakeSource struct {
	schedules map[generic.TenantID][]billing.Schedule
	err       error
}

func (f *fakeSource) ListBillingSchedules(_ context.Context, id generic.TenantID) ([]billing.Schedule, error) {
	return f.schedules[id], f.err
}

func day(m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(2024, m, d)
}

func schedule(id string, amount int64, due generic.TimePoint, status billing.Status) billing.Schedule {
	return billing.Schedule{ID: id, TenantID: "school-1", Amount: generic.NewMoney(amount), DueDate: due, Status: status}
}

func TestSchedule_IsOverdue(t *testing.T) {
	s := schedule("inv-1", 500, day(time.March, 10), billing.StatusPending)

	assert.False(t, s.IsOverdue(day(time.March, 9)))
	assert.False(t, s.IsOverdue(day(time.March, 10)), "due today is not overdue")
	assert.True(t, s.IsOverdue(day(time.March, 11)))

	s.Status = billing.StatusPaid
	assert.False(t, s.IsOverdue(day(time.December, 31)))
}

func TestEvaluate_AggregatesOverdueSchedules(t *testing.T) {
	// GIVEN: Two unpaid past-due invoices, one paid, one not yet due
	schedules := []billing.Schedule{
		schedule("inv-3", 300, day(time.March, 1), billing.StatusPending),
		schedule("inv-1", 100, day(time.January, 1), billing.StatusPending),
		schedule("inv-2", 200, day(time.February, 1), billing.StatusPaid),
		schedule("inv-4", 400, day(time.June, 1), billing.StatusPending),
	}

	// WHEN: Evaluated in April
	st := billing.Evaluate("school-1", schedules, day(time.April, 15))

	// THEN: Gated since January for 400
	assert.True(t, st.Overdue)
	assert.Equal(t, "2024-01-01", st.OverdueFrom.String())
	assert.Equal(t, "400.00", st.Amount.String())
	require.Len(t, st.Schedules, 2)
	assert.Equal(t, "inv-1", st.Schedules[0].ID)

	var overdue *generic.BillingOverdueError
	require.ErrorAs(t, st.Err(), &overdue)
	assert.Equal(t, generic.TenantID("school-1"), overdue.TenantID)
	assert.ErrorIs(t, st.Err(), generic.ErrBillingOverdue)
}

func TestEvaluate_NoSchedules(t *testing.T) {
	st := billing.Evaluate("school-1", nil, day(time.April, 15))

	assert.False(t, st.Overdue)
	assert.True(t, st.Amount.IsZero())
	assert.NoError(t, st.Err())
}

func TestGate_Check(t *testing.T) {
	src := &fakeSource{schedules: map[generic.TenantID][]billing.Schedule{
		"late-school": {schedule("inv-1", 100, day(time.January, 1), billing.StatusPending)},
		"good-school": {schedule("inv-2", 100, day(time.January, 1), billing.StatusPaid)},
	}}
	gate := billing.NewGate(src)
	gate.Now = func() generic.TimePoint { return day(time.February, 1) }

	ctx := context.Background()
	assert.ErrorIs(t, gate.Check(ctx, "late-school"), generic.ErrBillingOverdue)
	assert.NoError(t, gate.Check(ctx, "good-school"))
	assert.NoError(t, gate.Check(ctx, "unknown-school"))
}

func TestGate_PropagatesLoadError(t *testing.T) {
	boom := errors.New("db down")
	gate := billing.NewGate(&fakeSource{err: boom})

	err := gate.Check(context.Background(), "school-1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, generic.ErrBillingOverdue)
}
