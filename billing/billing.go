/*
Package billing decides whether a tenant (a school) is locked out for unpaid
platform invoices.

PURPOSE:
  The platform bills each tenant on a schedule. A tenant with any PENDING
  schedule whose due date has passed is "billing overdue" and its
  tenant-scoped API routes answer 402 until the schedule is paid.

RULE:
  overdue(schedule, today) = status != PAID && dueDate < today

  A schedule due today is not overdue yet. When several schedules are
  overdue, OverdueFrom is the earliest due date and Amount their sum.

SEE ALSO:
  - generic/errors.go: BillingOverdueError
  - api/server.go: BillingGate middleware
  - api/scheduler.go: Overdue sweep, skips gated tenants
*/
package billing

import (
	"context"
	"sort"

	"github.com/warp/dues-engine/generic"
)

// =============================================================================
// TYPES
// =============================================================================

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
)

// Tenant is a school using the platform.
type Tenant struct {
	ID        generic.TenantID
	Name      string
	CreatedAt generic.TimePoint
}

// Schedule is one invoice the platform issues to a tenant.
type Schedule struct {
	ID          string
	TenantID    generic.TenantID
	Description string
	Amount      generic.Money
	DueDate     generic.TimePoint
	Status      Status
	PaidAt      generic.TimePoint
}

// IsOverdue reports whether the schedule is unpaid past its due date.
func (s Schedule) IsOverdue(today generic.TimePoint) bool {
	return s.Status != StatusPaid && s.DueDate.Before(today)
}

// TenantStatus is the evaluated billing state of one tenant.
type TenantStatus struct {
	TenantID    generic.TenantID
	Overdue     bool
	OverdueFrom generic.TimePoint
	Amount      generic.Money
	Schedules   []Schedule // overdue schedules, oldest first
}

// Evaluate folds a tenant's schedules into its status as of today.
func Evaluate(tenantID generic.TenantID, schedules []Schedule, today generic.TimePoint) TenantStatus {
	st := TenantStatus{TenantID: tenantID, Amount: generic.Zero()}
	for _, s := range schedules {
		if !s.IsOverdue(today) {
			continue
		}
		st.Schedules = append(st.Schedules, s)
		st.Amount = st.Amount.Add(s.Amount)
	}
	if len(st.Schedules) == 0 {
		return st
	}

	sort.SliceStable(st.Schedules, func(i, j int) bool {
		return st.Schedules[i].DueDate.Before(st.Schedules[j].DueDate)
	})
	st.Overdue = true
	st.OverdueFrom = st.Schedules[0].DueDate
	return st
}

// Err returns a *generic.BillingOverdueError when the tenant is gated.
func (st TenantStatus) Err() error {
	if !st.Overdue {
		return nil
	}
	return &generic.BillingOverdueError{
		TenantID:    st.TenantID,
		OverdueFrom: st.OverdueFrom,
		Amount:      st.Amount,
	}
}

// =============================================================================
// GATE
// =============================================================================

// ScheduleSource loads a tenant's billing schedules.
type ScheduleSource interface {
	ListBillingSchedules(ctx context.Context, tenantID generic.TenantID) ([]Schedule, error)
}

// Gate checks tenants against their stored schedules.
type Gate struct {
	Source ScheduleSource
	Now    func() generic.TimePoint
}

func NewGate(source ScheduleSource) *Gate {
	return &Gate{Source: source, Now: generic.Today}
}

// Status evaluates the tenant as of today.
func (g *Gate) Status(ctx context.Context, tenantID generic.TenantID) (TenantStatus, error) {
	schedules, err := g.Source.ListBillingSchedules(ctx, tenantID)
	if err != nil {
		return TenantStatus{}, err
	}
	return Evaluate(tenantID, schedules, g.Now()), nil
}

// Check returns nil when the tenant may proceed, a BillingOverdueError when
// it is gated, or the load error.
func (g *Gate) Check(ctx context.Context, tenantID generic.TenantID) error {
	st, err := g.Status(ctx, tenantID)
	if err != nil {
		return err
	}
	return st.Err()
}
