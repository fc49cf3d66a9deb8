/*
scheduler.go - Overdue dues sweep

PURPOSE:
  Periodically walks every student, derives their dues as of today and
  sends a reminder to the guardian of each student who owes money with a
  late fee accrued. Tenants gated for overdue platform billing are logged
  and skipped.

DESIGN:
  - Runs on a cron schedule (robfig/cron, e.g. "@hourly" or "0 7 * * *")
  - Dues are derived, never stored, so a sweep has no side effects other
    than the reminders it sends
  - Overlapping runs are skipped, not queued
  - Scheduled runs are bounded by Timeout (default 5m)

USAGE:
  sweep := NewOverdueSweep(handler, notifier, "@hourly")
  sweep.Start()
  // ... later
  sweep.Stop()

SEE ALSO:
  - handlers.go: RunSweep endpoint (manual trigger)
  - notify/notify.go: Reminder delivery
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/warp/dues-engine/dues"
	"github.com/warp/dues-engine/generic"
	"github.com/warp/dues-engine/notify"
)

// SweepResult counts what one sweep did.
type SweepResult struct {
	AsOf            generic.TimePoint
	TenantsChecked  int
	TenantsOverdue  int
	StudentsChecked int
	StudentsOverdue int
	RemindersSent   int
	Failures        int
}

// DefaultSweepTimeout bounds one scheduled sweep.
const DefaultSweepTimeout = 5 * time.Minute

// OverdueSweep sends dues reminders on a schedule.
type OverdueSweep struct {
	Handler  *Handler
	Notifier notify.Notifier
	Schedule string
	Timeout  time.Duration

	cron    *cron.Cron
	running sync.Mutex
	mu      sync.Mutex
}

func NewOverdueSweep(h *Handler, n notify.Notifier, schedule string) *OverdueSweep {
	return &OverdueSweep{Handler: h, Notifier: n, Schedule: schedule, Timeout: DefaultSweepTimeout}
}

// Start registers the sweep with cron and starts it.
func (s *OverdueSweep) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.Schedule, func() { s.runScheduled() }); err != nil {
		return errors.Wrapf(err, "invalid sweep schedule %q", s.Schedule)
	}
	c.Start()
	s.cron = c

	s.Handler.Logger.WithField("schedule", s.Schedule).Info("overdue sweep started")
	return nil
}

// Stop stops the cron and waits for a running sweep to finish.
func (s *OverdueSweep) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.Handler.Logger.Info("overdue sweep stopped")
}

// runScheduled is the cron job: one sweep under a fresh timeout.
func (s *OverdueSweep) runScheduled() SweepResult {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()
	return s.RunNow(ctx)
}

// RunNow runs one sweep. If a sweep is already running it returns an empty
// result immediately.
func (s *OverdueSweep) RunNow(ctx context.Context) SweepResult {
	h := s.Handler
	res := SweepResult{AsOf: h.Now()}

	if !s.running.TryLock() {
		h.Logger.Warn("overdue sweep already running, skipping")
		return res
	}
	defer s.running.Unlock()

	log := h.Logger.WithField("as_of", res.AsOf.String())

	students, err := h.Store.ListStudents(ctx, "")
	if err != nil {
		log.WithError(err).Error("overdue sweep: failed to list students")
		res.Failures++
		return res
	}

	gated := make(map[generic.TenantID]bool)
	for _, st := range students {
		blocked, seen := gated[st.TenantID]
		if !seen {
			blocked = s.tenantGated(ctx, st.TenantID, &res, log)
			gated[st.TenantID] = blocked
		}
		if blocked {
			continue
		}

		res.StudentsChecked++
		monthly, err := h.computeDues(ctx, st, res.AsOf)
		if err != nil {
			log.WithError(err).WithField("student_id", st.ID).Error("overdue sweep: failed to compute dues")
			res.Failures++
			continue
		}
		summary := dues.Summarize(monthly, res.AsOf)
		if !summary.IsOverdue() {
			continue
		}
		res.StudentsOverdue++

		if st.GuardianEmail == "" {
			log.WithField("student_id", st.ID).Debug("overdue student has no guardian email")
			continue
		}
		err = s.Notifier.SendDuesReminder(ctx, notify.Reminder{
			TenantID:     st.TenantID,
			StudentID:    st.ID,
			StudentName:  st.Name,
			To:           st.GuardianEmail,
			AsOf:         res.AsOf,
			Outstanding:  summary.Outstanding,
			LateFee:      summary.TotalLateFee,
			MonthsBilled: summary.Months,
		})
		if err != nil {
			res.Failures++
			continue
		}
		res.RemindersSent++
	}

	log.WithFields(logrus.Fields{
		"tenants_checked":  res.TenantsChecked,
		"tenants_overdue":  res.TenantsOverdue,
		"students_checked": res.StudentsChecked,
		"students_overdue": res.StudentsOverdue,
		"reminders_sent":   res.RemindersSent,
		"failures":         res.Failures,
	}).Info("overdue sweep finished")
	return res
}

func (s *OverdueSweep) tenantGated(ctx context.Context, tenantID generic.TenantID, res *SweepResult, log *logrus.Entry) bool {
	res.TenantsChecked++
	st, err := s.Handler.Gate.Status(ctx, tenantID)
	if err != nil {
		log.WithError(err).WithField("tenant_id", tenantID).Error("overdue sweep: failed to check tenant billing")
		res.Failures++
		return true
	}
	if !st.Overdue {
		return false
	}

	res.TenantsOverdue++
	var overdue *generic.BillingOverdueError
	if errors.As(st.Err(), &overdue) {
		log.WithFields(logrus.Fields{
			"tenant_id":    tenantID,
			"overdue_from": overdue.OverdueFrom.String(),
			"amount":       overdue.Amount.String(),
		}).Warn("tenant billing overdue, reminders suspended")
	}
	return true
}
