// Package notify sends dues reminders to guardians.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/warp/dues-engine/generic"
)

// Reminder is one student's overdue dues as of a date.
type Reminder struct {
	TenantID     generic.TenantID
	StudentID    generic.StudentID
	StudentName  string
	To           string
	AsOf         generic.TimePoint
	Outstanding  generic.Money
	LateFee      generic.Money
	MonthsBilled int
}

// Notifier delivers reminders.
type Notifier interface {
	SendDuesReminder(ctx context.Context, r Reminder) error
}

// SMTPConfig holds the outgoing mail settings.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	SenderEmail string
}

// New returns an SMTP notifier, or a log-only notifier when no SMTP host is
// configured.
func New(cfg SMTPConfig, logger *logrus.Logger) Notifier {
	if cfg.Host == "" {
		return NewLogNotifier(logger)
	}
	return NewEmailSender(cfg, logger)
}

// =============================================================================
// EMAIL
// =============================================================================

// EmailSender handles sending reminders via SMTP.
type EmailSender struct {
	cfg    SMTPConfig
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewEmailSender(cfg SMTPConfig, logger *logrus.Logger) *EmailSender {
	return &EmailSender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendDuesReminder sends an overdue dues reminder.
func (s *EmailSender) SendDuesReminder(_ context.Context, r Reminder) error {
	if r.To == "" {
		return errors.Wrapf(generic.ErrInvalidInput, "student %s has no guardian email", r.StudentID)
	}

	e := BuildReminder(s.cfg.SenderEmail, r)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := s.send(e, addr, auth); err != nil {
		s.logger.WithFields(logrus.Fields{
			"student_id": r.StudentID,
			"to":         r.To,
		}).WithError(err).Error("failed to send dues reminder")
		return errors.Wrap(err, "failed to send email")
	}

	s.logger.WithFields(logrus.Fields{
		"student_id":  r.StudentID,
		"to":          r.To,
		"outstanding": r.Outstanding.String(),
	}).Info("dues reminder sent")
	return nil
}

// BuildReminder formats the reminder email.
func BuildReminder(from string, r Reminder) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{r.To}
	e.Subject = fmt.Sprintf("Overdue school fees for %s", r.StudentName)

	var body strings.Builder
	fmt.Fprintf(&body, "Dear Parent/Guardian,\n\n")
	fmt.Fprintf(&body, "As of %s the fees for %s are overdue.\n", r.AsOf, r.StudentName)
	fmt.Fprintf(&body, "Outstanding balance: %s\n", r.Outstanding)
	if r.LateFee.IsPositive() {
		fmt.Fprintf(&body, "This includes late fees of %s.\n", r.LateFee)
	}
	body.WriteString("Please settle the balance as soon as possible to avoid further late fees.\n")
	body.WriteString("\nBest regards,\nThe Bursar's Office")
	e.Text = []byte(body.String())
	return e
}

// =============================================================================
// LOG ONLY
// =============================================================================

// LogNotifier records reminders in the log instead of sending them.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendDuesReminder(_ context.Context, r Reminder) error {
	n.logger.WithFields(logrus.Fields{
		"tenant_id":   r.TenantID,
		"student_id":  r.StudentID,
		"to":          r.To,
		"outstanding": r.Outstanding.String(),
		"late_fee":    r.LateFee.String(),
	}).Info("dues reminder (smtp not configured)")
	return nil
}
