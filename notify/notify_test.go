package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/dues-engine/generic"
)

func reminder() Reminder {
	return Reminder{
		TenantID:    "school-1",
		StudentID:   "stu-1",
		StudentName: "Ada",
		To:          "parent@example.com",
		AsOf:        generic.NewTimePoint(2024, time.March, 15),
		Outstanding: generic.MustMoney("4100"),
		LateFee:     generic.MustMoney("100"),
	}
}

func TestBuildReminder(t *testing.T) {
	e := BuildReminder("bursar@school.test", reminder())

	assert.Equal(t, "bursar@school.test", e.From)
	assert.Equal(t, []string{"parent@example.com"}, e.To)
	assert.Contains(t, e.Subject, "Ada")
	body := string(e.Text)
	assert.Contains(t, body, "2024-03-15")
	assert.Contains(t, body, "4100.00")
	assert.Contains(t, body, "late fees of 100.00")
}

func TestEmailSender_SendsThroughSMTP(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewEmailSender(SMTPConfig{Host: "smtp.test", Port: 2525, Username: "u", Password: "p", SenderEmail: "bursar@school.test"}, logger)

	var gotAddr string
	var gotMail *email.Email
	s.send = func(e *email.Email, addr string, _ smtp.Auth) error {
		gotAddr, gotMail = addr, e
		return nil
	}

	require.NoError(t, s.SendDuesReminder(context.Background(), reminder()))
	assert.Equal(t, "smtp.test:2525", gotAddr)
	require.NotNil(t, gotMail)
	assert.Equal(t, "dues reminder sent", hook.LastEntry().Message)
}

func TestEmailSender_PropagatesFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewEmailSender(SMTPConfig{Host: "smtp.test", Port: 25}, logger)
	s.send = func(*email.Email, string, smtp.Auth) error { return errors.New("connection refused") }

	err := s.SendDuesReminder(context.Background(), reminder())
	assert.Error(t, err)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestEmailSender_RequiresRecipient(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewEmailSender(SMTPConfig{Host: "smtp.test", Port: 25}, logger)
	s.send = func(*email.Email, string, smtp.Auth) error {
		t.Fatal("must not send without a recipient")
		return nil
	}

	r := reminder()
	r.To = ""
	assert.ErrorIs(t, s.SendDuesReminder(context.Background(), r), generic.ErrInvalidInput)
}

func TestNew_FallsBackToLog(t *testing.T) {
	logger, hook := test.NewNullLogger()

	n := New(SMTPConfig{}, logger)
	_, isLog := n.(*LogNotifier)
	require.True(t, isLog)

	require.NoError(t, n.SendDuesReminder(context.Background(), reminder()))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "4100.00", entry.Data["outstanding"])

	_, isEmail := New(SMTPConfig{Host: "smtp.test"}, logger).(*EmailSender)
	assert.True(t, isEmail)
}
