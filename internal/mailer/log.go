package mailer

import (
	"context"
	"errors"

	"codegram-backend/pkg/logger"
)

var ErrNotConfigured = errors.New("mail provider not configured")

// LogMailer stands in for SendGrid when no API key is set. In development it
// logs the full message so links can be followed from the console; otherwise
// it refuses to pretend the mail went out.
type LogMailer struct {
	dev bool
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger, dev bool) *LogMailer {
	return &LogMailer{dev: dev, log: log.With("component", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.dev {
		m.log.Error("Email not sent", "to", to, "subject", subject, "error", ErrNotConfigured)
		return ErrNotConfigured
	}
	m.log.Info("Email (dev, not delivered)", "to", to, "subject", subject, "body", body)
	return nil
}
