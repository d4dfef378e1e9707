package mail

import (
	"context"
	"log/slog"
)

// LogMailer is a mailer implementation that logs messages instead of sending
// them. Used in development when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a new log-only mailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Name returns the name of this mailer.
func (m *LogMailer) Name() string {
	return "log"
}

// Send logs the message details and always succeeds.
func (m *LogMailer) Send(ctx context.Context, msg *Message) error {
	m.logger.InfoContext(ctx, "log mailer: email not sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("body_bytes", len(msg.Body)),
	)
	return nil
}
