package chores

import (
	"context"
	"log/slog"
)

// Sender delivers outbound messages. The SMS gateway integration lives
// behind this seam; the bot logic never talks to a provider directly.
type Sender interface {
	Send(ctx context.Context, phone, body string) error
}

// LogSender writes outbound messages to the log instead of a gateway.
// Useful for local runs and as the default when no provider is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, phone, body string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("outbound message", "to", phone, "body", body)
	return nil
}
