package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/Dheelyte/studyflow/internal/core/port"
	"github.com/Dheelyte/studyflow/internal/infra/logger"
)

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, string, string, string) error { return nil }

// LoggingNotifier records outbound messages for observability without
// delivering them. Used in development when no mail transport is configured.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier constructs a notifier backed by structured logging.
func NewLoggingNotifier(log *zap.Logger) port.Notifier {
	if log == nil {
		return noopNotifier{}
	}
	return &LoggingNotifier{logger: log}
}

func (n *LoggingNotifier) Send(_ context.Context, recipient, subject, body string) error {
	if n == nil || n.logger == nil {
		return nil
	}

	n.logger.Info("dispatch notification",
		zap.String("recipient", logger.MaskEmail(recipient)),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}

var _ port.Notifier = (*LoggingNotifier)(nil)
