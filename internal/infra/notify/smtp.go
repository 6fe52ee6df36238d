package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/Dheelyte/studyflow/internal/core/port"
	"github.com/Dheelyte/studyflow/internal/infra/config"
	"github.com/Dheelyte/studyflow/internal/infra/logger"
)

// SMTPNotifier delivers plain-text mail through a configured SMTP relay.
type SMTPNotifier struct {
	cfg    config.SMTPSettings
	logger *zap.Logger
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier constructs a notifier that sends mail via net/smtp.
func NewSMTPNotifier(cfg config.SMTPSettings, log *zap.Logger) (*SMTPNotifier, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("smtp notifier: host is not configured")
	}
	return &SMTPNotifier{cfg: cfg, logger: log, send: smtp.SendMail}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return fmt.Errorf("smtp notifier: recipient is required")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.send(addr, auth, n.cfg.From, []string{recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", logger.MaskEmail(recipient), err)
	}

	n.logger.Debug("mail sent",
		zap.String("recipient", logger.MaskEmail(recipient)),
		zap.String("subject", subject),
	)
	return nil
}

var _ port.Notifier = (*SMTPNotifier)(nil)
