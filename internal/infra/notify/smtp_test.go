package notify

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Dheelyte/studyflow/internal/infra/config"
)

func TestSMTPNotifierRequiresHost(t *testing.T) {
	if _, err := NewSMTPNotifier(config.SMTPSettings{}, zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestSMTPNotifierSendsFormattedMessage(t *testing.T) {
	notifier, err := NewSMTPNotifier(config.SMTPSettings{
		Host: "mail.example.com",
		Port: 587,
		From: "no-reply@example.com",
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewSMTPNotifier returned error: %v", err)
	}

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	notifier.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotFrom = from
		gotTo = to
		gotMsg = string(msg)
		return nil
	}

	err = notifier.Send(context.Background(), "jane@example.com", "Password reset code", "Your code is 000042")
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if gotAddr != "mail.example.com:587" {
		t.Fatalf("unexpected addr: %s", gotAddr)
	}
	if gotFrom != "no-reply@example.com" {
		t.Fatalf("unexpected from: %s", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "jane@example.com" {
		t.Fatalf("unexpected recipients: %v", gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Password reset code") {
		t.Fatalf("message missing subject header: %q", gotMsg)
	}
	if !strings.Contains(gotMsg, "Your code is 000042") {
		t.Fatalf("message missing body: %q", gotMsg)
	}
}

func TestSMTPNotifierRejectsEmptyRecipient(t *testing.T) {
	notifier, err := NewSMTPNotifier(config.SMTPSettings{
		Host: "mail.example.com",
		Port: 587,
		From: "no-reply@example.com",
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewSMTPNotifier returned error: %v", err)
	}

	if err := notifier.Send(context.Background(), "   ", "subject", "body"); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}
