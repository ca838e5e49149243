// Package notify emails the user a digest when a sync pass produces new
// or changed application records.
package notify

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jobtrail/jobtrail/internal/config"
	"github.com/jobtrail/jobtrail/internal/record"
)

type Message struct {
	To      string
	From    string
	Subject string
	Body    string
}

type Result struct {
	Success   bool
	MessageID string
	Error     error
}

type Sender interface {
	Send(ctx context.Context, msg Message) Result
	Name() string
}

func NewSender(cfg config.NotifyConfig) (Sender, error) {
	switch cfg.Provider {
	case "resend":
		return NewResendSender(cfg.APIKey), nil
	case "sendgrid":
		return NewSendgridSender(cfg.APIKey), nil
	case "smtp", "":
		return NewSMTPSender(cfg.SMTP), nil
	}
	return nil, fmt.Errorf("unknown notification provider: %s", cfg.Provider)
}

// ValidateEmail checks for injection characters and RFC 5322 compliance.
func ValidateEmail(email string) error {
	if strings.ContainsAny(email, "\r\n,;") {
		return fmt.Errorf("email contains invalid characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	return nil
}

func validateMessage(msg Message) error {
	if err := ValidateEmail(msg.From); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if err := ValidateEmail(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("subject contains invalid characters")
	}
	return nil
}

// Notifier turns record updates into a digest email.
type Notifier struct {
	sender Sender
	from   string
	to     string
}

func NewNotifier(cfg config.NotifyConfig) (*Notifier, error) {
	sender, err := NewSender(cfg)
	if err != nil {
		return nil, err
	}
	return &Notifier{sender: sender, from: cfg.From, to: cfg.To}, nil
}

// NotifyUpdates sends one digest covering the whole batch. An empty batch
// is a no-op.
func (n *Notifier) NotifyUpdates(ctx context.Context, updates []record.ApplicationRecord) error {
	if len(updates) == 0 {
		return nil
	}

	msg := Message{
		To:      n.to,
		From:    n.from,
		Subject: digestSubject(len(updates)),
		Body:    digestBody(updates),
	}
	result := n.sender.Send(ctx, msg)
	if !result.Success {
		return fmt.Errorf("%s send failed: %w", n.sender.Name(), result.Error)
	}
	return nil
}

func digestSubject(n int) string {
	if n == 1 {
		return "1 job application update"
	}
	return fmt.Sprintf("%d job application updates", n)
}

func digestBody(updates []record.ApplicationRecord) string {
	var b strings.Builder
	b.WriteString("Your job application tracker found the following updates:\n\n")
	for _, r := range updates {
		fmt.Fprintf(&b, "- %s, %s: %s\n", r.CompanyName, r.JobProfile, r.ApplicationStatus)
	}
	return b.String()
}
