package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendgridSender struct {
	client *sendgrid.Client
}

func NewSendgridSender(apiKey string) *SendgridSender {
	return &SendgridSender{client: sendgrid.NewSendClient(apiKey)}
}

func (s *SendgridSender) Name() string { return "sendgrid" }

func (s *SendgridSender) Send(ctx context.Context, msg Message) Result {
	if err := validateMessage(msg); err != nil {
		return Result{Success: false, Error: err}
	}

	m := sgmail.NewSingleEmail(
		sgmail.NewEmail("", msg.From),
		msg.Subject,
		sgmail.NewEmail("", msg.To),
		msg.Body,
		"",
	)
	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return Result{Success: false, Error: err}
	}
	if resp.StatusCode >= 300 {
		return Result{Success: false, Error: fmt.Errorf("sendgrid returned status %d", resp.StatusCode)}
	}

	id := ""
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		id = ids[0]
	}
	return Result{Success: true, MessageID: id}
}
