// Package notify contains the Notifier implementations used by the
// notification dispatcher.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/quod-portal/account-service/internal/core/ports"
)

const sendEndpoint = "/v3/mail/send"

// SendGridConfig captures the settings needed to talk to the SendGrid v3 API.
type SendGridConfig struct {
	APIKey   string
	FromName string
	FromAddr string
	// Host overrides the API host; empty means the public endpoint.
	Host string
}

// SendGridNotifier sends notifications as HTML email through SendGrid.
type SendGridNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridNotifier(cfg SendGridConfig) *SendGridNotifier {
	req := sendgrid.GetRequest(cfg.APIKey, sendEndpoint, cfg.Host)
	req.Method = "POST"
	return &SendGridNotifier{
		client: &sendgrid.Client{Request: req},
		from:   mail.NewEmail(cfg.FromName, cfg.FromAddr),
	}
}

// Send delivers n. Any non-2xx response is reported as an error.
func (s *SendGridNotifier) Send(ctx context.Context, n ports.Notification) error {
	m := mail.NewV3Mail()
	m.SetFrom(s.from)
	m.Subject = n.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", n.To))
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/html", n.HTML))

	// SendWithContext writes the body into the client, so each call works on a copy.
	client := *s.client
	resp, err := client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogNotifier writes notifications to the log instead of sending them.
// It is used when no SendGrid API key is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Send(_ context.Context, n ports.Notification) error {
	l.log.Info().
		Str("kind", string(n.Kind)).
		Str("to", n.To).
		Str("subject", n.Subject).
		Msg("email delivery disabled, notification logged")
	return nil
}
