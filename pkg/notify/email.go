package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// Message is an HTML email
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}

// Mailer sends messages through an SMTP relay
type Mailer struct {
	host   string
	port   int
	logger zerolog.Logger
}

// NewMailer creates a mailer for the relay at host:port. The relay is used
// without authentication; STARTTLS is used when offered.
func NewMailer(host string, port int, logger zerolog.Logger) *Mailer {
	return &Mailer{
		host:   host,
		port:   port,
		logger: logger.With().Str("channel", "email").Logger(),
	}
}

func buildMsg(m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", m.From, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("invalid to address %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextHTML, m.HTMLBody)
	return msg, nil
}

// Send delivers a single message
func (s *Mailer) Send(ctx context.Context, m Message) error {
	msg, err := buildMsg(m)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("smtp client for %s:%d: %w", s.host, s.port, err)
	}

	s.logger.Debug().Str("to", m.To).Str("subject", m.Subject).Msg("sending email")
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email via %s:%d: %w", s.host, s.port, err)
	}
	return nil
}
