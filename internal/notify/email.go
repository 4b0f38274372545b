package notify

import (
	"context"

	"gopkg.in/gomail.v2"
)

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers plain-text email through an SMTP relay.
type SMTPSender struct {
	dialer mailDialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	// gomail has no context support; stop waiting once ctx is done
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
