// Package notify delivers best-effort email notifications. Delivery must
// never block or fail the request that triggered it: sends run on their own
// goroutine and failures are only logged.
package notify

import (
	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"
)

type Notifier interface {
	Notify(recipient, subject, body string)
}

// Mailer sends notifications over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	log    zerolog.Logger
}

func NewMailer(host string, port int, username, password, from string, log zerolog.Logger) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		log:    log,
	}
}

func (m *Mailer) Notify(recipient, subject, body string) {
	go func() {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.from)
		msg.SetHeader("To", recipient)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/plain", body)

		if err := m.dialer.DialAndSend(msg); err != nil {
			m.log.Error().
				Err(err).
				Str("recipient", recipient).
				Str("subject", subject).
				Msg("notification delivery failed")
		}
	}()
}

// Nop discards notifications. Used when SMTP is not configured and in tests.
type Nop struct{}

func (Nop) Notify(string, string, string) {}
