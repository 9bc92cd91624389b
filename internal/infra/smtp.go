package infra

import (
	"fmt"
	"net/smtp"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends HTML mail with optional file attachments over SMTP.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// SendHTML delivers one message. attachments are file paths.
func (m *Mailer) SendHTML(to []string, subject, html string, attachments ...string) error {
	if len(to) == 0 {
		return fmt.Errorf("mailer: no recipients")
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = to
	e.Subject = subject
	e.HTML = []byte(html)

	for _, path := range attachments {
		if _, err := e.AttachFile(path); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", path, err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
