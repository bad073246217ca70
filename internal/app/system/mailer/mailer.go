// internal/app/system/mailer/mailer.go
package mailer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Email is a single outgoing message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email.
type Sender interface {
	Send(e Email) error
}

// Config holds the SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// Mailer sends email over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	name   string
	logger *zap.Logger
}

// New returns a Mailer for cfg.
func New(cfg Config, logger *zap.Logger) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mailer: smtp host is empty")
	}
	if cfg.From == "" {
		return nil, errors.New("mailer: from address is empty")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.User, cfg.Password),
		from:   cfg.From,
		name:   cfg.FromName,
		logger: logger,
	}, nil
}

// Send delivers e. Each call opens its own SMTP connection.
func (m *Mailer) Send(e Email) error {
	if e.To == "" {
		return errors.New("mailer: recipient is empty")
	}
	if err := m.dialer.DialAndSend(m.message(e)); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", e.To, err)
	}
	m.logger.Info("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

func (m *Mailer) message(e Email) *gomail.Message {
	msg := gomail.NewMessage()
	if m.name != "" {
		msg.SetAddressHeader("From", m.from, m.name)
	} else {
		msg.SetHeader("From", m.from)
	}
	msg.SetHeader("To", e.To)
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/plain", e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternative("text/html", e.HTMLBody)
	}
	return msg
}

// LogSender logs messages instead of sending them. Used when no SMTP host
// is configured.
type LogSender struct {
	Logger *zap.Logger
}

func (l LogSender) Send(e Email) error {
	l.Logger.Info("email not sent (no smtp host configured)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("body", e.TextBody))
	return nil
}
