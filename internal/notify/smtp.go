package notify

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
}

// SMTPMailer delivers rendered messages over SMTP.
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

// NewSMTPMailer constructs the mailer. It does not connect until Send.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.FromAddress,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send mails msg to every recipient in one message.
func (s *SMTPMailer) Send(to []string, msg Message) error {
	if len(to) == 0 {
		return nil
	}
	if err := s.dialer.DialAndSend(buildMessage(s.from, to, msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func buildMessage(from string, to []string, msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Plain)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m
}
