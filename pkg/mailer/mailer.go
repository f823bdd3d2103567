package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/ikkim/campus-backend/config"
	"github.com/ikkim/campus-backend/pkg/logger"
)

var (
	ErrDisabled         = errors.New("email sending is disabled")
	ErrNotConfigured    = errors.New("email sender is not configured")
	ErrInvalidRecipient = errors.New("invalid email recipient")
	ErrNoRecipients     = errors.New("no recipients")
)

// Sender delivers plain-text mail. Workers depend on this, not on SMTP.
type Sender interface {
	Send(to []string, subject, body string) error
	SendBCC(bcc []string, subject, body string) error
}

// SendFunc matches smtp.SendMail so tests can capture traffic.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	cfg  config.EmailConfig
	send SendFunc
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// WithSendFunc replaces the transport; used by tests.
func (m *SMTPMailer) WithSendFunc(fn SendFunc) *SMTPMailer {
	m.send = fn
	return m
}

func (m *SMTPMailer) Send(to []string, subject, body string) error {
	return m.deliver(to, false, subject, body)
}

// SendBCC addresses the message to the sender and hides every recipient.
func (m *SMTPMailer) SendBCC(bcc []string, subject, body string) error {
	return m.deliver(bcc, true, subject, body)
}

func (m *SMTPMailer) deliver(recipients []string, hidden bool, subject, body string) error {
	if !m.cfg.Enabled {
		logger.Debug("Email disabled, message dropped", map[string]interface{}{
			"subject":    subject,
			"recipients": len(recipients),
		})
		return ErrDisabled
	}
	if m.cfg.Host == "" || m.cfg.Port == 0 || m.cfg.From == "" {
		return ErrNotConfigured
	}
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	for _, r := range recipients {
		if _, err := mail.ParseAddress(r); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidRecipient, r)
		}
	}

	visibleTo := strings.Join(recipients, ", ")
	if hidden {
		visibleTo = m.cfg.From
	}
	msg := buildMessage(m.cfg.From, visibleTo, subject, body)

	var auth smtp.Auth
	if m.cfg.Username != "" || m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	if err := m.send(addr, auth, m.cfg.From, recipients, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("Email sent", map[string]interface{}{
		"subject":    subject,
		"recipients": len(recipients),
		"bcc":        hidden,
	})
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// WelcomeMessage renders the registration greeting.
func WelcomeMessage(username string) (subject, body string) {
	subject = "Welcome to Campus"
	body = fmt.Sprintf("Hi %s,\n\nYour account is ready. You can now browse courses, books and articles.\n", username)
	return subject, body
}
