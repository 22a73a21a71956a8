package mailer

import (
	"context"
	"fmt"
	"html"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/Windi-Fikriyansyah/skilllink/internal/config"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers through gomail. A new dial per message is fine at signup volume.
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg config.Config) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.MailFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// LogMailer only logs; it also keeps what it sent for inspection in dev and tests.
type LogMailer struct {
	logger *zerolog.Logger

	mu   sync.Mutex
	sent []Message
}

func NewLogMailer(logger *zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail not delivered (log mailer)")
	}
	return nil
}

func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

func (m *LogMailer) Last() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}

func VerificationEmail(to, name, link string) Message {
	return Message{
		To:      to,
		Subject: "Confirm your SkillLink account",
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Confirm your email to start using SkillLink:</p><p><a href="%s">Confirm email</a></p>`,
			html.EscapeString(name), html.EscapeString(link)),
	}
}

func PasswordResetEmail(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Reset your SkillLink password",
		HTML: fmt.Sprintf(`<p>Someone asked to reset the password for this account.</p><p><a href="%s">Choose a new password</a></p><p>If it was not you, ignore this email.</p>`,
			html.EscapeString(link)),
	}
}
