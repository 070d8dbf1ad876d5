package notify

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/forms-intake/internal/common"
)

// Mailer delivers one plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends through a relay with optional PLAIN auth.
type SMTPMailer struct {
	cfg    common.MailConfig
	from   string
	logger *slog.Logger
}

func NewSMTPMailer(cfg common.MailConfig, logger *slog.Logger) (*SMTPMailer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Server == "" {
		return nil, common.ConfigError("SMTP_SERVER is required for the notifier")
	}
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, common.ConfigError(fmt.Sprintf("invalid SMTP_FROM %q", cfg.From))
	}
	return &SMTPMailer{cfg: cfg, from: from.Address, logger: logger}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	addr := net.JoinHostPort(m.cfg.Server, strconv.Itoa(m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Server)
	}

	msg := buildMessage(m.cfg.From, rcpt.Address, subject, body, time.Now())
	start := time.Now()
	if err := smtp.SendMail(addr, auth, m.from, []string{rcpt.Address}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.logger.Debug("smtp.sent", "to", rcpt.Address, "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

func buildMessage(from, to, subject, body string, at time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("Date: " + at.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}
