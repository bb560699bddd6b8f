package smtp

import (
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/nearnest/api/internal/config"
)

// Mailer delivers verification codes over email.
type Mailer interface {
	SendVerificationCode(to, code string, ttl time.Duration) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

// NewMailer returns a Mailer, or an error when SMTP credentials are absent.
// A missing mailer is an operational condition the caller surfaces per
// request, not a startup crash.
func NewMailer(cfg *config.Config) (Mailer, error) {
	if cfg.SMTPUsername == "" || cfg.SMTPPassword == "" {
		return nil, errors.New("smtp credentials not configured")
	}
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}, nil
}

func (m *mailer) SendVerificationCode(to, code string, ttl time.Duration) error {
	msg := buildMessage(m.from, to, code, ttl)
	addr := net.JoinHostPort(m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	return smtp.SendMail(addr, auth, m.from, []string{to}, msg)
}

const altBoundary = "=_nearnest_alt"

// buildMessage renders a multipart/alternative message with plain-text and
// HTML bodies carrying the code and its validity window.
func buildMessage(from, to, code string, ttl time.Duration) []byte {
	minutes := int(ttl.Minutes())

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Your NearNest verification code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", altBoundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", altBoundary)
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	fmt.Fprintf(&b, "Your verification code is %s.\r\n", code)
	fmt.Fprintf(&b, "It expires in %d minutes.\r\n", minutes)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", altBoundary)
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	fmt.Fprintf(&b, "<p>Your verification code is <strong>%s</strong>.</p>\r\n", code)
	fmt.Fprintf(&b, "<p>It expires in %d minutes.</p>\r\n", minutes)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", altBoundary)
	return []byte(b.String())
}
