package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/techblog/internal/config"
)

// SMTP - отправка через net/smtp с PLAIN-аутентификацией (STARTTLS, если сервер его объявляет).
type SMTP struct {
	addr string
	host string
	from string
	auth smtp.Auth

	// send подменяется в тестах.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP создаёт отправителя. Без host/username/password - ErrNotConfigured.
func NewSMTP(cfg config.MailConfig) (*SMTP, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &SMTP{
		addr: cfg.Addr(),
		host: cfg.Host,
		from: from,
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		send: smtp.SendMail,
	}, nil
}

// Send отправляет письмо. net/smtp не принимает контекст, поэтому отмена проверяется только до отправки.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	const op = "mail.SMTP.Send"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.ReplyTo, "\r\n") {
		return fmt.Errorf("%s: invalid recipient", op)
	}

	if err := s.send(s.addr, s.auth, s.from, []string{msg.To}, s.build(msg, time.Now())); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// build собирает MIME-сообщение text/html в UTF-8.
func (s *SMTP) build(msg Message, now time.Time) []byte {
	var b bytes.Buffer

	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }

	header("From", s.from)
	header("To", msg.To)
	if msg.ReplyTo != "" {
		header("Reply-To", msg.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), s.host))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.HTML, "\n", "\r\n"))

	return b.Bytes()
}
