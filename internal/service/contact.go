package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/techblog/internal/mail"
	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/pkg/log"
	"github.com/pribylovaa/techblog/internal/pkg/redact"
)

// Порядок полей задаёт порядок проверок.
type contactInput struct {
	Email   string `validate:"required,email,max=254"`
	Name    string `validate:"required,min=2,max=100"`
	Subject string `validate:"required,min=5,max=200"`
	Message string `validate:"required,min=10,max=2000"`
}

// SubmitContact отправляет сообщение владельцу сайта и автоответ отправителю.
func (s *Service) SubmitContact(ctx context.Context, f models.ContactForm) error {
	const op = "service.contact.SubmitContact"

	in := contactInput{
		Email:   strings.TrimSpace(f.Email),
		Name:    strings.TrimSpace(f.Name),
		Subject: strings.TrimSpace(f.Subject),
		Message: strings.TrimSpace(f.Message),
	}
	if err := check(in, "All fields are required", map[string]string{
		"Email":   "Please provide a valid email address",
		"Name":    "Name must be between 2 and 100 characters",
		"Subject": "Subject must be between 5 and 200 characters",
		"Message": "Message must be between 10 and 2000 characters",
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.mailer == nil {
		return fmt.Errorf("%s: %w", op, ErrMailUnavailable)
	}

	msgs, err := mail.ContactMessages(s.cfg.Mail.Owner, models.ContactForm{
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Message: in.Message,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.mailer.Dispatch(ctx, msgs...); err != nil {
		log.From(ctx).Error("contact_mail_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(in.Email)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrMailUnavailable)
	}

	return nil
}
