package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/techblog/internal/mail"
	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/pkg/log"
	"github.com/pribylovaa/techblog/internal/pkg/redact"
	"github.com/pribylovaa/techblog/internal/storage"
)

type emailInput struct {
	Email string `validate:"required,email,max=254"`
}

// Subscribe подписывает адрес на рассылку: новый адрес сохраняется,
// неактивный включается снова, активный даёт ErrAlreadySubscribed.
// После записи отправляются приветствие и уведомление владельцу.
func (s *Service) Subscribe(ctx context.Context, email string) error {
	const op = "service.newsletter.Subscribe"

	in := emailInput{Email: strings.ToLower(strings.TrimSpace(email))}
	if err := check(in, "Email is required", map[string]string{
		"Email": "Please provide a valid email address",
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.mailer == nil {
		return fmt.Errorf("%s: %w", op, ErrMailUnavailable)
	}

	now := s.now()

	existing, err := s.storage.SubscriberByEmail(ctx, in.Email)
	switch {
	case err == nil && existing.IsActive:
		return fmt.Errorf("%s: %w", op, ErrAlreadySubscribed)
	case err == nil:
		if err := s.storage.ReactivateSubscriber(ctx, in.Email, now); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	case errors.Is(err, storage.ErrNotFound):
		_, err := s.storage.AddSubscriber(ctx, models.Subscriber{
			Email:        in.Email,
			SubscribedAt: now,
			IsActive:     true,
		})
		if errors.Is(err, storage.ErrAlreadyExists) {
			return fmt.Errorf("%s: %w", op, ErrAlreadySubscribed)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	default:
		return fmt.Errorf("%s: %w", op, err)
	}

	msgs, err := mail.SubscriptionMessages(s.cfg.Mail.Owner, in.Email, s.cfg.Site.BaseURL, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.mailer.Dispatch(ctx, msgs...); err != nil {
		log.From(ctx).Error("newsletter_mail_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(in.Email)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrMailUnavailable)
	}

	return nil
}
