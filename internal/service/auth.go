package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/pkg/log"
	"github.com/pribylovaa/techblog/internal/pkg/redact"
	"github.com/pribylovaa/techblog/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// HashCost - стоимость bcrypt для паролей аккаунтов.
const HashCost = 12

type loginInput struct {
	Identifier string `validate:"required,min=3,max=254"`
	Password   string `validate:"required,min=6,max=100"`
}

// dummyHash - bcrypt-хэш со стоимостью HashCost для сравнения, когда аккаунт
// не найден: время ответа не должно выдавать существование логина.
var dummyHash = []byte("$2a$12$Pzc.H549USUo.tY7eBOPcOLWJhZycxH6aCa2Qyk4QKhQWPEKTZOvC")

// Login проверяет пару логин/пароль и выпускает токен.
// identifier - username или email (email без учёта регистра).
func (s *Service) Login(ctx context.Context, identifier, password string) (*models.LoginResult, error) {
	const op = "service.auth.Login"

	in := loginInput{Identifier: strings.TrimSpace(identifier), Password: password}
	if err := check(in, "Username and password are required", map[string]string{
		"Identifier": "Invalid username or password format",
		"Password":   "Invalid username or password format",
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	acc, err := s.storage.AccountByLogin(ctx, in.Identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			s.loginFailed(ctx, in.Identifier)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		s.loginFailed(ctx, in.Identifier)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	tok, exp, err := s.tokens.Issue(models.Identity{
		SubjectID: acc.ID,
		Username:  acc.Username,
		Role:      acc.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.LoginResult{
		Account:   acc.Public(),
		Token:     tok,
		ExpiresAt: exp,
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, identifier string) {
	log.From(ctx).Info("login_failed",
		slog.String("op", "service.auth.Login"),
		slog.String("identifier", redact.Identifier(identifier)),
	)
}

// HashPassword хэширует пароль с HashCost.
func HashPassword(password string) (string, error) {
	const op = "service.auth.HashPassword"

	b, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(b), nil
}
