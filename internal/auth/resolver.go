// Package auth превращает HTTP-запрос в учётную запись и проверяет права доступа.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/techblog/internal/metrics"
	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/pkg/log"
	"github.com/pribylovaa/techblog/internal/storage"
)

// AccountFinder - чтение аккаунта по ID (без хэша пароля).
type AccountFinder interface {
	AccountByID(ctx context.Context, id string) (*models.Account, error)
}

// TokenVerifier - проверка токена личности.
type TokenVerifier interface {
	Verify(token string) (models.Identity, error)
}

// TokenFromRequest достаёт токен: сначала из cookie, затем из Authorization: Bearer.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}

	return ""
}

// Resolver определяет аккаунт по запросу.
type Resolver struct {
	accounts   AccountFinder
	tokens     TokenVerifier
	cookieName string
	metrics    *metrics.Metrics
}

// NewResolver создаёт Resolver. m может быть nil.
func NewResolver(accounts AccountFinder, tokens TokenVerifier, cookieName string, m *metrics.Metrics) *Resolver {
	return &Resolver{
		accounts:   accounts,
		tokens:     tokens,
		cookieName: cookieName,
		metrics:    m,
	}
}

// Resolve возвращает аккаунт владельца токена или nil для анонимного запроса.
// Не паникует и не возвращает ошибок: битый токен, удалённый аккаунт и сбой
// хранилища дают nil. Сбой хранилища логируется и считается в метриках.
// Аккаунт возвращается всегда без хэша пароля.
func (res *Resolver) Resolve(r *http.Request) *models.Account {
	const op = "auth.Resolve"

	tok := TokenFromRequest(r, res.cookieName)
	if tok == "" {
		return nil
	}

	ctx := r.Context()
	lg := log.From(ctx)

	id, err := res.tokens.Verify(tok)
	if err != nil {
		lg.Debug("auth_token_rejected",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		res.metrics.AuthFailure(metrics.ReasonInvalidToken)
		return nil
	}

	acc, err := res.accounts.AccountByID(ctx, id.SubjectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Debug("auth_account_gone",
				slog.String("op", op),
				slog.String("user_id", id.SubjectID),
			)
			res.metrics.AuthFailure(metrics.ReasonNoAccount)
			return nil
		}

		lg.Warn("auth_resolve_store_failed",
			slog.String("op", op),
			slog.String("user_id", id.SubjectID),
			slog.String("err", err.Error()),
		)
		res.metrics.AuthFailure(metrics.ReasonStore)
		return nil
	}

	if acc == nil {
		res.metrics.AuthFailure(metrics.ReasonNoAccount)
		return nil
	}

	out := acc.Public()

	return &out
}
