package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/pribylovaa/techblog/internal/models"
)

var (
	// ErrAuthenticationRequired - нет действующей личности.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAuthorizationDenied - личность есть, но роль не подходит.
	ErrAuthorizationDenied = errors.New("authorization denied")
)

// IdentityResolver - источник личности для Gate.
type IdentityResolver interface {
	Resolve(r *http.Request) *models.Account
}

// ErrorWriter пишет ответ об ошибке доступа.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Gate выражает политики доступа эндпоинтов.
type Gate struct {
	resolver IdentityResolver
	writeErr ErrorWriter
}

// NewGate создаёт Gate. writeErr используется только мидлварами.
func NewGate(resolver IdentityResolver, writeErr ErrorWriter) *Gate {
	if writeErr == nil {
		writeErr = func(w http.ResponseWriter, _ *http.Request, _ error) {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}

	return &Gate{resolver: resolver, writeErr: writeErr}
}

// RequireAuthenticated возвращает аккаунт или ErrAuthenticationRequired.
func (g *Gate) RequireAuthenticated(r *http.Request) (*models.Account, error) {
	if acc, ok := AccountFrom(r.Context()); ok {
		return acc, nil
	}

	acc := g.resolver.Resolve(r)
	if acc == nil {
		return nil, ErrAuthenticationRequired
	}

	return acc, nil
}

// RequireRole вызывает RequireAuthenticated и проверяет роль.
func (g *Gate) RequireRole(r *http.Request, role models.Role) (*models.Account, error) {
	acc, err := g.RequireAuthenticated(r)
	if err != nil {
		return nil, err
	}

	if acc.Role != role {
		return nil, ErrAuthorizationDenied
	}

	return acc, nil
}

// Identify кладёт аккаунт в контекст, если он есть. Анонимный запрос проходит дальше.
func (g *Gate) Identify() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := AccountFrom(r.Context()); !ok {
				if acc := g.resolver.Resolve(r); acc != nil {
					r = r.WithContext(WithAccount(r.Context(), acc))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticated пропускает только запросы с действующей личностью.
func (g *Gate) Authenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc, err := g.RequireAuthenticated(r)
			if err != nil {
				g.writeErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acc)))
		})
	}
}

// Role пропускает только аккаунты с ролью role.
func (g *Gate) Role(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc, err := g.RequireRole(r, role)
			if err != nil {
				g.writeErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acc)))
		})
	}
}

type accountKey struct{}

// WithAccount кладёт аккаунт в контекст.
func WithAccount(ctx context.Context, acc *models.Account) context.Context {
	return context.WithValue(ctx, accountKey{}, acc)
}

// AccountFrom достаёт аккаунт, положенный мидлварами Gate.
func AccountFrom(ctx context.Context) (*models.Account, bool) {
	acc, ok := ctx.Value(accountKey{}).(*models.Account)
	return acc, ok && acc != nil
}

// IsAdmin - короткая проверка роли для необязательной личности.
func IsAdmin(ctx context.Context) bool {
	acc, ok := AccountFrom(ctx)
	return ok && acc.Role == models.RoleAdmin
}
