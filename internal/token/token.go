// Package token выпускает и проверяет подписанные HS256 токены личности.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pribylovaa/techblog/internal/config"
	"github.com/pribylovaa/techblog/internal/models"
)

// Фиксированные теги iss и aud. Токен с другими значениями не принимается.
const (
	Issuer   = "techblog"
	Audience = "techblog-users"
)

var (
	// ErrNoSecret - не задан ключ подписи; фатально на старте.
	ErrNoSecret = errors.New("token: signing secret is not configured")
	// ErrInvalidToken - токен битый, чужой, подделан или просрочен.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired - истёк срок действия; также совпадает с ErrInvalidToken.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)
)

type identityClaims struct {
	UserID   string      `json:"uid"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Codec - выпуск и проверка токенов. Безопасен для конкурентного использования.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option настраивает Codec.
type Option func(*Codec)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New создаёт Codec по секции auth конфигурации.
func New(cfg config.AuthConfig, opts ...Option) (*Codec, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrNoSecret
	}

	c := &Codec{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// TTL возвращает срок жизни выпускаемых токенов.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue подписывает токен для id и возвращает его вместе с моментом истечения.
func (c *Codec) Issue(id models.Identity) (string, time.Time, error) {
	const op = "token.Issue"

	now := c.now().UTC()
	exp := now.Add(c.ttl)

	claims := identityClaims{
		UserID:   id.SubjectID,
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   id.SubjectID,
			Audience:  jwt.ClaimStrings{Audience},
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

// Verify проверяет алгоритм, подпись, issuer, audience и срок действия.
// Любая неудача - ErrInvalidToken (истечение - ErrTokenExpired).
func (c *Codec) Verify(tokenStr string) (models.Identity, error) {
	const op = "token.Verify"

	if tokenStr == "" {
		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &identityClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := tok.Claims.(*identityClaims)
	if !ok || !tok.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return models.Identity{
		SubjectID: claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
	}, nil
}
