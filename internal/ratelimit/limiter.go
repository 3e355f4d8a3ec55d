package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Decision - результат проверки одного запроса.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter - секунды до конца окна, округлённые вверх.
	RetryAfter int
}

// Limiter применяет политики поверх Store.
type Limiter struct {
	store Store
	now   func() time.Time
}

// Option настраивает Limiter.
type Option func(*Limiter)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter создаёт лимитер поверх store.
func NewLimiter(store Store, opts ...Option) *Limiter {
	l := &Limiter{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Key - ключ счётчика для пары адрес/путь.
func Key(addr, path string) string {
	return addr + ":" + path
}

// Check учитывает запрос от addr к path по политике p.
// При ошибке хранилища запрос пропускается (Allowed=true) и ошибка возвращается вызывающему для логирования.
func (l *Limiter) Check(ctx context.Context, p Policy, addr, path string) (Decision, error) {
	const op = "ratelimit.Check"

	now := l.now()

	e, err := l.store.Hit(ctx, Key(addr, path), p.Window, now)
	if err != nil {
		return Decision{Allowed: true, Limit: p.Max, Remaining: p.Max}, fmt.Errorf("%s: %w", op, err)
	}

	remaining := p.Max - int(e.Count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:    e.Count <= int64(p.Max),
		Limit:      p.Max,
		Remaining:  remaining,
		ResetAt:    e.ResetAt,
		RetryAfter: retryAfter(e.ResetAt, now),
	}, nil
}

func retryAfter(resetAt, now time.Time) int {
	d := resetAt.Sub(now)
	if d <= 0 {
		return 0
	}

	return int(math.Ceil(d.Seconds()))
}
