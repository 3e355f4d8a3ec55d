package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pribylovaa/techblog/internal/metrics"
	apierrors "github.com/pribylovaa/techblog/internal/http/errors"
	"github.com/pribylovaa/techblog/internal/pkg/log"
	"github.com/pribylovaa/techblog/internal/ratelimit"
)

// RateLimit ограничивает частоту запросов по политике p.
// Ключ - адрес клиента и путь запроса. При отказе отвечает 429
// с заголовками Retry-After и X-RateLimit-*; X-RateLimit-Reset - unix-время конца окна в миллисекундах.
// Сбой хранилища счётчиков пропускает запрос.
func RateLimit(l *ratelimit.Limiter, p ratelimit.Policy, trustForwarded bool, m *metrics.Metrics) Middleware {
	const op = "middleware.RateLimit"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := ratelimit.ClientAddr(r, trustForwarded)

			dec, err := l.Check(r.Context(), p, addr, r.URL.Path)
			if err != nil {
				log.From(r.Context()).Warn("ratelimit_store_failed",
					slog.String("op", op),
					slog.String("policy", p.Name),
					log.Err(err),
				)
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(dec.Limit))

			if dec.Allowed {
				h.Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
				if !dec.ResetAt.IsZero() {
					h.Set("X-RateLimit-Reset", strconv.FormatInt(dec.ResetAt.UnixMilli(), 10))
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("X-RateLimit-Remaining", "0")
			h.Set("X-RateLimit-Reset", strconv.FormatInt(dec.ResetAt.UnixMilli(), 10))

			log.From(r.Context()).Info("ratelimit_rejected",
				slog.String("op", op),
				slog.String("policy", p.Name),
				slog.String("addr", addr),
				slog.String("path", r.URL.Path),
				slog.Int("retry_after", dec.RetryAfter),
			)
			m.Rejected(p.Name)

			apierrors.WriteError(w, r, &apierrors.TooManyRequests{
				Message:    p.RejectMessage(),
				RetryAfter: dec.RetryAfter,
			})
		})
	}
}
