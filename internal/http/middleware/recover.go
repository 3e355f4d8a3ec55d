package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/techblog/internal/http/errors"
	"github.com/pribylovaa/techblog/internal/pkg/log"
)

var errPanic = errors.New("panic in handler")

// Recover перехватывает panic и отвечает 500. Детали паники не утекают на клиент.
// Если обработчик уже начал ответ, 500 не пишется: заголовки ушли клиенту.
// http.ErrAbortHandler пробрасывается дальше, как того ждёт net/http.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.From(r.Context()).
					LogAttrs(r.Context(), slog.LevelError, "panic",
						slog.String("path", r.URL.Path),
						slog.Any("reason", rec),
						slog.Bool("response_started", sw.written()),
					)
				if sw.written() {
					return
				}
				apierrors.WriteError(sw, r, errPanic)
			}()
			next.ServeHTTP(sw, r)
		})
	}
}
