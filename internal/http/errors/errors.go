// errors стандартизирует ответы об ошибках HTTP-слоя techblog.
// На вход он принимает ошибку доменного слоя (service, auth, лимитер),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное сообщение без утечки деталей.
//
// Пакет - единственный источник истинности по маппингу ошибок в HTTP.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pribylovaa/techblog/internal/auth"
	"github.com/pribylovaa/techblog/internal/pkg/log"
	"github.com/pribylovaa/techblog/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrMalformedBody - тело запроса не разбирается как ожидаемый JSON.
	ErrMalformedBody = stderrors.New("malformed request body")
	// ErrNotFound - маршрут не найден.
	ErrNotFound = stderrors.New("route not found")
	// ErrMethodNotAllowed - метод не поддерживается маршрутом.
	ErrMethodNotAllowed = stderrors.New("method not allowed")
)

// TooManyRequests - отказ лимитера.
type TooManyRequests struct {
	Message    string
	RetryAfter int
}

func (e *TooManyRequests) Error() string { return e.Message }

// ErrorResponse - тело ответа об ошибке.
// RetryAfter заполняется только для 429.
// RequestID прокидывается из X-Request-Id (для трассировки).
type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и тело ответа.
//
// Поведение:
//   - err == nil - программная ошибка вызова: 500, чтобы не послать
//     "200 OK" с телом ошибки;
//   - известные сентинелы маппятся по таблице ниже;
//   - всё остальное - 500 без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"}
	}

	var tooMany *TooManyRequests
	if stderrors.As(err, &tooMany) {
		return http.StatusTooManyRequests, ErrorResponse{Error: tooMany.Message, RetryAfter: tooMany.RetryAfter}
	}

	var invalid *service.ValidationError
	if stderrors.As(err, &invalid) {
		return http.StatusBadRequest, ErrorResponse{Error: invalid.Message}
	}

	status, msg := base(err)
	return status, ErrorResponse{Error: msg}
}

// base - маппинг сентинелов:
//   - ErrMalformedBody -> 400
//   - ErrAlreadySubscribed -> 400
//   - ErrAuthenticationRequired / ErrAuthorizationDenied / ErrInvalidCredentials -> 401
//   - ErrPostNotFound / ErrNotFound -> 404
//   - ErrMethodNotAllowed -> 405
//   - context.Canceled -> 499
//   - ErrMailUnavailable -> 503
//   - context.DeadlineExceeded -> 504
//   - прочее -> 500
func base(err error) (int, string) {
	switch {
	case stderrors.Is(err, ErrMalformedBody):
		return http.StatusBadRequest, "Invalid request body"
	case stderrors.Is(err, service.ErrAlreadySubscribed):
		return http.StatusBadRequest, "Email is already subscribed to our newsletter"
	case stderrors.Is(err, auth.ErrAuthenticationRequired):
		return http.StatusUnauthorized, "Authentication required"
	case stderrors.Is(err, auth.ErrAuthorizationDenied):
		return http.StatusUnauthorized, "Admin access required"
	case stderrors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case stderrors.Is(err, service.ErrPostNotFound):
		return http.StatusNotFound, "Post not found"
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Not found"
	case stderrors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "Method not allowed"
	case stderrors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "Request canceled"
	case stderrors.Is(err, service.ErrMailUnavailable):
		return http.StatusServiceUnavailable, "Email service is temporarily unavailable. Please try again later."
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// WriteError - хелпер для HTTP-хендлеров.
// Пишет статус и тело, добавляет request_id из заголовка, если он есть.
// Для 429 выставляет Retry-After. Ошибки 5xx логируются с исходным текстом.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.RequestID = rid
	}

	if status >= http.StatusInternalServerError {
		log.From(r.Context()).Error("http_error",
			slog.Int("status", status),
			log.Err(err),
		)
	}

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfter))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
