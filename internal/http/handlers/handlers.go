package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/pribylovaa/techblog/internal/auth"
	apierrors "github.com/pribylovaa/techblog/internal/http/errors"
	"github.com/pribylovaa/techblog/internal/service"
)

// maxBodyBytes - предел размера JSON-тела запроса.
const maxBodyBytes = 1 << 20

// Session - параметры auth-cookie.
type Session struct {
	CookieName string
	Secure     bool
	TTL        time.Duration
}

// Handlers агрегирует зависимости HTTP-обработчиков.
type Handlers struct {
	svc     *service.Service
	gate    *auth.Gate
	session Session
	siteURL string
}

// New создаёт обработчики. siteURL - публичный адрес сайта для sitemap/robots.
func New(svc *service.Service, gate *auth.Gate, session Session, siteURL string) *Handlers {
	return &Handlers{svc: svc, gate: gate, session: session, siteURL: siteURL}
}

type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON - единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict - строгий JSON-декодер: запрещаем неизвестные поля и хвост после объекта.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		return apierrors.ErrMalformedBody
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apierrors.ErrMalformedBody
	}

	return nil
}
