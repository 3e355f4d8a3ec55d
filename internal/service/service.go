// service содержит прикладные операции techblog: вход администратора,
// управление постами, подписку на рассылку, форму обратной связи и sitemap.
//
// Основные аспекты:
//   - Service не хранит состояние запроса и безопасен для конкурентного
//     использования, если потокобезопасны хранилище и диспетчер писем.
//   - Ошибки возвращаются сентинелами ниже и маппятся транспортом
//     (internal/http/errors) на HTTP-коды.
package service

import (
	"errors"
	"time"

	"github.com/pribylovaa/techblog/internal/config"
	"github.com/pribylovaa/techblog/internal/mail"
	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/storage"
)

var (
	// ErrInvalidInput - ввод не прошёл валидацию. Конкретное сообщение
	// несёт *ValidationError. HTTP 400.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials - неизвестный логин или неверный пароль.
	// Оба случая неразличимы для клиента. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPostNotFound - поста нет (или это черновик для анонима). HTTP 404.
	ErrPostNotFound = errors.New("post not found")

	// ErrAlreadySubscribed - адрес уже активно подписан. HTTP 400.
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrMailUnavailable - почта не настроена или недоступна. HTTP 503.
	ErrMailUnavailable = errors.New("mail unavailable")
)

// ValidationError - ошибка валидации с сообщением для клиента.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is позволяет проверять ошибку через errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// TokenIssuer выпускает токен личности.
type TokenIssuer interface {
	Issue(id models.Identity) (string, time.Time, error)
}

// Service описывает прикладную логику techblog.
type Service struct {
	storage storage.Storage
	tokens  TokenIssuer
	mailer  mail.Dispatcher // может быть nil, если почта не сконфигурирована
	cfg     *config.Config
	now     func() time.Time
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, tokens TokenIssuer, cfg *config.Config) *Service {
	return &Service{
		storage: storage,
		tokens:  tokens,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetMailer устанавливает диспетчер писем (опционально).
func (s *Service) SetMailer(d mail.Dispatcher) {
	s.mailer = d
}
