// Package ratelimit реализует fixed-window ограничение частоты запросов
// по ключу «адрес клиента + путь».
package ratelimit

import (
	"time"

	"github.com/pribylovaa/techblog/internal/config"
)

// DefaultMessage - текст отказа, если у политики не задан свой.
const DefaultMessage = "Too many requests. Please try again later."

// Policy - окно, лимит и текст отказа для одной группы эндпоинтов.
type Policy struct {
	Name    string
	Window  time.Duration
	Max     int
	Message string
}

// RejectMessage возвращает текст отказа с фолбэком на DefaultMessage.
func (p Policy) RejectMessage() string {
	if p.Message == "" {
		return DefaultMessage
	}

	return p.Message
}

// Policies - набор политик сайта.
type Policies struct {
	Contact    Policy
	Newsletter Policy
	Login      Policy
	API        Policy
}

// DefaultPolicies возвращает стандартные политики.
func DefaultPolicies() Policies {
	return Policies{
		Contact: Policy{
			Name:    "contact",
			Window:  15 * time.Minute,
			Max:     3,
			Message: "Too many contact form submissions. Please wait before sending another message.",
		},
		Newsletter: Policy{
			Name:    "newsletter",
			Window:  time.Hour,
			Max:     5,
			Message: "Too many newsletter subscription attempts. Please try again later.",
		},
		Login: Policy{
			Name:    "login",
			Window:  15 * time.Minute,
			Max:     5,
			Message: "Too many login attempts. Please wait before trying again.",
		},
		API: Policy{
			Name:    "api",
			Window:  time.Minute,
			Max:     60,
			Message: "API rate limit exceeded. Please slow down your requests.",
		},
	}
}

// PoliciesFromConfig накладывает непустые поля конфигурации на DefaultPolicies.
func PoliciesFromConfig(cfg config.RateLimitConfig) Policies {
	p := DefaultPolicies()
	p.Contact = override(p.Contact, cfg.Contact)
	p.Newsletter = override(p.Newsletter, cfg.Newsletter)
	p.Login = override(p.Login, cfg.Login)
	p.API = override(p.API, cfg.API)

	return p
}

func override(p Policy, c config.PolicyConfig) Policy {
	if c.Window > 0 {
		p.Window = c.Window
	}

	if c.Max > 0 {
		p.Max = c.Max
	}

	if c.Message != "" {
		p.Message = c.Message
	}

	return p
}
