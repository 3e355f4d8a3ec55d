package models

import "time"

// Subscriber - подписчик рассылки. Email уникален.
type Subscriber struct {
	ID           string
	Email        string
	SubscribedAt time.Time
	IsActive     bool
}

// ContactForm - сообщение из формы обратной связи.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SitemapEntry - строка sitemap.xml.
type SitemapEntry struct {
	Path       string
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}
