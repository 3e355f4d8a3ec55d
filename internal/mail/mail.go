// Package mail отправляет письма сайта: синхронно через SMTP или через очередь asynq.
package mail

import (
	"context"
	"errors"
)

// ErrNotConfigured - SMTP не настроен.
var ErrNotConfigured = errors.New("mail: not configured")

// Message - одно письмо.
type Message struct {
	To      string `json:"to"`
	ReplyTo string `json:"reply_to,omitempty"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender доставляет одно письмо.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher передаёт письма на доставку: сразу или через очередь.
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs ...Message) error
}

// Direct отправляет письма синхронно по порядку и останавливается на первой ошибке.
type Direct struct {
	sender Sender
}

// NewDirect создаёт синхронный диспетчер.
func NewDirect(s Sender) *Direct {
	return &Direct{sender: s}
}

func (d *Direct) Dispatch(ctx context.Context, msgs ...Message) error {
	for _, m := range msgs {
		if err := d.sender.Send(ctx, m); err != nil {
			return err
		}
	}

	return nil
}
