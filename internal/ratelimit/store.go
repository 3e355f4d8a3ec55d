package ratelimit

import (
	"context"
	"time"
)

// Entry - состояние окна для одного ключа после учёта запроса.
type Entry struct {
	Count   int64
	ResetAt time.Time
}

// Store - хранилище счётчиков окон.
// Hit учитывает один запрос по key и возвращает состояние окна.
// Если окна нет или оно истекло, открывается новое: count=1, resetAt=now+window.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Entry, error)
}
