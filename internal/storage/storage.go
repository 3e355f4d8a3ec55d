package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/techblog/internal/models"
)

var (
	// ErrNotFound - запись не найдена (аккаунт/пост/подписчик).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists - нарушение уникальности (username/email/slug).
	ErrAlreadyExists = errors.New("already exists")
	// ErrAccountConflict - username и email принадлежат разным аккаунтам.
	ErrAccountConflict = errors.New("username and email belong to different accounts")
)

// AccountStorage выполняет операции над учётными записями.
type AccountStorage interface {
	// AccountByID находит аккаунт по ID. Хэш пароля не загружается.
	// Некорректный id трактуется как ErrNotFound.
	AccountByID(ctx context.Context, id string) (*models.Account, error)
	// AccountByLogin находит аккаунт по username или email (без учёта регистра email).
	// Возвращает аккаунт вместе с хэшем пароля.
	AccountByLogin(ctx context.Context, identifier string) (*models.Account, error)
	// UpsertAccount создаёт аккаунт или обновляет найденный по username, затем по email.
	// ErrAccountConflict, если username и email заняты разными аккаунтами.
	// Второе значение - true, если запись была создана.
	UpsertAccount(ctx context.Context, acc models.Account) (*models.Account, bool, error)
}

// PostStorage выполняет операции над постами.
type PostStorage interface {
	// CreatePost сохраняет пост. Занятый slug - ErrAlreadyExists.
	CreatePost(ctx context.Context, post models.Post) (*models.Post, error)
	// PostByID возвращает пост без изменения счётчика просмотров.
	PostByID(ctx context.Context, id string) (*models.Post, error)
	// ViewPost увеличивает views и возвращает обновлённый пост.
	// При publishedOnly черновик считается отсутствующим.
	ViewPost(ctx context.Context, id string, publishedOnly bool) (*models.Post, error)
	// ListPosts возвращает страницу постов (новые первыми) и общее число подходящих записей.
	ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, int64, error)
	// UpdatePost применяет частичное обновление и возвращает новую версию.
	UpdatePost(ctx context.Context, id string, upd models.PostUpdate) (*models.Post, error)
	// DeletePost удаляет пост.
	DeletePost(ctx context.Context, id string) error
	// SlugExists сообщает, занят ли slug.
	SlugExists(ctx context.Context, slug string) (bool, error)
	// PublishedPosts возвращает не более limit опубликованных постов, новые первыми.
	PublishedPosts(ctx context.Context, limit int) ([]models.Post, error)
}

// SubscriberStorage выполняет операции над подписчиками рассылки.
type SubscriberStorage interface {
	// SubscriberByEmail находит подписчика по email.
	SubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	// AddSubscriber сохраняет нового подписчика. Дубликат email - ErrAlreadyExists.
	AddSubscriber(ctx context.Context, sub models.Subscriber) (*models.Subscriber, error)
	// ReactivateSubscriber снова включает неактивную подписку.
	ReactivateSubscriber(ctx context.Context, email string, at time.Time) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	AccountStorage
	PostStorage
	SubscriberStorage
	Close(ctx context.Context) error
}
