package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/pkg/log"
	"github.com/pribylovaa/techblog/internal/render"
	"github.com/pribylovaa/techblog/internal/storage"
)

// createAttempts - сколько раз повторять вставку при гонке за slug.
const createAttempts = 3

type postInput struct {
	Title     string `validate:"required,max=200"`
	Content   string `validate:"required"`
	Excerpt   string `validate:"required,max=300"`
	Thumbnail string `validate:"required"`
	Category  string `validate:"required,category"`
	Author    string `validate:"required,max=100"`
}

var postMessages = map[string]string{
	"Title.required":     "Please provide a title for this post",
	"Title.max":          "Title cannot be more than 200 characters",
	"Content.required":   "Please provide content for this post",
	"Excerpt.required":   "Please provide an excerpt for this post",
	"Excerpt.max":        "Excerpt cannot be more than 300 characters",
	"Thumbnail.required": "Please provide a thumbnail URL",
	"Category.required":  "Please provide a category",
	"Category.category":  "Please provide a valid category",
	"Author.required":    "Please provide an author name",
	"Author.max":         "Author cannot be more than 100 characters",
}

func validatePost(p models.Post) error {
	return check(postInput{
		Title:     p.Title,
		Content:   p.Content,
		Excerpt:   p.Excerpt,
		Thumbnail: p.Thumbnail,
		Category:  p.Category,
		Author:    p.Author,
	}, "", postMessages)
}

func normalizePost(p *models.Post) {
	p.Title = strings.TrimSpace(p.Title)
	p.Excerpt = strings.TrimSpace(p.Excerpt)
	p.Thumbnail = strings.TrimSpace(p.Thumbnail)
	p.Author = strings.TrimSpace(p.Author)
	if p.Author == "" {
		p.Author = models.DefaultAuthor
	}

	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	p.Tags = tags
}

// CreatePost валидирует и сохраняет пост, подбирая уникальный slug по заголовку.
// ID, slug, views и временные метки клиента игнорируются.
func (s *Service) CreatePost(ctx context.Context, in models.Post) (*models.Post, error) {
	const op = "service.posts.CreatePost"

	normalizePost(&in)
	if err := validatePost(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	in.ID = ""
	in.Views = 0
	in.ContentHTML = ""
	in.CreatedAt = now
	in.UpdatedAt = now

	base := Slugify(in.Title)
	for attempt := 0; attempt < createAttempts; attempt++ {
		slug, err := s.uniqueSlug(ctx, base)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		in.Slug = slug

		created, err := s.storage.CreatePost(ctx, in)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil, fmt.Errorf("%s: %w", op, errSlugExhausted)
}

// UpdatePost применяет частичное обновление. Итоговый пост должен
// оставаться валидным; slug не пересчитывается.
func (s *Service) UpdatePost(ctx context.Context, id string, upd models.PostUpdate) (*models.Post, error) {
	const op = "service.posts.UpdatePost"

	current, err := s.storage.PostByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, postErr(err))
	}

	if upd.Empty() {
		return current, nil
	}

	merged := applyUpdate(*current, upd)
	normalizePost(&merged)
	if err := validatePost(merged); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	clean := models.PostUpdate{
		Title:     upd.Title,
		Content:   upd.Content,
		Excerpt:   upd.Excerpt,
		Category:  upd.Category,
		Thumbnail: upd.Thumbnail,
		Author:    upd.Author,
		Published: upd.Published,
	}
	if upd.Title != nil {
		clean.Title = &merged.Title
	}
	if upd.Excerpt != nil {
		clean.Excerpt = &merged.Excerpt
	}
	if upd.Thumbnail != nil {
		clean.Thumbnail = &merged.Thumbnail
	}
	if upd.Author != nil {
		clean.Author = &merged.Author
	}
	if upd.Tags != nil {
		clean.Tags = &merged.Tags
	}

	updated, err := s.storage.UpdatePost(ctx, id, clean)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, postErr(err))
	}

	return updated, nil
}

func applyUpdate(p models.Post, upd models.PostUpdate) models.Post {
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Content != nil {
		p.Content = *upd.Content
	}
	if upd.Excerpt != nil {
		p.Excerpt = *upd.Excerpt
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.Thumbnail != nil {
		p.Thumbnail = *upd.Thumbnail
	}
	if upd.Author != nil {
		p.Author = *upd.Author
	}
	if upd.Published != nil {
		p.Published = *upd.Published
	}
	if upd.Tags != nil {
		p.Tags = append([]string(nil), (*upd.Tags)...)
	}

	return p
}

// DeletePost удаляет пост.
func (s *Service) DeletePost(ctx context.Context, id string) error {
	const op = "service.posts.DeletePost"

	if err := s.storage.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, postErr(err))
	}

	return nil
}

// ListPosts возвращает страницу ленты. Анонимные и неадминские вызовы
// видят только опубликованные посты; админ может фильтровать по published.
func (s *Service) ListPosts(ctx context.Context, filter models.PostFilter, admin bool) (*models.PostPage, error) {
	const op = "service.posts.ListPosts"

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = s.cfg.Posts.DefaultLimit
	}
	if filter.Limit > s.cfg.Posts.MaxLimit {
		filter.Limit = s.cfg.Posts.MaxLimit
	}
	filter.Category = strings.TrimSpace(filter.Category)

	if !admin {
		published := true
		filter.Published = &published
	}

	posts, total, err := s.storage.ListPosts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if posts == nil {
		posts = []models.Post{}
	}

	return &models.PostPage{
		Posts: posts,
		Pagination: models.Pagination{
			Page:  filter.Page,
			Limit: filter.Limit,
			Total: total,
			Pages: int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
		},
	}, nil
}

// GetPost возвращает пост с отрендеренным HTML и увеличивает счётчик просмотров.
// Черновики видны только админу.
func (s *Service) GetPost(ctx context.Context, id string, admin bool) (*models.Post, error) {
	const op = "service.posts.GetPost"

	post, err := s.storage.ViewPost(ctx, id, !admin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, postErr(err))
	}

	html, err := render.HTML(post.Content)
	if err != nil {
		log.From(ctx).Warn("post_render_failed",
			slog.String("op", op),
			slog.String("post_id", post.ID),
			slog.String("err", err.Error()),
		)
		return post, nil
	}
	post.ContentHTML = html

	return post, nil
}

func postErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrPostNotFound
	}

	return err
}
