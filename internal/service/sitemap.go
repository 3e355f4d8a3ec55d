package service

import (
	"context"
	"log/slog"

	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/pkg/log"
)

// sitemapPostLimit - сколько опубликованных постов попадает в sitemap.
const sitemapPostLimit = 100

// SitemapEntries возвращает статические страницы и опубликованные посты.
// Если хранилище недоступно, возвращаются только статические страницы.
func (s *Service) SitemapEntries(ctx context.Context) []models.SitemapEntry {
	const op = "service.sitemap.SitemapEntries"

	now := s.now()
	entries := []models.SitemapEntry{
		{Path: "/", LastMod: now, ChangeFreq: "daily", Priority: 1},
		{Path: "/about", LastMod: now, ChangeFreq: "monthly", Priority: 0.6},
		{Path: "/contact", LastMod: now, ChangeFreq: "monthly", Priority: 0.6},
		{Path: "/privacy", LastMod: now, ChangeFreq: "yearly", Priority: 0.4},
		{Path: "/terms", LastMod: now, ChangeFreq: "yearly", Priority: 0.4},
	}

	posts, err := s.storage.PublishedPosts(ctx, sitemapPostLimit)
	if err != nil {
		log.From(ctx).Warn("sitemap_posts_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return entries
	}

	for _, p := range posts {
		mod := p.UpdatedAt
		if mod.IsZero() {
			mod = now
		}
		entries = append(entries, models.SitemapEntry{
			Path:       "/posts/" + p.ID,
			LastMod:    mod,
			ChangeFreq: "weekly",
			Priority:   0.7,
		})
	}

	return entries
}
