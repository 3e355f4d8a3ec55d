package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/techblog/internal/auth"
	apierrors "github.com/pribylovaa/techblog/internal/http/errors"
	"github.com/pribylovaa/techblog/internal/http/handlers"
	"github.com/pribylovaa/techblog/internal/http/middleware"
	"github.com/pribylovaa/techblog/internal/metrics"
	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/ratelimit"
	"github.com/pribylovaa/techblog/internal/service"
)

// Deps - зависимости роутера.
type Deps struct {
	Service  *service.Service
	Gate     *auth.Gate
	Limiter  *ratelimit.Limiter
	Policies ratelimit.Policies
	Metrics  *metrics.Metrics // может быть nil
}

// Options - параметры сборки HTTP-роутера.
type Options struct {
	Logger         *slog.Logger
	Timeout        time.Duration
	TrustForwarded bool
	Session        handlers.Session
	SiteURL        string
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(deps Deps, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(deps.Metrics),
		middleware.Timeout(opts.Timeout), // общий дедлайн запроса
	)

	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, apierrors.ErrNotFound)
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, apierrors.ErrMethodNotAllowed)
	})

	h := handlers.New(deps.Service, deps.Gate, opts.Session, opts.SiteURL)

	limit := func(p ratelimit.Policy) middleware.Middleware {
		return middleware.RateLimit(deps.Limiter, p, opts.TrustForwarded, deps.Metrics)
	}

	registerRoutes(root, h, deps.Gate, deps.Policies, limit)
	return root
}

// registerRoutes - единая точка регистрации всех эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, gate *auth.Gate, p ratelimit.Policies, limit func(ratelimit.Policy) middleware.Middleware) {
	admin := gate.Role(models.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		// auth
		r.Method(http.MethodPost, "/auth/login", middleware.Chain(http.HandlerFunc(h.Login), limit(p.Login)))
		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/me", h.Me)

		// posts
		r.Group(func(r chi.Router) {
			r.Use(limit(p.API), gate.Identify())
			r.Get("/posts", h.ListPosts)
			r.Get("/posts/{id}", h.GetPost)
		})
		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/posts", h.CreatePost)
			r.Put("/posts/{id}", h.UpdatePost)
			r.Delete("/posts/{id}", h.DeletePost)
		})

		// forms
		r.Method(http.MethodPost, "/contact", middleware.Chain(http.HandlerFunc(h.Contact), limit(p.Contact)))
		r.Method(http.MethodPost, "/newsletter", middleware.Chain(http.HandlerFunc(h.Subscribe), limit(p.Newsletter)))
	})

	// seo
	r.Get("/sitemap.xml", h.Sitemap)
	r.Get("/robots.txt", h.Robots)
}
