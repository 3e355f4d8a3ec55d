package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/techblog/internal/auth"
	"github.com/pribylovaa/techblog/internal/config"
	apierrors "github.com/pribylovaa/techblog/internal/http/errors"
	"github.com/pribylovaa/techblog/internal/http/handlers"
	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/ratelimit"
	"github.com/pribylovaa/techblog/internal/service"
	"github.com/pribylovaa/techblog/internal/storage"
	"github.com/pribylovaa/techblog/internal/token"
	"github.com/pribylovaa/techblog/mocks"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const cookieName = "auth-token"

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	st      *mocks.MockStorage
	codec   *token.Codec
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:  "router-secret",
			TokenTTL:   168 * time.Hour,
			CookieName: cookieName,
		},
		Mail:  config.MailConfig{Owner: "owner@example.com"},
		Site:  config.SiteConfig{BaseURL: "https://blog.example.com/"},
		Posts: config.PostsConfig{DefaultLimit: 10, MaxLimit: 100},
	}

	codec, err := token.New(cfg.Auth)
	require.NoError(t, err)

	svc := service.New(st, codec, cfg)
	gate := auth.NewGate(auth.NewResolver(st, codec, cookieName, nil), apierrors.WriteError)
	lim := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), ratelimit.WithClock(func() time.Time { return now }))

	h := NewRouter(Deps{
		Service:  svc,
		Gate:     gate,
		Limiter:  lim,
		Policies: ratelimit.DefaultPolicies(),
	}, Options{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Timeout: 5 * time.Second,
		Session: handlers.Session{CookieName: cookieName, TTL: cfg.Auth.TokenTTL},
		SiteURL: cfg.Site.BaseURL,
	})

	return &testServer{handler: h, st: st, codec: codec}
}

func (s *testServer) do(method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.RemoteAddr = "1.2.3.4:5555"
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) cookieFor(t *testing.T, acc *models.Account) *http.Cookie {
	t.Helper()
	tok, _, err := s.codec.Issue(models.Identity{SubjectID: acc.ID, Username: acc.Username, Role: acc.Role})
	require.NoError(t, err)
	s.st.EXPECT().AccountByID(gomock.Any(), acc.ID).Return(acc, nil).AnyTimes()
	return &http.Cookie{Name: cookieName, Value: tok}
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func adminAccount(t *testing.T) *models.Account {
	h, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.Account{ID: "u1", Username: "admin", Email: "admin@example.com", PasswordHash: string(h), Role: models.RoleAdmin}
}

func TestLogin_SetsCookie_ThenMe(t *testing.T) {
	s := newTestServer(t)
	acc := adminAccount(t)

	s.st.EXPECT().AccountByLogin(gomock.Any(), "admin").Return(acc, nil)

	rr := s.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"s3cret!"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotContains(t, rr.Body.String(), "password")
	require.NotContains(t, rr.Body.String(), "$2a$")

	var body struct {
		Message string         `json:"message"`
		User    map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "Login successful", body.Message)
	require.Equal(t, map[string]any{"id": "u1", "username": "admin", "email": "admin@example.com", "role": "admin"}, body.User)

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == cookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	require.True(t, session.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, session.SameSite)
	require.Equal(t, 7*24*60*60, session.MaxAge)

	s.st.EXPECT().AccountByID(gomock.Any(), "u1").Return(acc, nil)
	rr = s.do(http.MethodGet, "/api/auth/me", "", &http.Cookie{Name: cookieName, Value: session.Value})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"username":"admin"`)
}

func TestLogin_UnknownUserAndWrongPassword_Identical(t *testing.T) {
	s := newTestServer(t)

	s.st.EXPECT().AccountByLogin(gomock.Any(), "admin").Return(adminAccount(t), nil)
	s.st.EXPECT().AccountByLogin(gomock.Any(), "ghost").Return(nil, storage.ErrNotFound)

	wrong := s.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"nope-nope"}`, nil)
	unknown := s.do(http.MethodPost, "/api/auth/login", `{"username":"ghost","password":"nope-nope"}`, nil)

	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	require.Equal(t, wrong.Code, unknown.Code)
	require.Equal(t, "Invalid credentials", errorOf(t, wrong))
	require.Equal(t, errorOf(t, wrong), errorOf(t, unknown))
	require.Empty(t, wrong.Header().Get("Set-Cookie"))
}

func TestLogin_RateLimited_SixthAttempt(t *testing.T) {
	s := newTestServer(t)

	// Неверный формат не доходит до хранилища, но попытка всё равно считается.
	for i := 0; i < 5; i++ {
		rr := s.do(http.MethodPost, "/api/auth/login", `{"username":"ab","password":"x"}`, nil)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	}

	rr := s.do(http.MethodPost, "/api/auth/login", `{"username":"ab","password":"x"}`, nil)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "900", rr.Header().Get("Retry-After"))
	require.Equal(t, "5", rr.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, "Too many login attempts. Please wait before trying again.", errorOf(t, rr))
}

func TestLogin_MalformedBody(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/api/auth/login", `{"username":`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Invalid request body", errorOf(t, rr))

	rr = s.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"s3cret!","extra":1}`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Set-Cookie"), "auth-token=;")
	require.Contains(t, rr.Header().Get("Set-Cookie"), "Max-Age=0")
	require.Contains(t, rr.Body.String(), "Logout successful")
}

func TestMe_Anonymous(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Authentication required", errorOf(t, rr))
}

func TestCreatePost_RequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	body := `{"title":"Hello","content":"x","excerpt":"e","thumbnail":"t","category":"DevOps"}`

	rr := s.do(http.MethodPost, "/api/posts", body, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Authentication required", errorOf(t, rr))

	reader := &models.Account{ID: "u2", Username: "reader", Role: models.RoleUser}
	rr = s.do(http.MethodPost, "/api/posts", body, s.cookieFor(t, reader))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Admin access required", errorOf(t, rr))
}

func TestCreatePost_Admin(t *testing.T) {
	s := newTestServer(t)
	cookie := s.cookieFor(t, adminAccount(t))

	s.st.EXPECT().SlugExists(gomock.Any(), "hello").Return(false, nil)
	s.st.EXPECT().CreatePost(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p models.Post) (*models.Post, error) {
			p.ID = "p1"
			return &p, nil
		})

	rr := s.do(http.MethodPost, "/api/posts",
		`{"title":"Hello","content":"x","excerpt":"e","thumbnail":"t","category":"DevOps"}`, cookie)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"slug":"hello"`)
	require.Contains(t, rr.Body.String(), "Post created successfully")
}

func TestListPosts_AnonymousForcedPublished(t *testing.T) {
	s := newTestServer(t)

	s.st.EXPECT().ListPosts(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, f models.PostFilter) ([]models.Post, int64, error) {
			require.True(t, *f.Published)
			require.Equal(t, 2, f.Page)
			require.Equal(t, 5, f.Limit)
			return []models.Post{{ID: "p1", Title: "One", Published: true}}, 6, nil
		})

	rr := s.do(http.MethodGet, "/api/posts?page=2&limit=5&published=false", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var page models.PostPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page.Posts, 1)
	require.Equal(t, models.Pagination{Page: 2, Limit: 5, Total: 6, Pages: 2}, page.Pagination)
	require.NotEmpty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestListPosts_AdminSeesDrafts(t *testing.T) {
	s := newTestServer(t)
	cookie := s.cookieFor(t, adminAccount(t))

	s.st.EXPECT().ListPosts(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, f models.PostFilter) ([]models.Post, int64, error) {
			require.False(t, *f.Published)
			return nil, 0, nil
		})

	rr := s.do(http.MethodGet, "/api/posts?published=false", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestGetPost_NotFound(t *testing.T) {
	s := newTestServer(t)

	s.st.EXPECT().ViewPost(gomock.Any(), "missing", true).Return(nil, storage.ErrNotFound)

	rr := s.do(http.MethodGet, "/api/posts/missing", "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "Post not found", errorOf(t, rr))
}

func TestContact_NoMailer_Unavailable(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/api/contact",
		`{"name":"Jane","email":"jane@example.com","subject":"Hello there","message":"A message long enough"}`, nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestNewsletter_InvalidEmail(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/api/newsletter", `{"email":"nope"}`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Please provide a valid email address", errorOf(t, rr))
}

func TestSitemapAndRobots(t *testing.T) {
	s := newTestServer(t)

	s.st.EXPECT().PublishedPosts(gomock.Any(), 100).Return([]models.Post{{ID: "p1", UpdatedAt: now}}, nil)

	rr := s.do(http.MethodGet, "/sitemap.xml", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "application/xml")
	require.Contains(t, rr.Body.String(), "<loc>https://blog.example.com/</loc>")
	require.Contains(t, rr.Body.String(), "<loc>https://blog.example.com/posts/p1</loc>")
	require.Contains(t, rr.Body.String(), "<priority>0.7</priority>")

	rr = s.do(http.MethodGet, "/robots.txt", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Disallow: /admin")
	require.Contains(t, rr.Body.String(), "Disallow: /api/*")
	require.Contains(t, rr.Body.String(), "Sitemap: https://blog.example.com/sitemap.xml")
}

func TestUnknownRoute_JSON404(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "Not found", errorOf(t, rr))
	require.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}
