package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/techblog/internal/config"
	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/storage"
	"github.com/pribylovaa/techblog/internal/token"
	"github.com/pribylovaa/techblog/mocks"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testCfg() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "unit-secret",
			TokenTTL:  168 * time.Hour,
		},
		Mail:  config.MailConfig{Owner: "owner@example.com"},
		Site:  config.SiteConfig{BaseURL: "https://blog.example.com"},
		Posts: config.PostsConfig{DefaultLimit: 10, MaxLimit: 100},
	}
}

type fixture struct {
	svc    *Service
	st     *mocks.MockStorage
	mailer *mocks.MockDispatcher
	codec  *token.Codec
}

func newSvc(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	mailer := mocks.NewMockDispatcher(ctrl)

	cfg := testCfg()
	codec, err := token.New(cfg.Auth, token.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	svc := New(st, codec, cfg)
	svc.SetMailer(mailer)
	svc.now = func() time.Time { return fixedNow }

	return &fixture{svc: svc, st: st, mailer: mailer, codec: codec}
}

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func requireValidation(t *testing.T, err error, msg string) {
	t.Helper()
	require.ErrorIs(t, err, ErrInvalidInput)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, msg, ve.Message)
}

func TestLogin_OK(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	f.st.EXPECT().AccountByLogin(gomock.Any(), "admin").Return(&models.Account{
		ID:           "u1",
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: mustHashPW(t, "s3cret!"),
		Role:         models.RoleAdmin,
	}, nil)

	res, err := f.svc.Login(context.Background(), "  admin ", "s3cret!")
	require.NoError(t, err)
	require.Empty(t, res.Account.PasswordHash)
	require.Equal(t, "admin", res.Account.Username)
	require.Equal(t, fixedNow.Add(168*time.Hour), res.ExpiresAt)

	id, err := f.codec.Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, models.Identity{SubjectID: "u1", Username: "admin", Role: models.RoleAdmin}, id)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	f.st.EXPECT().AccountByLogin(gomock.Any(), "admin@example.com").Return(&models.Account{
		ID:           "u1",
		Username:     "admin",
		PasswordHash: mustHashPW(t, "s3cret!"),
		Role:         models.RoleAdmin,
	}, nil)

	_, err := f.svc.Login(context.Background(), "admin@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser_SameError(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	f.st.EXPECT().AccountByLogin(gomock.Any(), "ghost").Return(nil, storage.ErrNotFound)

	_, err := f.svc.Login(context.Background(), "ghost", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDummyHash_IsValidAtAccountCost(t *testing.T) {
	t.Parallel()

	cost, err := bcrypt.Cost(dummyHash)
	require.NoError(t, err)
	require.Equal(t, HashCost, cost)

	// Сравнение должно дойти до проверки хэша, а не упасть на разборе.
	err = bcrypt.CompareHashAndPassword(dummyHash, []byte("anything"))
	require.ErrorIs(t, err, bcrypt.ErrMismatchedHashAndPassword)
}

func TestLogin_InvalidFormat(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	_, err := f.svc.Login(context.Background(), "", "")
	requireValidation(t, err, "Username and password are required")

	_, err = f.svc.Login(context.Background(), "ab", "123456")
	requireValidation(t, err, "Invalid username or password format")

	_, err = f.svc.Login(context.Background(), "admin", "12345")
	requireValidation(t, err, "Invalid username or password format")
}

func TestLogin_StoreFault_Propagated(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	f.st.EXPECT().AccountByLogin(gomock.Any(), "admin").Return(nil, errors.New("db down"))

	_, err := f.svc.Login(context.Background(), "admin", "s3cret!")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
	require.Contains(t, err.Error(), "db down")
}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("correct horse")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	require.Equal(t, HashCost, cost)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("correct horse")))
}

func TestSitemapEntries(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	updated := fixedNow.Add(-time.Hour)
	f.st.EXPECT().PublishedPosts(gomock.Any(), 100).Return([]models.Post{
		{ID: "p1", UpdatedAt: updated},
		{ID: "p2"},
	}, nil)

	entries := f.svc.SitemapEntries(context.Background())
	require.Len(t, entries, 7)
	require.Equal(t, "/", entries[0].Path)
	require.Equal(t, 1.0, entries[0].Priority)
	require.Equal(t, "/posts/p1", entries[5].Path)
	require.Equal(t, updated, entries[5].LastMod)
	require.Equal(t, "weekly", entries[5].ChangeFreq)
	require.Equal(t, fixedNow, entries[6].LastMod)
}

func TestSitemapEntries_StoreDown_StaticOnly(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	f.st.EXPECT().PublishedPosts(gomock.Any(), 100).Return(nil, errors.New("db down"))

	entries := f.svc.SitemapEntries(context.Background())
	require.Len(t, entries, 5)
}
