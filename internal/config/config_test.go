package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile - утилита записи временного файла конфигурации.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

// chdir - смена текущего рабочего каталога с авто-возвратом.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// Полный корректный YAML под текущую структуру config.go.
const sampleYAML = `
env: "prod"
http:
  host: "127.0.0.1"
  port: "8080"
db:
  url: "mongodb://localhost:27017/techblog"
auth:
  jwt_secret: "yaml-secret"
  token_ttl: "24h"
  cookie_name: "auth-token"
rate_limit:
  backend: "memory"
  trust_forwarded: true
  login:
    window: "10m"
    max: 7
    message: "slow down"
mail:
  host: "smtp.example.com"
  port: "465"
  username: "bot"
  password: "pw"
  from: "bot@example.com"
  owner: "owner@example.com"
site:
  base_url: "https://blog.example.com"
posts:
  default_limit: 5
  max_limit: 50
timeouts:
  service: "3s"
`

// Минимальный YAML (всё остальное - через дефолты/ENV).
const minimalYAML = `
db:
  url: "mongodb://localhost:27017/techblog"
auth:
  jwt_secret: "s"
`

// Некорректный YAML для проверки сообщений об ошибке.
const brokenYAML = `
env: [unclosed
`

func TestHTTPConfig_Addr(t *testing.T) {
	t.Parallel()
	cfg := HTTPConfig{Host: "0.0.0.0", Port: "8080"}
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestMailConfig_EnabledAndAddr(t *testing.T) {
	t.Parallel()

	require.False(t, MailConfig{}.Enabled())
	require.False(t, MailConfig{Host: "smtp", Username: "u"}.Enabled())

	m := MailConfig{Host: "smtp.example.com", Port: "587", Username: "u", Password: "p"}
	require.True(t, m.Enabled())
	require.Equal(t, "smtp.example.com:587", m.Addr())
}

func TestSecureCookie(t *testing.T) {
	t.Parallel()

	require.True(t, (&Config{Env: EnvProd}).SecureCookie())
	require.False(t, (&Config{Env: EnvLocal}).SecureCookie())
	require.True(t, (&Config{Env: EnvDev, Auth: AuthConfig{CookieSecure: true}}).SecureCookie())
}

// Тесты ниже трогают ENV/рабочую директорию - без t.Parallel().

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr())
	require.Equal(t, "mongodb://localhost:27017/techblog", cfg.DB.URL)
	require.Equal(t, "yaml-secret", cfg.Auth.JWTSecret)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, "auth-token", cfg.Auth.CookieName)
	require.True(t, cfg.RateLimit.TrustForwarded)
	require.Equal(t, 10*time.Minute, cfg.RateLimit.Login.Window)
	require.Equal(t, 7, cfg.RateLimit.Login.Max)
	require.True(t, cfg.Mail.Enabled())
	require.Equal(t, "https://blog.example.com", cfg.Site.BaseURL)
	require.Equal(t, 5, cfg.Posts.DefaultLimit)
	require.Equal(t, 3*time.Second, cfg.Timeouts.Service)
	require.True(t, cfg.SecureCookie())
}

func TestLoad_Defaults_FromMinimalYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, EnvLocal, cfg.Env)
	require.Equal(t, "0.0.0.0:3000", cfg.HTTP.Addr())
	require.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, "auth-token", cfg.Auth.CookieName)
	require.Equal(t, "memory", cfg.RateLimit.Backend)
	require.Equal(t, 10, cfg.Posts.DefaultLimit)
	require.Equal(t, 100, cfg.Posts.MaxLimit)
	require.Equal(t, 15*time.Second, cfg.Timeouts.Service)
	require.False(t, cfg.Mail.Enabled())
}

func TestLoad_EnvOverlayOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("HTTP_PORT", "9999")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	require.Equal(t, "9999", cfg.HTTP.Port)
}

func TestLoad_ConfigPathEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "cfg.yaml", minimalYAML)
	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "s", cfg.Auth.JWTSecret)
}

func TestLoad_LocalYAMLInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "local.yaml", minimalYAML)
	chdir(t, dir)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "mongodb://localhost:27017/techblog", cfg.DB.URL)
}

func TestLoad_EnvOnly(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("MONGODB_URI", "mongodb://db:27017/blog")
	t.Setenv("JWT_SECRET", "env-only")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "mongodb://db:27017/blog", cfg.DB.URL)
	require.Equal(t, "env-only", cfg.Auth.JWTSecret)
}

func TestLoad_MissingSecret_IsFatal(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("MONGODB_URI", "mongodb://db:27017/blog")
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_BrokenYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "broken.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "stat failed")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			DB:        DBConfig{URL: "mongodb://x"},
			Auth:      AuthConfig{JWTSecret: "s", TokenTTL: time.Hour},
			RateLimit: RateLimitConfig{Backend: "memory"},
			Posts:     PostsConfig{DefaultLimit: 10, MaxLimit: 100},
		}
	}

	ok := base()
	require.NoError(t, ok.validate())

	redisNoURL := base()
	redisNoURL.RateLimit.Backend = "redis"
	require.Error(t, redisNoURL.validate())

	redisOK := base()
	redisOK.RateLimit.Backend = "redis"
	redisOK.Redis.URL = "redis://localhost:6379/0"
	require.NoError(t, redisOK.validate())

	unknown := base()
	unknown.RateLimit.Backend = "memcached"
	require.Error(t, unknown.validate())

	negative := base()
	negative.RateLimit.Contact.Max = -1
	require.Error(t, negative.validate())

	asyncMail := base()
	asyncMail.Mail.Async = true
	require.Error(t, asyncMail.validate())

	limits := base()
	limits.Posts.MaxLimit = 5
	require.Error(t, limits.validate())

	noTTL := base()
	noTTL.Auth.TokenTTL = 0
	require.Error(t, noTTL.validate())
}
