// config предоставляет структуру конфигурации techblog и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Константы окружения.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config - корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	DB        DBConfig        `yaml:"db"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis"`
	Mail      MailConfig      `yaml:"mail"`
	Site      SiteConfig      `yaml:"site"`
	Posts     PostsConfig     `yaml:"posts"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
}

// TimeoutConfig - общий дедлайн обработки HTTP-запроса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"15s"`
}

// HTTPConfig - сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"3000"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// DBConfig - подключение к MongoDB. Имя БД берётся из пути URI.
type DBConfig struct {
	URL string `yaml:"url" env:"MONGODB_URI" env-required:"true"`
}

// AuthConfig содержит параметры выпуска и проверки токенов и cookie.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"  env:"JWT_SECRET" env-required:"true"`
	TokenTTL   time.Duration `yaml:"token_ttl"   env:"TOKEN_TTL" env-default:"168h"`
	CookieName string        `yaml:"cookie_name" env:"AUTH_COOKIE_NAME" env-default:"auth-token"`
	// CookieSecure принудительно включает Secure вне prod (в prod он включён всегда).
	CookieSecure bool `yaml:"cookie_secure" env:"AUTH_COOKIE_SECURE" env-default:"false"`
}

// PolicyConfig - параметры одной политики fixed-window лимитера.
type PolicyConfig struct {
	Window  time.Duration `yaml:"window"`
	Max     int           `yaml:"max"`
	Message string        `yaml:"message"`
}

// RateLimitConfig - выбор хранилища счётчиков и переопределения политик.
// Пустые политики заменяются значениями ratelimit.DefaultPolicies().
type RateLimitConfig struct {
	// Backend - memory (один инстанс) или redis (общий счётчик).
	Backend string `yaml:"backend" env:"RATE_LIMIT_BACKEND" env-default:"memory"`
	// TrustForwarded - брать адрес клиента из X-Forwarded-For.
	TrustForwarded bool         `yaml:"trust_forwarded" env:"RATE_LIMIT_TRUST_FORWARDED" env-default:"false"`
	Contact        PolicyConfig `yaml:"contact"`
	Newsletter     PolicyConfig `yaml:"newsletter"`
	Login          PolicyConfig `yaml:"login"`
	API            PolicyConfig `yaml:"api"`
}

// RedisConfig - общий Redis для лимитера и очереди писем.
type RedisConfig struct {
	URL string `yaml:"url" env:"REDIS_URL"`
}

// MailConfig - SMTP и адреса рассылки.
type MailConfig struct {
	Host     string `yaml:"host"     env:"SMTP_HOST"`
	Port     string `yaml:"port"     env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from"     env:"MAIL_FROM"`
	// Owner - адрес владельца сайта для уведомлений.
	Owner string `yaml:"owner" env:"MAIL_OWNER"`
	// Async - отправка через очередь asynq (нужен redis.url).
	Async bool `yaml:"async" env:"MAIL_ASYNC" env-default:"false"`
}

// Enabled сообщает, сконфигурирован ли SMTP.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.Username != "" && m.Password != ""
}

// Addr возвращает адрес SMTP-сервера.
func (m MailConfig) Addr() string {
	return net.JoinHostPort(m.Host, m.Port)
}

// SiteConfig - публичные параметры сайта (sitemap/robots).
type SiteConfig struct {
	BaseURL string `yaml:"base_url" env:"SITE_URL" env-default:"http://localhost:3000"`
}

// PostsConfig - пагинация ленты.
type PostsConfig struct {
	DefaultLimit int `yaml:"default_limit" env:"POSTS_DEFAULT_LIMIT" env-default:"10"`
	MaxLimit     int `yaml:"max_limit"     env:"POSTS_MAX_LIMIT" env-default:"100"`
}

// SecureCookie возвращает итоговый флаг Secure для auth-cookie.
func (c *Config) SecureCookie() bool {
	return c.Env == EnvProd || c.Auth.CookieSecure
}

// MustLoad - обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	var (
		c   *Config
		err error
	)

	switch {
	// 1) Явный путь.
	case path != "":
		c, err = tryRead(path)

	// 2) CONFIG_PATH.
	case os.Getenv("CONFIG_PATH") != "":
		c, err = tryRead(os.Getenv("CONFIG_PATH"))

	// 3) ./local.yaml.
	case fileExists("local.yaml"):
		c, err = tryRead("local.yaml")

	// 4) Только ENV.
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
		c = &cfg
	}

	if err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validate проверяет инварианты, которые cleanenv выразить не может.
func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret (JWT_SECRET) is required")
	}

	if c.DB.URL == "" {
		return errors.New("config: db.url (MONGODB_URI) is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("config: auth.token_ttl must be > 0, got %s", c.Auth.TokenTTL)
	}

	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("config: redis.url is required for rate_limit.backend=redis")
		}
	default:
		return fmt.Errorf("config: unknown rate_limit.backend %q", c.RateLimit.Backend)
	}

	for name, p := range map[string]PolicyConfig{
		"contact":    c.RateLimit.Contact,
		"newsletter": c.RateLimit.Newsletter,
		"login":      c.RateLimit.Login,
		"api":        c.RateLimit.API,
	} {
		if p.Window < 0 || p.Max < 0 {
			return fmt.Errorf("config: rate_limit.%s: window and max must not be negative", name)
		}
	}

	if c.Mail.Async && c.Redis.URL == "" {
		return errors.New("config: redis.url is required for mail.async")
	}

	if c.Posts.DefaultLimit <= 0 || c.Posts.MaxLimit < c.Posts.DefaultLimit {
		return fmt.Errorf("config: posts limits are inconsistent (default=%d, max=%d)", c.Posts.DefaultLimit, c.Posts.MaxLimit)
	}

	return nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
