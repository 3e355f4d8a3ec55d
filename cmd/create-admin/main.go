// create-admin создаёт или обновляет учётную запись администратора.
//
//	go run ./cmd/create-admin --username admin --email admin@example.com
//
// Без --password генерируется случайный пароль, он печатается один раз.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pribylovaa/techblog/internal/config"
	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/pkg/redact"
	"github.com/pribylovaa/techblog/internal/service"
	"github.com/pribylovaa/techblog/internal/storage"
	"github.com/pribylovaa/techblog/internal/storage/mongo"
)

const (
	generatedPasswordLen = 24
	passwordAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%^&*"
	minPasswordLen       = 6
)

func main() {
	var (
		configPath string
		username   string
		email      string
		password   string
		role       string
	)
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&username, "username", "admin", "account username")
	flag.StringVar(&email, "email", "admin@techblog.local", "account email")
	flag.StringVar(&password, "password", "", "account password (generated when empty)")
	flag.StringVar(&role, "role", string(models.RoleAdmin), "account role: admin or user")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := loadDotEnv(".env.local", ".env"); err != nil {
		log.Error("dotenv_load_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("config_load_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	acc := models.Account{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Role:     models.Role(role),
	}
	if acc.Username == "" || acc.Email == "" {
		log.Error("invalid_arguments", slog.String("err", "username and email are required"))
		os.Exit(2)
	}
	if !acc.Role.Valid() {
		log.Error("invalid_arguments", slog.String("err", fmt.Sprintf("unknown role %q", role)))
		os.Exit(2)
	}

	generated := password == ""
	if generated {
		password, err = generatePassword(generatedPasswordLen)
		if err != nil {
			log.Error("password_generate_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}
	if len(password) < minPasswordLen {
		log.Error("invalid_arguments", slog.String("err", "password must be at least 6 characters"))
		os.Exit(2)
	}

	acc.PasswordHash, err = service.HashPassword(password)
	if err != nil {
		log.Error("password_hash_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := mongo.NewConn(cfg.DB, log)
	if err != nil {
		log.Error("mongo_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	store := mongo.New(conn)
	defer func() { _ = store.Close(context.Background()) }()

	saved, err := provision(ctx, store, acc, log)
	if errors.Is(err, storage.ErrAccountConflict) {
		os.Exit(2)
	}
	if err != nil {
		os.Exit(1)
	}

	if generated {
		fmt.Printf("Generated password for %s: %s\nStore it now, it will not be shown again.\n", saved.Username, password)
	}
}

// provision сохраняет аккаунт и логирует, создан он или обновлён.
// Конфликт username/email логируется отдельно: это ошибка аргументов, а не БД.
func provision(ctx context.Context, accounts storage.AccountStorage, acc models.Account, log *slog.Logger) (*models.Account, error) {
	saved, created, err := accounts.UpsertAccount(ctx, acc)
	switch {
	case errors.Is(err, storage.ErrAccountConflict):
		log.Error("account_conflict",
			slog.String("username", acc.Username),
			slog.String("email", redact.Email(acc.Email)),
			slog.String("hint", "username and email belong to different accounts; pass the pair of one account or two unused values"),
		)
		return nil, err
	case err != nil:
		log.Error("account_upsert_failed", slog.String("err", err.Error()))
		return nil, err
	}

	event := "account_updated"
	if created {
		event = "account_created"
	}
	log.Info(event,
		slog.String("id", saved.ID),
		slog.String("username", saved.Username),
		slog.String("email", redact.Email(saved.Email)),
		slog.String("role", string(saved.Role)),
	)

	return saved, nil
}

// loadDotEnv подгружает файлы по порядку; уже заданные переменные не перетираются,
// поэтому первый файл имеет приоритет. Отсутствующие файлы пропускаются.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", f, err)
		}
	}

	return nil
}

func generatePassword(n int) (string, error) {
	alphabet := big.NewInt(int64(len(passwordAlphabet)))

	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[idx.Int64()])
	}

	return b.String(), nil
}
