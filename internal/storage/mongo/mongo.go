package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/pribylovaa/techblog/internal/config"
	"github.com/pribylovaa/techblog/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	accountsCollection    = "users"
	postsCollection       = "posts"
	subscribersCollection = "subscribers"
	defaultDBName         = "techblog"
)

// Conn - лениво инициализируемое подключение к MongoDB.
// Клиент создаётся при первом обращении, переиспользуется всеми запросами
// и пересоздаётся только после сетевой ошибки или таймаута драйвера.
type Conn struct {
	uri    string
	dbName string
	log    *slog.Logger

	mu     sync.Mutex
	client *mongodriver.Client
	db     *mongodriver.Database
}

// NewConn проверяет конфигурацию, но к БД не подключается.
func NewConn(cfg config.DBConfig, log *slog.Logger) (*Conn, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("mongo: empty cfg.DB.URL")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Conn{
		uri:    cfg.URL,
		dbName: databaseFromURI(cfg.URL),
		log:    log,
	}, nil
}

// Database возвращает рабочую БД, подключаясь при необходимости.
func (c *Conn) Database(ctx context.Context) (*mongodriver.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(c.uri))
	if err != nil {
		c.log.Error("mongo_connect_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		c.log.Error("mongo_ping_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(c.dbName)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}

	c.client, c.db = cli, db
	c.log.Info("mongo_connected", slog.String("db", c.dbName))

	return db, nil
}

// Observe сбрасывает подключение, если err - сетевая ошибка или таймаут драйвера,
// полученная на текущем клиенте. Ошибки операций на уже сброшенном клиенте
// не трогают новый. Следующий вызов Database подключится заново.
func (c *Conn) Observe(cli *mongodriver.Client, err error) {
	if cli == nil || !isConnFault(err) {
		return
	}

	c.mu.Lock()
	if c.client != cli {
		c.mu.Unlock()
		return
	}
	c.client, c.db = nil, nil
	c.mu.Unlock()

	c.log.Warn("mongo_connection_reset", slog.String("err", err.Error()))
	go func() { _ = cli.Disconnect(context.Background()) }()
}

// Close закрывает текущий клиент, если он есть.
func (c *Conn) Close(ctx context.Context) error {
	c.mu.Lock()
	cli := c.client
	c.client, c.db = nil, nil
	c.mu.Unlock()

	if cli == nil {
		return nil
	}

	return cli.Disconnect(ctx)
}

func isConnFault(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, mongodriver.ErrClientDisconnected) {
		return true
	}

	return mongodriver.IsNetworkError(err) || mongodriver.IsTimeout(err)
}

// ensureIndexes создаёт индексы:
//   - users: уникальные username и email;
//   - posts: уникальный slug, лента published + created_at(desc), категория;
//   - subscribers: уникальный email.
func ensureIndexes(ctx context.Context, db *mongodriver.Database) error {
	sets := map[string][]mongodriver.IndexModel{
		accountsCollection: {
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetName("uniq_username").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_email").SetUnique(true),
			},
		},
		postsCollection: {
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetName("uniq_slug").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "published", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("published_created_desc"),
			},
			{
				Keys:    bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("category_created_desc"),
			},
		},
		subscribersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_email").SetUnique(true),
			},
		},
	}

	for coll, models := range sets {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo ensure indexes (%s): %w", coll, err)
		}
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддается расшифровке, возвращает значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return defaultDBName
}

// Mongo - реализация storage.Storage поверх Conn.
type Mongo struct {
	conn *Conn
}

// New создаёт хранилище. Подключение откладывается до первого запроса.
func New(conn *Conn) *Mongo {
	return &Mongo{conn: conn}
}

// Close закрывает подключение.
func (m *Mongo) Close(ctx context.Context) error {
	return m.conn.Close(ctx)
}

// collection возвращает коллекцию, подключаясь при необходимости.
func (m *Mongo) collection(ctx context.Context, name string) (*mongodriver.Collection, error) {
	db, err := m.conn.Database(ctx)
	if err != nil {
		return nil, err
	}

	return db.Collection(name), nil
}

// fail оборачивает ошибку драйвера и сообщает Conn о сбое соединения
// клиента, на котором выполнялась операция над coll.
func (m *Mongo) fail(op string, coll *mongodriver.Collection, err error) error {
	if coll != nil {
		m.conn.Observe(coll.Database().Client(), err)
	}

	if mongodriver.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	return fmt.Errorf("%s: %w", op, err)
}

var _ storage.Storage = (*Mongo)(nil)
