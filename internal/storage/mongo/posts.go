package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Excerpt   string             `bson:"excerpt"`
	Category  string             `bson:"category"`
	Thumbnail string             `bson:"thumbnail"`
	Author    string             `bson:"author"`
	Slug      string             `bson:"slug"`
	Published bool               `bson:"published"`
	Views     int64              `bson:"views"`
	Tags      []string           `bson:"tags"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d postDoc) model() models.Post {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}

	return models.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		Excerpt:   d.Excerpt,
		Category:  d.Category,
		Thumbnail: d.Thumbnail,
		Author:    d.Author,
		Slug:      d.Slug,
		Published: d.Published,
		Views:     d.Views,
		Tags:      tags,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// toMS - MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

// CreatePost вставляет пост, выставляя created_at/updated_at.
func (m *Mongo) CreatePost(ctx context.Context, post models.Post) (*models.Post, error) {
	const op = "storage/mongo/CreatePost"

	coll, err := m.collection(ctx, postsCollection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := toMS(time.Now())
	doc := postDoc{
		Title:     post.Title,
		Content:   post.Content,
		Excerpt:   post.Excerpt,
		Category:  post.Category,
		Thumbnail: post.Thumbnail,
		Author:    post.Author,
		Slug:      post.Slug,
		Published: post.Published,
		Views:     0,
		Tags:      post.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}

	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, m.fail(op, coll, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("%s: inserted id type", op)
	}

	doc.ID = oid
	out := doc.model()

	return &out, nil
}

// PostByID возвращает пост по идентификатору.
// Некорректный формат id трактуется как «нет такой записи».
func (m *Mongo) PostByID(ctx context.Context, id string) (*models.Post, error) {
	const op = "storage/mongo/PostByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	coll, err := m.collection(ctx, postsCollection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var doc postDoc
	if err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, m.fail(op, coll, err)
	}

	out := doc.model()

	return &out, nil
}

// ViewPost атомарно инкрементирует views и возвращает пост после обновления.
func (m *Mongo) ViewPost(ctx context.Context, id string, publishedOnly bool) (*models.Post, error) {
	const op = "storage/mongo/ViewPost"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	coll, err := m.collection(ctx, postsCollection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	filter := bson.D{{Key: "_id", Value: oid}}
	if publishedOnly {
		filter = append(filter, bson.E{Key: "published", Value: true})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}}

	var doc postDoc
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, m.fail(op, coll, err)
	}

	out := doc.model()

	return &out, nil
}

// postFilter строит фильтр выборки ленты.
func postFilter(f models.PostFilter) bson.D {
	filter := bson.D{}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}

	if f.Published != nil {
		filter = append(filter, bson.E{Key: "published", Value: *f.Published})
	}

	return filter
}

// ListPosts возвращает страницу ленты (created_at DESC) и total.
// Page/Limit должны быть уже нормализованы вызывающим (>=1).
func (m *Mongo) ListPosts(ctx context.Context, f models.PostFilter) ([]models.Post, int64, error) {
	const op = "storage/mongo/ListPosts"

	coll, err := m.collection(ctx, postsCollection)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = 1
	}

	filter := postFilter(f)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	items, err := m.findPosts(ctx, coll, filter, opts)
	if err != nil {
		return nil, 0, m.fail(op, coll, err)
	}

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, m.fail(op, coll, err)
	}

	return items, total, nil
}

// UpdatePost применяет $set по заданным полям.
func (m *Mongo) UpdatePost(ctx context.Context, id string, upd models.PostUpdate) (*models.Post, error) {
	const op = "storage/mongo/UpdatePost"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	coll, err := m.collection(ctx, postsCollection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.D{{Key: "$set", Value: updateSet(upd, toMS(time.Now()))}}

	var doc postDoc
	if err := coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, m.fail(op, coll, err)
	}

	out := doc.model()

	return &out, nil
}

// updateSet собирает документ $set из непустых полей обновления.
func updateSet(upd models.PostUpdate, now time.Time) bson.D {
	set := bson.D{}
	add := func(key string, v any) { set = append(set, bson.E{Key: key, Value: v}) }

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Content != nil {
		add("content", *upd.Content)
	}
	if upd.Excerpt != nil {
		add("excerpt", *upd.Excerpt)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Thumbnail != nil {
		add("thumbnail", *upd.Thumbnail)
	}
	if upd.Author != nil {
		add("author", *upd.Author)
	}
	if upd.Published != nil {
		add("published", *upd.Published)
	}
	if upd.Tags != nil {
		tags := *upd.Tags
		if tags == nil {
			tags = []string{}
		}
		add("tags", tags)
	}

	add("updated_at", now)

	return set
}

// DeletePost удаляет пост. При отсутствии записи - storage.ErrNotFound.
func (m *Mongo) DeletePost(ctx context.Context, id string) error {
	const op = "storage/mongo/DeletePost"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	coll, err := m.collection(ctx, postsCollection)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return m.fail(op, coll, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// SlugExists проверяет занятость slug.
func (m *Mongo) SlugExists(ctx context.Context, slug string) (bool, error) {
	const op = "storage/mongo/SlugExists"

	coll, err := m.collection(ctx, postsCollection)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	n, err := coll.CountDocuments(ctx, bson.D{{Key: "slug", Value: slug}}, options.Count().SetLimit(1))
	if err != nil {
		return false, m.fail(op, coll, err)
	}

	return n > 0, nil
}

// PublishedPosts возвращает до limit опубликованных постов (для sitemap).
func (m *Mongo) PublishedPosts(ctx context.Context, limit int) ([]models.Post, error) {
	const op = "storage/mongo/PublishedPosts"

	coll, err := m.collection(ctx, postsCollection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.D{{Key: "content", Value: 0}})

	items, err := m.findPosts(ctx, coll, bson.D{{Key: "published", Value: true}}, opts)
	if err != nil {
		return nil, m.fail(op, coll, err)
	}

	return items, nil
}

func (m *Mongo) findPosts(ctx context.Context, coll *mongodriver.Collection, filter bson.D, opts *options.FindOptions) ([]models.Post, error) {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := make([]models.Post, 0)
	for cur.Next(ctx) {
		var doc postDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc.model())
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
