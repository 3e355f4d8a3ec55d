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
)

type subscriberDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	SubscribedAt time.Time          `bson:"subscribed_at"`
	IsActive     bool               `bson:"is_active"`
}

func (d subscriberDoc) model() *models.Subscriber {
	return &models.Subscriber{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		SubscribedAt: d.SubscribedAt.UTC(),
		IsActive:     d.IsActive,
	}
}

// SubscriberByEmail ищет подписчика по email (в нижнем регистре).
func (m *Mongo) SubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	const op = "storage/mongo/SubscriberByEmail"

	coll, err := m.collection(ctx, subscribersCollection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var doc subscriberDoc
	filter := bson.D{{Key: "email", Value: strings.ToLower(strings.TrimSpace(email))}}
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, m.fail(op, coll, err)
	}

	return doc.model(), nil
}

// AddSubscriber вставляет подписчика. Дубликат email - storage.ErrAlreadyExists.
func (m *Mongo) AddSubscriber(ctx context.Context, sub models.Subscriber) (*models.Subscriber, error) {
	const op = "storage/mongo/AddSubscriber"

	coll, err := m.collection(ctx, subscribersCollection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	doc := subscriberDoc{
		Email:        strings.ToLower(strings.TrimSpace(sub.Email)),
		SubscribedAt: toMS(sub.SubscribedAt),
		IsActive:     sub.IsActive,
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

	return doc.model(), nil
}

// ReactivateSubscriber выставляет is_active=true и новую дату подписки.
func (m *Mongo) ReactivateSubscriber(ctx context.Context, email string, at time.Time) error {
	const op = "storage/mongo/ReactivateSubscriber"

	coll, err := m.collection(ctx, subscribersCollection)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := coll.UpdateOne(ctx,
		bson.D{{Key: "email", Value: strings.ToLower(strings.TrimSpace(email))}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "is_active", Value: true},
			{Key: "subscribed_at", Value: toMS(at)},
		}}},
	)
	if err != nil {
		return m.fail(op, coll, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
