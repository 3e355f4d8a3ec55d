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

type accountDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password,omitempty"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d accountDoc) model() *models.Account {
	return &models.Account{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         models.Role(d.Role),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// AccountByID возвращает аккаунт без поля password.
func (m *Mongo) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	const op = "storage/mongo/AccountByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	coll, err := m.collection(ctx, accountsCollection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var doc accountDoc
	opts := options.FindOne().SetProjection(bson.D{{Key: "password", Value: 0}})
	if err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, m.fail(op, coll, err)
	}

	return doc.model(), nil
}

// AccountByLogin ищет по username или по email в нижнем регистре.
func (m *Mongo) AccountByLogin(ctx context.Context, identifier string) (*models.Account, error) {
	const op = "storage/mongo/AccountByLogin"

	ident := strings.TrimSpace(identifier)
	if ident == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	coll, err := m.collection(ctx, accountsCollection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: ident}},
		bson.D{{Key: "email", Value: strings.ToLower(ident)}},
	}}}

	var doc accountDoc
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, m.fail(op, coll, err)
	}

	return doc.model(), nil
}

// UpsertAccount создаёт аккаунт или обновляет существующий. Сначала ищется
// совпадение по username, затем по email. Если username и email уже заняты
// разными аккаунтами, возвращается storage.ErrAccountConflict.
func (m *Mongo) UpsertAccount(ctx context.Context, acc models.Account) (*models.Account, bool, error) {
	const op = "storage/mongo/UpsertAccount"

	coll, err := m.collection(ctx, accountsCollection)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	email := strings.ToLower(strings.TrimSpace(acc.Email))

	byName, nameFound, err := accountIDBy(ctx, coll, "username", acc.Username)
	if err != nil {
		return nil, false, m.fail(op, coll, err)
	}
	byEmail, emailFound, err := accountIDBy(ctx, coll, "email", email)
	if err != nil {
		return nil, false, m.fail(op, coll, err)
	}

	if nameFound && emailFound && byName != byEmail {
		return nil, false, fmt.Errorf("%s: username %q and email belong to different accounts: %w",
			op, acc.Username, storage.ErrAccountConflict)
	}

	if !nameFound && !emailFound {
		doc := accountDoc{
			Username:  acc.Username,
			Email:     email,
			Password:  acc.PasswordHash,
			Role:      string(acc.Role),
			CreatedAt: now,
			UpdatedAt: now,
		}

		res, err := coll.InsertOne(ctx, doc)
		if err != nil {
			return nil, false, m.fail(op, coll, err)
		}

		oid, ok := res.InsertedID.(primitive.ObjectID)
		if !ok {
			return nil, false, fmt.Errorf("%s: inserted id type", op)
		}

		doc.ID = oid
		doc.Password = ""

		return doc.model(), true, nil
	}

	target := byName
	if !nameFound {
		target = byEmail
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "username", Value: acc.Username},
		{Key: "email", Value: email},
		{Key: "password", Value: acc.PasswordHash},
		{Key: "role", Value: string(acc.Role)},
		{Key: "updated_at", Value: now},
	}}}

	if _, err := coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: target}}, update); err != nil {
		return nil, false, m.fail(op, coll, err)
	}

	var doc accountDoc
	opts := options.FindOne().SetProjection(bson.D{{Key: "password", Value: 0}})
	if err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: target}}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, false, m.fail(op, coll, err)
	}

	return doc.model(), false, nil
}

// accountIDBy возвращает _id аккаунта с field == value.
func accountIDBy(ctx context.Context, coll *mongodriver.Collection, field, value string) (primitive.ObjectID, bool, error) {
	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}

	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})
	if err := coll.FindOne(ctx, bson.D{{Key: field, Value: value}}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return primitive.NilObjectID, false, nil
		}

		return primitive.NilObjectID, false, err
	}

	return doc.ID, true, nil
}
