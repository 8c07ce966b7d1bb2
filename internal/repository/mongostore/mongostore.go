// Package mongostore implements the stores on MongoDB using the collection
// names of the existing deployment (users, posts, educations, experiences).
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/portfolio-api/internal/model"
	"github.com/iliyamo/portfolio-api/internal/repository"
)

// idFilter matches both ids written by this store (hex strings) and
// documents inserted earlier with a native ObjectID.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

// Collection is a generic DocumentStore over one Mongo collection.
type Collection[T any, PT interface {
	*T
	model.Document
}] struct {
	coll *mongo.Collection
}

func NewCollection[T any, PT interface {
	*T
	model.Document
}](coll *mongo.Collection) *Collection[T, PT] {
	return &Collection[T, PT]{coll: coll}
}

func (c *Collection[T, PT]) List(ctx context.Context) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := c.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.coll.Name(), err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return out, nil
}

func (c *Collection[T, PT]) GetByID(ctx context.Context, id string) (*T, error) {
	var doc T
	err := c.coll.FindOne(ctx, idFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Collection[T, PT]) Create(ctx context.Context, doc *T) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	meta := PT(doc).Base()
	meta.ID, meta.CreatedAt, meta.UpdatedAt = primitive.NewObjectID().Hex(), now, now
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert %s: %w", c.coll.Name(), err)
	}
	return nil
}

// Update sets every mutable field; _id and createdAt are left untouched.
func (c *Collection[T, PT]) Update(ctx context.Context, doc *T) error {
	meta := PT(doc).Base()
	meta.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	set, err := toSetDocument(doc)
	if err != nil {
		return err
	}
	res, err := c.coll.UpdateOne(ctx, idFilter(meta.ID), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s: %w", c.coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	var stored model.Meta
	projection := options.FindOne().SetProjection(bson.M{"createdAt": 1})
	if err := c.coll.FindOne(ctx, idFilter(meta.ID), projection).Decode(&stored); err != nil {
		return err
	}
	meta.CreatedAt = stored.CreatedAt
	return nil
}

func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	_, err := c.coll.DeleteOne(ctx, idFilter(id))
	return err
}

func toSetDocument(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	delete(m, "_id")
	delete(m, "createdAt")
	return m, nil
}

// Users stores credentials in the users collection.
type Users struct{ coll *mongo.Collection }

func NewUsers(coll *mongo.Collection) *Users { return &Users{coll: coll} }

// EnsureIndexes creates the unique username index that backs ErrConflict.
func (s *Users) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *Users) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	u.ID, u.CreatedAt, u.UpdatedAt = primitive.NewObjectID().Hex(), now, now
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Users) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.coll.FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Users) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}

// NewStores binds every store to db and makes sure the indexes exist.
func NewStores(ctx context.Context, db *mongo.Database) (repository.Stores, error) {
	users := NewUsers(db.Collection("users"))
	if err := users.EnsureIndexes(ctx); err != nil {
		return repository.Stores{}, fmt.Errorf("users index: %w", err)
	}
	return repository.Stores{
		Users:      users,
		Posts:      NewCollection[model.Post](db.Collection("posts")),
		Education:  NewCollection[model.Education](db.Collection("educations")),
		Experience: NewCollection[model.Experience](db.Collection("experiences")),
	}, nil
}
