package store

import (
	"context"
	"fmt"

	"bitwise74/blog-api/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PostStore interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error)
	Update(ctx context.Context, p *model.Post) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// List returns one page of posts ordered newest-first, plus the
	// total number of posts across all pages
	List(ctx context.Context, page, perPage int) ([]model.Post, int, error)
}

type MongoPostStore struct {
	c *mongo.Collection
}

func NewMongoPostStore(db *mongo.Database) *MongoPostStore {
	return &MongoPostStore{c: db.Collection("posts")}
}

func (s *MongoPostStore) Create(ctx context.Context, p *model.Post) error {
	res, err := s.c.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to insert post, %w", err)
	}

	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoPostStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	var p model.Post

	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to find post, %w", err)
	}

	return &p, nil
}

func (s *MongoPostStore) Update(ctx context.Context, p *model.Post) error {
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return fmt.Errorf("failed to update post, %w", err)
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *MongoPostStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete post, %w", err)
	}

	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *MongoPostStore) List(ctx context.Context, page, perPage int) ([]model.Post, int, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts, %w", err)
	}

	cur, err := s.c.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page-1)*perPage)).
		SetLimit(int64(perPage)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts, %w", err)
	}
	defer cur.Close(ctx)

	posts := []model.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode posts, %w", err)
	}

	return posts, int(total), nil
}
