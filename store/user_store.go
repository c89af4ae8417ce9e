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

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
	AppendPost(ctx context.Context, userID, postID primitive.ObjectID) error
	RemovePost(ctx context.Context, userID, postID primitive.ObjectID) error
}

type MongoUserStore struct {
	c *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) (*MongoUserStore, error) {
	c := db.Collection("users")

	// Email uniqueness is enforced by the collection, not re-checked on
	// every write
	_, err := c.Indexes().CreateOne(context.TODO(), mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create email index, %w", err)
	}

	return &MongoUserStore{c: c}, nil
}

func (s *MongoUserStore) Create(ctx context.Context, u *model.User) error {
	if u.Posts == nil {
		u.Posts = []primitive.ObjectID{}
	}

	res, err := s.c.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}

		return fmt.Errorf("failed to insert user, %w", err)
	}

	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoUserStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var u model.User

	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to find user, %w", err)
	}

	return &u, nil
}

func (s *MongoUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to find user, %w", err)
	}

	return &u, nil
}

func (s *MongoUserStore) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to update status, %w", err)
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *MongoUserStore) AppendPost(ctx context.Context, userID, postID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, userID, bson.M{"$push": bson.M{"posts": postID}})
	if err != nil {
		return fmt.Errorf("failed to append post reference, %w", err)
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *MongoUserStore) RemovePost(ctx context.Context, userID, postID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, userID, bson.M{"$pull": bson.M{"posts": postID}})
	if err != nil {
		return fmt.Errorf("failed to remove post reference, %w", err)
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}
