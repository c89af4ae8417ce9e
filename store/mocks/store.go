// Package mocks provides testify mocks for the store interfaces
package mocks

import (
	"context"

	"bitwise74/blog-api/model"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore struct {
	mock.Mock
}

func (m *UserStore) Create(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	args := m.Called(ctx, id)

	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)

	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *UserStore) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *UserStore) AppendPost(ctx context.Context, userID, postID primitive.ObjectID) error {
	args := m.Called(ctx, userID, postID)
	return args.Error(0)
}

func (m *UserStore) RemovePost(ctx context.Context, userID, postID primitive.ObjectID) error {
	args := m.Called(ctx, userID, postID)
	return args.Error(0)
}

type PostStore struct {
	mock.Mock
}

func (m *PostStore) Create(ctx context.Context, p *model.Post) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *PostStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	args := m.Called(ctx, id)

	if p := args.Get(0); p != nil {
		return p.(*model.Post), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *PostStore) Update(ctx context.Context, p *model.Post) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *PostStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *PostStore) List(ctx context.Context, page, perPage int) ([]model.Post, int, error) {
	args := m.Called(ctx, page, perPage)

	if p := args.Get(0); p != nil {
		return p.([]model.Post), args.Int(1), args.Error(2)
	}

	return nil, args.Int(1), args.Error(2)
}
