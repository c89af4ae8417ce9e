package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Post struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title   string             `bson:"title" json:"title"`
	Content string             `bson:"content" json:"content"`

	// Relative path of the stored image, served under /images
	ImageURL string `bson:"image_url" json:"image_url"`

	// Immutable after creation
	Creator primitive.ObjectID `bson:"creator" json:"creator"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
