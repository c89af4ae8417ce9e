// Package model defines database documents
package model

import "go.mongodb.org/mongo-driver/bson/primitive"

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name" json:"name"`
	PasswordHash string             `bson:"password" json:"-"`
	Status       string             `bson:"status" json:"status"`

	// References to posts owned by this user. Order carries no meaning
	Posts []primitive.ObjectID `bson:"posts" json:"-"`
}
