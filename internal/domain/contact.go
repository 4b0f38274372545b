package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// Contact is the slice of a customer or seller profile the notification
// channels need.
type Contact struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
	Phone string             `bson:"phone" json:"phone"`
}
