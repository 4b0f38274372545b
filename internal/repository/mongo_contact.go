package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_market/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoContactRepository reads contact details out of the customers and
// sellers collections, which are owned by the account services.
type MongoContactRepository struct {
	customers *mongo.Collection
	sellers   *mongo.Collection
}

func NewMongoContactRepository(db *mongo.Database) *MongoContactRepository {
	return &MongoContactRepository{
		customers: db.Collection("customers"),
		sellers:   db.Collection("sellers"),
	}
}

func (m *MongoContactRepository) Customer(ctx context.Context, id primitive.ObjectID) (domain.Contact, error) {
	return findContact(ctx, m.customers, id)
}

func (m *MongoContactRepository) Seller(ctx context.Context, id primitive.ObjectID) (domain.Contact, error) {
	return findContact(ctx, m.sellers, id)
}

func findContact(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) (domain.Contact, error) {
	opts := options.FindOne().SetProjection(bson.M{"name": 1, "email": 1, "phone": 1})

	var c domain.Contact
	err := coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Contact{}, ErrContactNotFound
		}
		return domain.Contact{}, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}
