package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoCartRepository) Get(ctx context.Context, customerID primitive.ObjectID) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"customer_id": customerID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

// GetOrCreate returns the customer's cart, inserting an empty one first if
// none exists. Safe to call concurrently for the same customer.
func (m *MongoCartRepository) GetOrCreate(ctx context.Context, customerID primitive.ObjectID) (*domain.Cart, error) {
	now := time.Now().UTC()
	fresh := domain.NewCart(customerID, now)

	filter := bson.M{"customer_id": customerID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"customer_id":   customerID,
			"items":         fresh.Items,
			"total_items":   fresh.TotalItems,
			"total_amount":  fresh.TotalAmount,
			"created_at":    fresh.CreatedAt,
			"last_modified": fresh.LastModified,
			"expires_at":    fresh.ExpiresAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var cart domain.Cart
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart)
	if mongo.IsDuplicateKeyError(err) {
		// lost the insert race, the other writer's document is there now
		return m.Get(ctx, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	return &cart, nil
}

// Save recomputes the derived fields and replaces the stored document.
// There is no version check: the last writer wins.
func (m *MongoCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.Recalculate(now)

	filter := bson.M{"customer_id": cart.CustomerID}
	opts := options.Replace().SetUpsert(true)

	res, err := m.collection.ReplaceOne(ctx, filter, cart, opts)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
		cart.ID = id
	}

	return nil
}

func (m *MongoCartRepository) Delete(ctx context.Context, customerID primitive.ObjectID) error {
	filter := bson.M{"customer_id": customerID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *MongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}

	return nil
}
