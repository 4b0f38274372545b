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

type MongoWishlistRepository struct {
	collection *mongo.Collection
}

func NewMongoWishlistRepository(db *mongo.Database) *MongoWishlistRepository {
	return &MongoWishlistRepository{
		collection: db.Collection("wishlists"),
	}
}

func (m *MongoWishlistRepository) Get(ctx context.Context, customerID primitive.ObjectID) (*domain.Wishlist, error) {
	var wishlist domain.Wishlist
	err := m.collection.FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&wishlist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrWishlistNotFound
		}
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}
	return &wishlist, nil
}

func (m *MongoWishlistRepository) GetOrCreate(ctx context.Context, customerID primitive.ObjectID) (*domain.Wishlist, error) {
	now := time.Now().UTC()
	fresh := domain.NewWishlist(customerID, now)

	update := bson.M{
		"$setOnInsert": bson.M{
			"customer_id": customerID,
			"items":       fresh.Items,
			"total_items": fresh.TotalItems,
			"created_at":  fresh.CreatedAt,
			"updated_at":  fresh.UpdatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var wishlist domain.Wishlist
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"customer_id": customerID}, update, opts).Decode(&wishlist)
	if mongo.IsDuplicateKeyError(err) {
		return m.Get(ctx, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get or create wishlist: %w", err)
	}
	return &wishlist, nil
}

func (m *MongoWishlistRepository) Save(ctx context.Context, wishlist *domain.Wishlist) error {
	now := time.Now().UTC()
	if wishlist.CreatedAt.IsZero() {
		wishlist.CreatedAt = now
	}
	wishlist.Recalculate(now)

	res, err := m.collection.ReplaceOne(ctx,
		bson.M{"customer_id": wishlist.CustomerID},
		wishlist,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save wishlist: %w", err)
	}
	if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
		wishlist.ID = id
	}
	return nil
}

// FindWithAlertOptIn returns every wishlist holding at least one item that
// asked for a sale or restock notification.
func (m *MongoWishlistRepository) FindWithAlertOptIn(ctx context.Context) ([]*domain.Wishlist, error) {
	filter := bson.M{
		"items": bson.M{
			"$elemMatch": bson.M{
				"$or": bson.A{
					bson.M{"notify_on_sale": true},
					bson.M{"notify_on_restock": true},
				},
			},
		},
	}

	cursor, err := m.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find wishlists: %w", err)
	}
	defer cursor.Close(ctx)

	var wishlists []*domain.Wishlist
	if err := cursor.All(ctx, &wishlists); err != nil {
		return nil, fmt.Errorf("failed to decode wishlists: %w", err)
	}
	return wishlists, nil
}

func (m *MongoWishlistRepository) MarkSaleAlerted(ctx context.Context, customerID, productID primitive.ObjectID, price float64) error {
	return m.setItemField(ctx, customerID, productID, "last_alert_price", price)
}

func (m *MongoWishlistRepository) MarkRestockAlerted(ctx context.Context, customerID, productID primitive.ObjectID) error {
	return m.setItemField(ctx, customerID, productID, "awaiting_restock", false)
}

func (m *MongoWishlistRepository) setItemField(ctx context.Context, customerID, productID primitive.ObjectID, field string, value any) error {
	filter := bson.M{
		"customer_id":      customerID,
		"items.product_id": productID,
	}
	update := bson.M{
		"$set": bson.M{"items.$[elem]." + field: value},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update wishlist item: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrWishlistNotFound
	}
	return nil
}

// FlagAwaitingRestock marks restock-subscribed items of the given products as
// waiting, so the next time stock appears an alert goes out.
func (m *MongoWishlistRepository) FlagAwaitingRestock(ctx context.Context, productIDs []primitive.ObjectID) error {
	if len(productIDs) == 0 {
		return nil
	}
	match := bson.M{
		"product_id":        bson.M{"$in": productIDs},
		"notify_on_restock": true,
	}
	filter := bson.M{"items": bson.M{"$elemMatch": match}}
	update := bson.M{"$set": bson.M{"items.$[elem].awaiting_restock": true}}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{
				"elem.product_id":        bson.M{"$in": productIDs},
				"elem.notify_on_restock": true,
			},
		},
	})

	if _, err := m.collection.UpdateMany(ctx, filter, update, arrayFilters); err != nil {
		return fmt.Errorf("failed to flag awaiting restock: %w", err)
	}
	return nil
}

func (m *MongoWishlistRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "items.product_id", Value: 1}},
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create wishlist indexes: %w", err)
	}
	return nil
}
