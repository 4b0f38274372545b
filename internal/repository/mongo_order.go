package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fjod/go_market/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{
		collection: db.Collection("orders"),
	}
}

func (m *MongoOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	res, err := m.collection.InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrderID
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (m *MongoOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := m.collection.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// Update replaces the order only while the stored copy is still in state
// from. A lost race returns ErrOrderConflict.
func (m *MongoOrderRepository) Update(ctx context.Context, order *domain.Order, from domain.OrderState) error {
	filter := bson.M{
		"order_id":       order.OrderID,
		"status":         from.Status,
		"payment_status": from.PaymentStatus,
	}
	result, err := m.collection.ReplaceOne(ctx, filter, order)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	n, err := m.collection.CountDocuments(ctx, bson.M{"order_id": order.OrderID})
	if err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return ErrOrderConflict
}

func (m *MongoOrderRepository) ListByCustomer(ctx context.Context, customerID primitive.ObjectID, page domain.Page) ([]*domain.Order, int64, error) {
	return m.list(ctx, bson.M{"customer_id": customerID}, page)
}

func (m *MongoOrderRepository) ListBySeller(ctx context.Context, sellerID primitive.ObjectID, filter domain.OrderFilter, page domain.Page) ([]*domain.Order, int64, error) {
	return m.list(ctx, sellerOrdersFilter(sellerID, filter), page)
}

func (m *MongoOrderRepository) list(ctx context.Context, filter bson.M, page domain.Page) ([]*domain.Order, int64, error) {
	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(page.Limit())

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, total, nil
}

// sellerOrdersFilter builds the query for orders holding at least one of the
// seller's items, narrowed by the optional filter fields.
func sellerOrdersFilter(sellerID primitive.ObjectID, f domain.OrderFilter) bson.M {
	q := bson.M{"items.seller_id": sellerID}

	if f.Status != "" {
		q["status"] = f.Status
	}

	created := bson.M{}
	if !f.From.IsZero() {
		created["$gte"] = f.From
	}
	if !f.To.IsZero() {
		created["$lte"] = f.To
	}
	if len(created) > 0 {
		q["created_at"] = created
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"order_id": rx},
			bson.M{"items.name": rx},
		}
	}

	return q
}

func (m *MongoOrderRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "items.seller_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}
