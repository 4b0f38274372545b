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

type MongoReviewRepository struct {
	collection *mongo.Collection
}

func NewMongoReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{
		collection: db.Collection("reviews"),
	}
}

func (m *MongoReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	res, err := m.collection.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		review.ID = id
	}
	return nil
}

func (m *MongoReviewRepository) Get(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	var review domain.Review
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

func (m *MongoReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	result, err := m.collection.ReplaceOne(ctx, bson.M{"_id": review.ID}, review)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (m *MongoReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// ListByProduct returns the approved reviews of a product, newest first.
func (m *MongoReviewRepository) ListByProduct(ctx context.Context, productID primitive.ObjectID, page domain.Page) ([]*domain.Review, int64, error) {
	filter := bson.M{"product_id": productID, "status": domain.ReviewApproved}

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(page.Limit())
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]*domain.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, total, nil
}

// RatingSummary averages the approved ratings of a product. A product with no
// approved reviews gets a zero summary.
func (m *MongoReviewRepository) RatingSummary(ctx context.Context, productID primitive.ObjectID) (domain.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "product_id", Value: productID},
			{Key: "status", Value: domain.ReviewApproved},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$product_id"},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []domain.RatingSummary
	if err := cursor.All(ctx, &rows); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("failed to decode rating summary: %w", err)
	}
	if len(rows) == 0 {
		return domain.RatingSummary{}, nil
	}
	return rows[0].Rounded(), nil
}

func (m *MongoReviewRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "product_id", Value: 1},
				{Key: "customer_id", Value: 1},
				{Key: "order_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create review indexes: %w", err)
	}
	return nil
}
