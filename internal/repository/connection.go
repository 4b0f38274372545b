package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const appName = "market"

// ConnectMongoDB opens a client against uri and returns the named database.
// Writes use majority concern so review transactions see committed ratings.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName(appName).
		SetWriteConcern(writeconcern.Majority()).
		SetReadPreference(readpref.Primary()).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxConnIdleTime(5 * time.Minute).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client.Database(database), nil
}

type indexer interface {
	CreateIndexes(ctx context.Context) error
}

// EnsureIndexes creates the unique, TTL and lookup indexes of every collection.
func EnsureIndexes(ctx context.Context, repos ...any) error {
	for _, r := range repos {
		ix, ok := r.(indexer)
		if !ok {
			continue
		}
		if err := ix.CreateIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
