package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// CreateMongoIndexes creates the indexes used by the product and order queries.
func CreateMongoIndexes(ctx context.Context, db *mongo.Database) error {
	products := &mongoProductRepository{collection: db.Collection("products")}
	if err := products.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("products: %w", err)
	}
	orders := &mongoOrderRepository{collection: db.Collection("orders")}
	if err := orders.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("orders: %w", err)
	}
	return nil
}
