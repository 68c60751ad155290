package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{
		collection: db.Collection("orders"),
	}
}

func (m *mongoOrderRepository) CreateOrder(ctx context.Context, order domain.NewOrder) (string, error) {
	now := time.Now().UTC()
	doc := domain.Order{
		ID:          uuid.NewString(),
		UserID:      order.UserID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if doc.Items == nil {
		doc.Items = []domain.CartLineItem{}
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}
	return doc.ID, nil
}

func (m *mongoOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (m *mongoOrderRepository) UpdateOrder(ctx context.Context, id string, update domain.OrderUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Status != "" {
		set["status"] = update.Status
	}
	if update.StripePaymentIntentID != "" {
		set["stripe_payment_intent_id"] = update.StripePaymentIntentID
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (m *mongoOrderRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "stripe_payment_intent_id", Value: 1}}},
	}
	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
