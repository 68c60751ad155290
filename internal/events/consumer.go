package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer applies order paid events from the topic to the order store.
type Consumer struct {
	reader  messageReader
	handler *OrderPaidHandler
	logger  *zap.Logger
}

func NewConsumer(handler *OrderPaidHandler, topic, groupID string, logger *zap.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, handler: handler, logger: logger}
}

// Run reads until ctx is done.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("error closing kafka reader", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.logger.Error("error reading message", zap.Error(err))
		return
	}

	if eventType(m) != EventTypeOrderPaid {
		return
	}

	var event domain.OrderPaid
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.logger.Error("error parsing message", zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}

	if err := c.handler.Handle(ctx, event); err != nil {
		c.logger.Error("failed to apply order paid event",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == headerEventType {
			return string(h.Value)
		}
	}
	return ""
}
