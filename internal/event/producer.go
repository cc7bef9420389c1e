// Package event publishes cart domain events to Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/utafrali/cartsvc/internal/domain"
	pkgkafka "github.com/utafrali/cartsvc/pkg/kafka"
	"github.com/utafrali/cartsvc/pkg/logger"
)

// Kafka topics for cart domain events.
const (
	TopicCartUpdated = "shop.cart.updated"
	TopicCartCleared = "shop.cart.cleared"
	TopicCartDeleted = "shop.cart.deleted"
)

const aggregateTypeCart = "cart"

const sourceCartService = "cart-service"

// CartUpdatedData is the payload for a cart.updated event. Amounts are
// serialized as decimal strings to avoid float rounding on the wire.
type CartUpdatedData struct {
	CartID      string         `json:"cart_id"`
	UserID      string         `json:"user_id"`
	Items       []CartItemData `json:"items"`
	ItemCount   int32          `json:"item_count"`
	TotalAmount string         `json:"total_amount"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ItemID      string `json:"item_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
	Quantity    int32  `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	CartID string `json:"cart_id"`
	UserID string `json:"user_id"`
}

// CartDeletedData is the payload for a cart.deleted event.
type CartDeletedData struct {
	CartID string `json:"cart_id"`
	UserID string `json:"user_id"`
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the cart service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateTypeCart, sourceCartService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		event.WithCorrelationID(correlationID)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}

// PublishCartUpdated publishes a cart.updated event with the cart's current contents.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	cartItems := cart.Items()
	items := make([]CartItemData, len(cartItems))
	for i, item := range cartItems {
		items[i] = CartItemData{
			ItemID:      item.ID.String(),
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price.String(),
			Quantity:    item.Quantity,
		}
	}

	data := CartUpdatedData{
		CartID:      cart.ID.String(),
		UserID:      cart.UserID,
		Items:       items,
		ItemCount:   cart.TotalQuantity(),
		TotalAmount: cart.TotalAmount().String(),
	}

	if err := p.publish(ctx, TopicCartUpdated, "cart.updated", cart.ID.String(), data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("cart_id", cart.ID.String()),
		slog.Int("item_count", int(cart.TotalQuantity())),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, cart *domain.Cart) error {
	data := CartClearedData{CartID: cart.ID.String(), UserID: cart.UserID}
	if err := p.publish(ctx, TopicCartCleared, "cart.cleared", cart.ID.String(), data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("cart_id", cart.ID.String()),
	)
	return nil
}

// PublishCartDeleted publishes a cart.deleted event.
func (p *Producer) PublishCartDeleted(ctx context.Context, cartID uuid.UUID, userID string) error {
	data := CartDeletedData{CartID: cartID.String(), UserID: userID}
	if err := p.publish(ctx, TopicCartDeleted, "cart.deleted", cartID.String(), data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.deleted event",
		slog.String("cart_id", cartID.String()),
	)
	return nil
}
