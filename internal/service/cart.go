// Package service implements the cart use-cases. Each mutating use-case is
// one unit of work (load aggregate, apply mutation, save) wrapped in a retry
// policy for optimistic-concurrency conflicts.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/cartsvc/internal/domain"
	"github.com/utafrali/cartsvc/internal/event"
	"github.com/utafrali/cartsvc/internal/repository"
	apperrors "github.com/utafrali/cartsvc/pkg/errors"
	"github.com/utafrali/cartsvc/pkg/retry"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart item.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct items allowed in a cart.
	MaxItemsPerCart = 50
)

// AddItemInput holds the parameters for adding an item to the cart. The
// product ID is an opaque catalog key, not an identifier this service mints.
type AddItemInput struct {
	ProductID   string
	ProductName string
	Price       decimal.Decimal
	Quantity    int32
}

// CartService implements the business logic for cart operations.
type CartService struct {
	repo        repository.CartRepository
	producer    *event.Producer
	retryPolicy retry.Policy
	logger      *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, producer *event.Producer, retryPolicy retry.Policy, logger *slog.Logger) *CartService {
	return &CartService{
		repo:        repo,
		producer:    producer,
		retryPolicy: retryPolicy,
		logger:      logger,
	}
}

// isConflict is the retry predicate: only the store's optimistic-concurrency
// conflicts are retried, every other error propagates immediately.
func isConflict(err error) bool {
	return errors.Is(err, apperrors.ErrConflict)
}

// GetOrCreateCart returns the user's current cart, creating an empty one if
// the user has none.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	var cart *domain.Cart
	err := retry.Do(ctx, s.retryPolicy, isConflict, func(ctx context.Context) error {
		c, err := s.getOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// GetCartByID returns a cart by its ID. The requester must own the cart.
func (s *CartService) GetCartByID(ctx context.Context, cartID uuid.UUID, userID string) (*domain.Cart, error) {
	if cartID == uuid.Nil {
		return nil, apperrors.InvalidInput("cart id is required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.BelongsToUser(userID) {
		return nil, apperrors.Forbidden("cart does not belong to the requesting user")
	}
	return cart, nil
}

// AddToCart adds a product to the user's cart, creating the cart if needed.
// Adding a product already in the cart increments its quantity.
func (s *CartService) AddToCart(ctx context.Context, userID string, input AddItemInput) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if strings.TrimSpace(input.ProductName) == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if !input.Price.IsPositive() {
		return nil, apperrors.InvalidInput("price must be greater than 0")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.Quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	var cart *domain.Cart
	err := retry.Do(ctx, s.retryPolicy, isConflict, func(ctx context.Context) error {
		c, err := s.getOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		// The quantity cap applies to the merged line, not just this request,
		// so repeated adds of the same product cannot creep past it. The caps
		// are checked against the freshly loaded cart on every retry attempt.
		if line, ok := lineForProduct(c, input.ProductID); ok {
			if line.Quantity+input.Quantity > MaxQuantityPerItem {
				return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
			}
		} else if c.ItemCount() >= MaxItemsPerCart {
			return apperrors.InvalidInput(fmt.Sprintf("cart must not exceed %d distinct items", MaxItemsPerCart))
		}
		c.AddItem(input.ProductID, input.ProductName, input.Price, input.Quantity)
		if err := s.repo.Save(ctx, c); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, cart)
	return cart, nil
}

// UpdateItemQuantity sets the quantity of an item in the user's cart.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int32) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if itemID == uuid.Nil {
		return nil, apperrors.InvalidInput("item id is required")
	}
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	var cart *domain.Cart
	err := retry.Do(ctx, s.retryPolicy, isConflict, func(ctx context.Context) error {
		c, err := s.repo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if err := c.UpdateItemQuantity(itemID, quantity); err != nil {
			if errors.Is(err, domain.ErrItemNotFound) {
				return apperrors.NotFound("cart item", itemID.String())
			}
			return err
		}
		if err := s.repo.Save(ctx, c); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, cart)
	return cart, nil
}

// RemoveItemFromCart removes an item from the user's cart. Removing an item
// that is not in the cart is a no-op.
func (s *CartService) RemoveItemFromCart(ctx context.Context, userID string, itemID uuid.UUID) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if itemID == uuid.Nil {
		return nil, apperrors.InvalidInput("item id is required")
	}

	var cart *domain.Cart
	err := retry.Do(ctx, s.retryPolicy, isConflict, func(ctx context.Context) error {
		c, err := s.repo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		c.RemoveItem(itemID)
		if err := s.repo.Save(ctx, c); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, cart)
	return cart, nil
}

// ClearCart removes all items from the user's cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	var cart *domain.Cart
	err := retry.Do(ctx, s.retryPolicy, isConflict, func(ctx context.Context) error {
		c, err := s.repo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		c.Clear()
		if err := s.repo.Save(ctx, c); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishCartCleared(ctx, cart); err != nil {
		s.logger.WarnContext(ctx, "failed to publish cart.cleared event",
			slog.String("cart_id", cart.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return cart, nil
}

// DeleteCart deletes a cart and all of its items. The requester must own the cart.
func (s *CartService) DeleteCart(ctx context.Context, cartID uuid.UUID, userID string) error {
	if cartID == uuid.Nil {
		return apperrors.InvalidInput("cart id is required")
	}
	if strings.TrimSpace(userID) == "" {
		return apperrors.InvalidInput("user id is required")
	}

	err := retry.Do(ctx, s.retryPolicy, isConflict, func(ctx context.Context) error {
		cart, err := s.repo.FindByID(ctx, cartID)
		if err != nil {
			return err
		}
		if !cart.BelongsToUser(userID) {
			return apperrors.Forbidden("cart does not belong to the requesting user")
		}
		return s.repo.DeleteByID(ctx, cartID)
	})
	if err != nil {
		return err
	}

	if err := s.producer.PublishCartDeleted(ctx, cartID, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to publish cart.deleted event",
			slog.String("cart_id", cartID.String()),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// lineForProduct returns the cart line holding the given product, if any.
func lineForProduct(cart *domain.Cart, productID string) (domain.CartItem, bool) {
	for _, item := range cart.Items() {
		if item.ProductID == productID {
			return item, true
		}
	}
	return domain.CartItem{}, false
}

func (s *CartService) getOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("find cart for user: %w", err)
	}

	cart, err = s.repo.Create(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create cart for user: %w", err)
	}
	s.logger.InfoContext(ctx, "created cart for user",
		slog.String("cart_id", cart.ID.String()),
		slog.String("user_id", userID),
	)
	return cart, nil
}

// publishUpdated emits a cart.updated event. Event publication is best-effort
// and never fails the request.
func (s *CartService) publishUpdated(ctx context.Context, cart *domain.Cart) {
	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.WarnContext(ctx, "failed to publish cart.updated event",
			slog.String("cart_id", cart.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
