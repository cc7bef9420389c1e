// Package repository defines persistence contracts for the cart aggregate.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/utafrali/cartsvc/internal/domain"
)

// CartRepository persists cart aggregates. Save reconciles the aggregate's
// item list against its persisted rows rather than rewriting the whole set.
type CartRepository interface {
	// Create inserts an empty cart for the user and returns the aggregate.
	Create(ctx context.Context, userID string) (*domain.Cart, error)

	// FindByID loads a cart and its items. Returns a not-found error when
	// the cart does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error)

	// FindByUserID loads the user's current cart. When duplicate carts
	// exist for a user the most recently created one wins. Returns a
	// not-found error when the user has no cart.
	FindByUserID(ctx context.Context, userID string) (*domain.Cart, error)

	// Save diffs the aggregate's items against the persisted rows and
	// applies the minimal insert/update/delete set in one transaction.
	// Generated IDs and timestamps are written back onto the aggregate.
	Save(ctx context.Context, cart *domain.Cart) error

	// DeleteByID removes the cart and all of its items in one transaction.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}
