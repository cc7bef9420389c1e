// Package postgres implements cart persistence on a distributed SQL store
// speaking the Postgres wire protocol. Write-write races surface as
// serialization failures (SQLSTATE 40001) and are translated to conflict
// errors for the service's retry policy.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utafrali/cartsvc/internal/domain"
	"github.com/utafrali/cartsvc/pkg/clock"
	"github.com/utafrali/cartsvc/pkg/database"
	apperrors "github.com/utafrali/cartsvc/pkg/errors"
)

// serializationFailure is the SQLSTATE raised on optimistic-concurrency
// conflicts.
const serializationFailure = "40001"

// CartRepository persists cart aggregates in the carts and cart_items tables.
type CartRepository struct {
	db     database.DBTX
	clock  clock.Clock
	logger *slog.Logger
}

// NewCartRepository creates a repository backed by the given pool or mock.
func NewCartRepository(db database.DBTX, clk clock.Clock, logger *slog.Logger) *CartRepository {
	return &CartRepository{db: db, clock: clk, logger: logger}
}

// translateError maps driver errors to the application error taxonomy.
// Serialization failures become conflicts so the service layer can retry them.
func translateError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == serializationFailure {
		return apperrors.Conflict(fmt.Sprintf("concurrent modification detected during %s", op))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Create inserts an empty cart row for the user.
func (r *CartRepository) Create(ctx context.Context, userID string) (*domain.Cart, error) {
	now := r.clock.Now()
	cart := domain.NewCart(userID, now)

	_, err := r.db.Exec(ctx,
		`INSERT INTO carts (id, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		cart.ID, cart.UserID, cart.CreatedAt, cart.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err, "create cart")
	}

	r.logger.DebugContext(ctx, "cart created",
		slog.String("cart_id", cart.ID.String()),
		slog.String("user_id", userID),
	)
	return cart, nil
}

// FindByID loads a cart and its items, items in creation order.
func (r *CartRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	cart := &domain.Cart{}
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE id = $1`,
		id,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart", id.String())
		}
		return nil, translateError(err, "find cart by id")
	}

	items, err := r.loadItems(ctx, r.db, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.ReplaceItems(items)
	return cart, nil
}

// FindByUserID loads the user's current cart. Nothing prevents a user from
// accumulating several cart rows, so the most recently created one wins.
func (r *CartRepository) FindByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{}
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart for user", userID)
		}
		return nil, translateError(err, "find cart by user id")
	}

	items, err := r.loadItems(ctx, r.db, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.ReplaceItems(items)
	return cart, nil
}

// rowQuerier is the read subset shared by the pool and an open transaction.
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *CartRepository) loadItems(ctx context.Context, q rowQuerier, cartID uuid.UUID) ([]domain.CartItem, error) {
	rows, err := q.Query(ctx,
		`SELECT id, cart_id, product_id, product_name, price, quantity, created_at, updated_at
		 FROM cart_items WHERE cart_id = $1 ORDER BY created_at ASC`,
		cartID,
	)
	if err != nil {
		return nil, translateError(err, "load cart items")
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.ProductName,
			&item.Price, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "load cart items")
	}
	return items, nil
}

// Save reconciles the aggregate's items against the persisted rows inside one
// transaction. New items are inserted and receive generated IDs and
// timestamps, changed items are updated in place, and persisted items absent
// from the aggregate are deleted in one batch. The cart's updated_at advances
// only when at least one item write happened.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return translateError(err, "begin save transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM carts WHERE id = $1)`, cart.ID).Scan(&exists)
	if err != nil {
		return translateError(err, "check cart exists")
	}
	if !exists {
		// An aggregate is always loaded or created before save, so a missing
		// row means the flow upstream is broken. Not retryable.
		return apperrors.Internal(fmt.Errorf("cart %s does not exist at save time", cart.ID))
	}

	existing, err := r.loadItems(ctx, tx, cart.ID)
	if err != nil {
		return err
	}
	existingByID := make(map[uuid.UUID]domain.CartItem, len(existing))
	for _, item := range existing {
		existingByID[item.ID] = item
	}

	now := r.clock.Now()
	changed := false
	current := cart.Items()

	for idx := range current {
		item := &current[idx]
		if item.IsNew() {
			item.ID = uuid.New()
			item.CartID = cart.ID
			item.CreatedAt = now
			item.UpdatedAt = now
			_, err := tx.Exec(ctx,
				`INSERT INTO cart_items (id, cart_id, product_id, product_name, price, quantity, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				item.ID, item.CartID, item.ProductID, item.ProductName,
				item.Price, item.Quantity, item.CreatedAt, item.UpdatedAt,
			)
			if err != nil {
				return translateError(err, "insert cart item")
			}
			changed = true
			continue
		}

		stored, ok := existingByID[item.ID]
		if !ok {
			// The row vanished between load and save. True write races are
			// caught by the store's conflict detection, so just skip it.
			r.logger.WarnContext(ctx, "cart item row missing during save, skipping",
				slog.String("cart_id", cart.ID.String()),
				slog.String("item_id", item.ID.String()),
			)
			continue
		}
		if item.EqualsStored(stored) {
			continue
		}

		item.UpdatedAt = now
		_, err := tx.Exec(ctx,
			`UPDATE cart_items SET product_name = $1, price = $2, quantity = $3, updated_at = $4 WHERE id = $5`,
			item.ProductName, item.Price, item.Quantity, item.UpdatedAt, item.ID,
		)
		if err != nil {
			return translateError(err, "update cart item")
		}
		changed = true
	}

	currentIDs := make(map[uuid.UUID]struct{}, len(current))
	for _, item := range current {
		currentIDs[item.ID] = struct{}{}
	}
	var toDelete []uuid.UUID
	for _, item := range existing {
		if _, ok := currentIDs[item.ID]; !ok {
			toDelete = append(toDelete, item.ID)
		}
	}
	if len(toDelete) > 0 {
		_, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = ANY($1)`, toDelete)
		if err != nil {
			return translateError(err, "delete cart items")
		}
		changed = true
	}

	if changed {
		_, err := tx.Exec(ctx, `UPDATE carts SET updated_at = $1 WHERE id = $2`, now, cart.ID)
		if err != nil {
			return translateError(err, "touch cart")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return translateError(err, "commit save transaction")
	}

	// Only reflect generated IDs and timestamps after the commit succeeded.
	cart.ReplaceItems(current)
	if changed {
		cart.UpdatedAt = now
	}
	return nil
}

// DeleteByID removes the cart's items and then the cart row. The store is not
// assumed to cascade deletes.
func (r *CartRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return translateError(err, "begin delete transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, id); err != nil {
		return translateError(err, "delete cart items")
	}

	tag, err := tx.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return translateError(err, "delete cart")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("cart", id.String())
	}

	if err := tx.Commit(ctx); err != nil {
		return translateError(err, "commit delete transaction")
	}

	r.logger.DebugContext(ctx, "cart deleted", slog.String("cart_id", id.String()))
	return nil
}
