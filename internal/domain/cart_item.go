package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one product line in a cart. A zero ID marks an item that has
// not been persisted yet; the store assigns the ID on first save.
type CartItem struct {
	ID          uuid.UUID
	CartID      uuid.UUID
	ProductID   string
	ProductName string
	Price       decimal.Decimal
	Quantity    int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsNew reports whether the item has been persisted yet.
func (i CartItem) IsNew() bool {
	return i.ID == uuid.Nil
}

// Subtotal returns price times quantity for this line.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt32(i.Quantity))
}

// EqualsStored reports whether the item matches a persisted row on the fields
// the store writes. Timestamps are excluded so an untouched item never counts
// as changed.
func (i CartItem) EqualsStored(other CartItem) bool {
	return i.ID == other.ID &&
		i.CartID == other.CartID &&
		i.ProductID == other.ProductID &&
		i.ProductName == other.ProductName &&
		i.Price.Equal(other.Price) &&
		i.Quantity == other.Quantity
}
