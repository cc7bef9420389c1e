package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrItemNotFound is returned by cart operations that target an item the
// cart does not contain.
var ErrItemNotFound = errors.New("cart item not found")

// Cart is the aggregate root for one user's shopping cart. Items are held
// privately; all mutation goes through the aggregate's methods so the
// merge-by-product invariant cannot be bypassed.
type Cart struct {
	ID        uuid.UUID
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time

	items []CartItem
}

// NewCart creates an empty cart for the given user with a fresh identity.
// User identifiers are opaque strings owned by the identity system.
func NewCart(userID string, now time.Time) *Cart {
	return &Cart{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BelongsToUser reports whether the cart is owned by the given user.
func (c *Cart) BelongsToUser(userID string) bool {
	return c.UserID == userID
}

// Items returns a copy of the cart's items. Mutating the returned slice does
// not affect the cart.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// ReplaceItems swaps the cart's item set for a copy of the given slice. The
// store uses it to load persisted rows and to write back generated IDs after
// a save.
func (c *Cart) ReplaceItems(items []CartItem) {
	c.items = make([]CartItem, len(items))
	copy(c.items, items)
}

// AddItem adds a product to the cart. If the product is already present only
// its quantity is incremented; the existing line's price and name are kept.
// Product identifiers are opaque catalog keys, unique within one cart only.
func (c *Cart) AddItem(productID, productName string, price decimal.Decimal, quantity int32) {
	for idx := range c.items {
		if c.items[idx].ProductID == productID {
			c.items[idx].Quantity += quantity
			return
		}
	}
	c.items = append(c.items, CartItem{
		CartID:      c.ID,
		ProductID:   productID,
		ProductName: productName,
		Price:       price,
		Quantity:    quantity,
	})
}

// UpdateItemQuantity sets the quantity of an existing item. Returns
// ErrItemNotFound when no item with the given ID is present.
func (c *Cart) UpdateItemQuantity(itemID uuid.UUID, quantity int32) error {
	for idx := range c.items {
		if c.items[idx].ID == itemID {
			c.items[idx].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotFound
}

// RemoveItem deletes an item from the cart. Removing an absent item is a
// no-op so removal is idempotent.
func (c *Cart) RemoveItem(itemID uuid.UUID) {
	for idx := range c.items {
		if c.items[idx].ID == itemID {
			c.items = append(c.items[:idx], c.items[idx+1:]...)
			return
		}
	}
}

// Clear removes every item from the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// ItemCount returns the number of distinct product lines.
func (c *Cart) ItemCount() int {
	return len(c.items)
}

// TotalQuantity returns the sum of quantities across all lines.
func (c *Cart) TotalQuantity() int32 {
	var total int32
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// TotalAmount returns the sum of line subtotals.
func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}
