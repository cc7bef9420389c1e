package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewCart(t *testing.T) {
	now := time.Now().UTC()

	cart := NewCart("user-001", now)

	assert.NotEqual(t, uuid.Nil, cart.ID)
	assert.Equal(t, "user-001", cart.UserID)
	assert.Equal(t, now, cart.CreatedAt)
	assert.Equal(t, now, cart.UpdatedAt)
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.TotalAmount().IsZero())
}

func TestAddItemAndTotals(t *testing.T) {
	cart := NewCart("user-001", time.Now().UTC())

	cart.AddItem("product-001", "Laptop", price("999.99"), 1)
	cart.AddItem("product-002", "Monitor", price("2499.99"), 1)

	assert.Equal(t, 2, cart.ItemCount())
	assert.Equal(t, int32(2), cart.TotalQuantity())
	assert.True(t, cart.TotalAmount().Equal(price("3499.98")),
		"got %s", cart.TotalAmount())
}

func TestAddItemMergesByProduct(t *testing.T) {
	cart := NewCart("user-001", time.Now().UTC())

	cart.AddItem("product-001", "Laptop", price("999.99"), 1)
	// Same product at a different advertised price: quantity is incremented
	// and the original line's price and name are kept.
	cart.AddItem("product-001", "Laptop Pro", price("1099.99"), 2)

	require.Equal(t, 1, cart.ItemCount())
	item := cart.Items()[0]
	assert.Equal(t, int32(3), item.Quantity)
	assert.Equal(t, "Laptop", item.ProductName)
	assert.True(t, item.Price.Equal(price("999.99")))
}

func TestUpdateItemQuantity(t *testing.T) {
	cart := NewCart("user-001", time.Now().UTC())
	cart.AddItem("product-001", "Laptop", price("999.99"), 1)
	cart.AddItem("product-002", "Monitor", price("2499.99"), 1)

	items := cart.Items()
	items[0].ID = uuid.New()
	items[1].ID = uuid.New()
	cart.ReplaceItems(items)

	require.NoError(t, cart.UpdateItemQuantity(items[0].ID, 3))

	assert.Equal(t, int32(3), cart.Items()[0].Quantity)
	assert.True(t, cart.TotalAmount().Equal(price("5499.96")),
		"got %s", cart.TotalAmount())
}

func TestUpdateItemQuantityNotFound(t *testing.T) {
	cart := NewCart("user-001", time.Now().UTC())
	cart.AddItem("product-001", "Laptop", price("999.99"), 1)

	err := cart.UpdateItemQuantity(uuid.New(), 5)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	cart := NewCart("user-001", time.Now().UTC())
	cart.AddItem("product-001", "Laptop", price("999.99"), 3)
	cart.AddItem("product-002", "Monitor", price("2499.99"), 1)

	items := cart.Items()
	items[0].ID = uuid.New()
	items[1].ID = uuid.New()
	cart.ReplaceItems(items)

	cart.RemoveItem(items[0].ID)

	require.Equal(t, 1, cart.ItemCount())
	assert.Equal(t, "Monitor", cart.Items()[0].ProductName)
	assert.True(t, cart.TotalAmount().Equal(price("2499.99")),
		"got %s", cart.TotalAmount())
}

func TestRemoveAbsentItemIsNoOp(t *testing.T) {
	cart := NewCart("user-001", time.Now().UTC())
	cart.AddItem("product-001", "Laptop", price("999.99"), 1)

	cart.RemoveItem(uuid.New())

	assert.Equal(t, 1, cart.ItemCount())
}

func TestClear(t *testing.T) {
	cart := NewCart("user-001", time.Now().UTC())
	cart.AddItem("product-001", "Laptop", price("999.99"), 1)
	cart.AddItem("product-002", "Monitor", price("2499.99"), 2)

	cart.Clear()

	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.TotalAmount().IsZero())
}

func TestItemsReturnsDefensiveCopy(t *testing.T) {
	cart := NewCart("user-001", time.Now().UTC())
	cart.AddItem("product-001", "Laptop", price("999.99"), 1)

	items := cart.Items()
	items[0].Quantity = 99
	items[0].ProductName = "Mutated"

	assert.Equal(t, int32(1), cart.Items()[0].Quantity)
	assert.Equal(t, "Laptop", cart.Items()[0].ProductName)
}

func TestReplaceItemsCopiesInput(t *testing.T) {
	cart := NewCart("user-001", time.Now().UTC())
	input := []CartItem{{ID: uuid.New(), ProductID: "product-001", ProductName: "Laptop", Price: price("999.99"), Quantity: 1}}

	cart.ReplaceItems(input)
	input[0].Quantity = 42

	assert.Equal(t, int32(1), cart.Items()[0].Quantity)
}

func TestBelongsToUser(t *testing.T) {
	cart := NewCart("user-001", time.Now().UTC())

	assert.True(t, cart.BelongsToUser("user-001"))
	assert.False(t, cart.BelongsToUser("user-002"))
}

func TestCartItemIsNew(t *testing.T) {
	item := CartItem{ProductID: "product-001"}
	assert.True(t, item.IsNew())

	item.ID = uuid.New()
	assert.False(t, item.IsNew())
}

func TestCartItemEqualsStored(t *testing.T) {
	base := CartItem{
		ID:          uuid.New(),
		CartID:      uuid.New(),
		ProductID:   "product-001",
		ProductName: "Laptop",
		Price:       price("999.99"),
		Quantity:    2,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	same := base
	same.CreatedAt = base.CreatedAt.Add(time.Hour)
	same.UpdatedAt = base.UpdatedAt.Add(time.Hour)
	assert.True(t, base.EqualsStored(same), "timestamps must not affect equality")

	// Same numeric price in a different representation still matches.
	same.Price = decimal.RequireFromString("999.990")
	assert.True(t, base.EqualsStored(same))

	changed := base
	changed.Quantity = 3
	assert.False(t, base.EqualsStored(changed))

	changed = base
	changed.Price = price("1000.00")
	assert.False(t, base.EqualsStored(changed))
}
