// Package http exposes the cart service over a REST API.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/cartsvc/internal/domain"
	"github.com/utafrali/cartsvc/internal/service"
	"github.com/utafrali/cartsvc/pkg/httputil"
	"github.com/utafrali/cartsvc/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding an item to the cart.
type AddItemRequest struct {
	ProductID   string          `json:"productId" validate:"required,min=1,max=255"`
	ProductName string          `json:"productName" validate:"required,min=1,max=500"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int32           `json:"quantity" validate:"required,gt=0"`
}

// UpdateQuantityRequest is the JSON request body for updating an item's quantity.
type UpdateQuantityRequest struct {
	Quantity int32 `json:"quantity" validate:"required,gt=0"`
}

// --- Response DTOs ---

// CartItemResponse is the JSON representation of one cart line.
type CartItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int32           `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CartResponse is the JSON representation of a cart with derived totals.
type CartResponse struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId"`
	Items       []CartItemResponse `json:"items"`
	ItemCount   int32              `json:"itemCount"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func toCartResponse(cart *domain.Cart) CartResponse {
	cartItems := cart.Items()
	items := make([]CartItemResponse, len(cartItems))
	for i, item := range cartItems {
		items[i] = CartItemResponse{
			ID:          item.ID.String(),
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price,
			Quantity:    item.Quantity,
			TotalPrice:  item.Subtotal(),
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		}
	}

	return CartResponse{
		ID:          cart.ID.String(),
		UserID:      cart.UserID,
		Items:       items,
		ItemCount:   cart.TotalQuantity(),
		TotalAmount: cart.TotalAmount(),
		CreatedAt:   cart.CreatedAt,
		UpdatedAt:   cart.UpdatedAt,
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/carts. Returns the user's current cart,
// creating an empty one on first access.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	cart, err := h.service.GetOrCreateCart(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartResponse(cart)})
}

// GetCartByID handles GET /api/v1/carts/{cartId}.
func (h *CartHandler) GetCartByID(w http.ResponseWriter, r *http.Request) {
	cartID, ok := httputil.ParseUUID(w, chi.URLParam(r, "cartId"))
	if !ok {
		return
	}
	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	cart, err := h.service.GetCartByID(r.Context(), cartID, userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartResponse(cart)})
}

// AddItem handles POST /api/v1/carts/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.AddItemInput{
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Price:       req.Price,
		Quantity:    req.Quantity,
	}

	cart, err := h.service.AddToCart(r.Context(), userID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: toCartResponse(cart)})
}

// UpdateItemQuantity handles PATCH /api/v1/carts/items/{itemId}.
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, ok := httputil.ParseUUID(w, chi.URLParam(r, "itemId"))
	if !ok {
		return
	}
	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.UpdateItemQuantity(r.Context(), userID, itemID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartResponse(cart)})
}

// RemoveItem handles DELETE /api/v1/carts/items/{itemId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := httputil.ParseUUID(w, chi.URLParam(r, "itemId"))
	if !ok {
		return
	}
	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	cart, err := h.service.RemoveItemFromCart(r.Context(), userID, itemID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartResponse(cart)})
}

// ClearCart handles DELETE /api/v1/carts/items.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	cart, err := h.service.ClearCart(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartResponse(cart)})
}

// DeleteCart handles DELETE /api/v1/carts/{cartId}.
func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := httputil.ParseUUID(w, chi.URLParam(r, "cartId"))
	if !ok {
		return
	}
	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteCart(r.Context(), cartID, userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
