package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/domain"
)

// CartService is the slice of the cart layer the handlers consume.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, product domain.Product) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID string, productID int64) (*domain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) (*domain.Cart, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

// CartViewDTO is the cart plus its derived aggregates, recomputed from
// the lines on every response.
type CartViewDTO struct {
	Items     []domain.CartLine `json:"items"`
	Total     float64           `json:"total"`
	ItemCount int               `json:"item_count"`
}

func cartView(cart *domain.Cart) CartViewDTO {
	items := cart.Lines
	if items == nil {
		items = []domain.CartLine{}
	}
	return CartViewDTO{
		Items:     items,
		Total:     cart.Total(),
		ItemCount: cart.ItemCount(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	cart, err := h.carts.GetCart(ctx, sess.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, cartView(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// The product payload is taken as-is from the caller; the catalog
	// owns product correctness.
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sess := sessionFromContext(r.Context())
	cart, err := h.carts.AddItem(ctx, sess.ID, product)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update cart")
		return
	}

	respondJSON(w, http.StatusCreated, cartView(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productIDStr := chi.URLParam(r, "product_id")
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be an integer")
		return
	}

	sess := sessionFromContext(r.Context())
	cart, err := h.carts.RemoveItem(ctx, sess.ID, productID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update cart")
		return
	}

	respondJSON(w, http.StatusOK, cartView(cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	cart, err := h.carts.ClearCart(ctx, sess.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}

	respondJSON(w, http.StatusOK, cartView(cart))
}
