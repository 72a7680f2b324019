package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/domain"
	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/gateway"
)

// ProductCatalog is the slice of the gateway the product handlers
// consume.
type ProductCatalog interface {
	GetProducts(ctx context.Context, category string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product gateway.NewProduct) (int64, error)
}

type ProductHandler struct {
	catalog ProductCatalog
	timeout time.Duration
}

func NewProductHandler(catalog ProductCatalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	category := r.URL.Query().Get("category")

	products, err := h.catalog.GetProducts(ctx, category)
	if err != nil {
		handleGatewayError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.Categories)
}

// Create inserts a catalog entry with its delivery key. Admin only.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	user, ok := sess.User()
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "login required")
		return
	}
	if !user.IsAdmin {
		respondError(w, http.StatusForbidden, "forbidden", "admin access required")
		return
	}

	var product gateway.NewProduct
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if product.Name == "" || product.Category == "" || product.ProductKey == "" {
		respondError(w, http.StatusBadRequest, "missing_field", "name, category and product_key are required")
		return
	}
	if product.Price <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must be positive")
		return
	}

	id, err := h.catalog.CreateProduct(ctx, product)
	if err != nil {
		handleGatewayError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}
