package http

import (
	"context"
	"net/http"
	"time"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/domain"
)

// OrderHistory is the slice of the gateway the orders handler
// consumes.
type OrderHistory interface {
	GetUserOrders(ctx context.Context, userID int64) ([]domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderHistory
	timeout time.Duration
}

func NewOrdersHandler(orders OrderHistory, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

func (h *OrdersHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	user, ok := sess.User()
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "login required")
		return
	}

	orders, err := h.orders.GetUserOrders(ctx, user.ID)
	if err != nil {
		handleGatewayError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}
