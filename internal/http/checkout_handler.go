package http

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/gateway"
)

// OrderPlacer is the slice of the gateway the checkout handler
// consumes.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, userID int64, items []gateway.OrderLine) (*gateway.OrderConfirmation, error)
}

type CheckoutHandler struct {
	orders  OrderPlacer
	carts   CartService
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewCheckoutHandler(orders OrderPlacer, carts CartService, timeout time.Duration, log logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		orders:  orders,
		carts:   carts,
		timeout: timeout,
		log:     log,
	}
}

// Checkout turns the session cart into an order. An anonymous session
// or an empty cart never reaches the orders endpoint, and a failed
// order leaves the cart intact.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	user, ok := sess.User()
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "login required to checkout")
		return
	}

	cart, err := h.carts.GetCart(ctx, sess.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}
	if len(cart.Lines) == 0 {
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty, nothing to checkout")
		return
	}

	items := make([]gateway.OrderLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		items = append(items, gateway.OrderLine{
			ProductID: line.ID,
			Name:      line.Name,
			Price:     line.EffectivePrice(),
			Quantity:  line.Quantity,
		})
	}

	conf, err := h.orders.CreateOrder(ctx, user.ID, items)
	if err != nil {
		handleGatewayError(w, err)
		return
	}

	if _, err := h.carts.ClearCart(ctx, sess.ID); err != nil {
		// The order exists remotely; an uncleared cart is the lesser
		// problem. Report success and log the leftover.
		h.log.WithError(err).WithField("order_id", conf.OrderID).
			Warn("order placed but cart not cleared")
	}

	respondJSON(w, http.StatusOK, conf)
}
