package domain

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
)

// OrderItem is one purchased line as the orders endpoint reports it in
// order history: the product name, the price actually paid, and the
// delivered key or credential string.
type OrderItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Key   string  `json:"key"`
}

// Order is created and owned by the remote order service; the
// storefront only reads it back for history display. CreatedAt is kept
// as the raw timestamp string the endpoint emits.
type Order struct {
	ID          int64       `json:"id"`
	TotalAmount float64     `json:"total_amount"`
	Status      string      `json:"status"`
	CreatedAt   string      `json:"created_at"`
	Items       []OrderItem `json:"items"`
}
