package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/domain"
)

// Config points the client at the three remote endpoints.
type Config struct {
	AuthURL     string
	ProductsURL string
	OrdersURL   string
	Timeout     time.Duration
}

// Client is the thin request/response wrapper around the auth,
// products and orders endpoints. It holds no state beyond endpoint
// addresses and a circuit breaker per endpoint.
type Client struct {
	httpClient *http.Client
	cfg        Config

	authBreaker     *gobreaker.CircuitBreaker[[]byte]
	productsBreaker *gobreaker.CircuitBreaker[[]byte]
	ordersBreaker   *gobreaker.CircuitBreaker[[]byte]
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cfg:             cfg,
		authBreaker:     newBreaker("auth"),
		productsBreaker: newBreaker("products"),
		ordersBreaker:   newBreaker("orders"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Remote rejections (bad credentials, validation errors)
			// are healthy responses; only transport failures should
			// trip the breaker.
			var gwErr *Error
			return err == nil || (errors.As(err, &gwErr) && gwErr.Kind == KindRemote)
		},
	})
}

// AuthResult is the session payload the auth endpoint returns.
type AuthResult struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// OrderLine is one line of an order-create request.
type OrderLine struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// ConfirmationItem mirrors the item shape of the order-create
// response, which differs from the history shape in its field names.
type ConfirmationItem struct {
	Name  string  `json:"product_name"`
	Price float64 `json:"price"`
	Key   string  `json:"product_key"`
}

// OrderConfirmation is the order-create response.
type OrderConfirmation struct {
	OrderID int64              `json:"order_id"`
	Total   float64            `json:"total"`
	Items   []ConfirmationItem `json:"items"`
}

// NewProduct is the admin product-create payload, including the
// delivery key for the new stock unit.
type NewProduct struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discount"`
	Badge       string  `json:"badge,omitempty"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"image_url,omitempty"`
	ProductKey  string  `json:"product_key"`
	IsActive    bool    `json:"is_active"`
}

func (c *Client) Register(ctx context.Context, email, password, fullName string) (*AuthResult, error) {
	body := map[string]any{
		"action":    "register",
		"email":     email,
		"password":  password,
		"full_name": fullName,
	}
	data, err := c.do(ctx, c.authBreaker, "auth", http.MethodPost, c.cfg.AuthURL, body)
	if err != nil {
		return nil, err
	}
	return decodeAuthResult(data)
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]any{
		"action":   "login",
		"email":    email,
		"password": password,
	}
	data, err := c.do(ctx, c.authBreaker, "auth", http.MethodPost, c.cfg.AuthURL, body)
	if err != nil {
		return nil, err
	}
	return decodeAuthResult(data)
}

// GetProducts lists the catalog. The category filter, if non-empty, is
// passed through and the server is trusted to apply it.
func (c *Client) GetProducts(ctx context.Context, category string) ([]domain.Product, error) {
	u := c.cfg.ProductsURL
	if category != "" {
		u = fmt.Sprintf("%s?category=%s", u, url.QueryEscape(category))
	}
	data, err := c.do(ctx, c.productsBreaker, "products", http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, remoteError("products", http.StatusOK, "malformed response: "+err.Error())
	}
	return products, nil
}

// CreateOrder submits a purchase. There is no idempotency key on this
// request: a double submit creates a second order remotely.
func (c *Client) CreateOrder(ctx context.Context, userID int64, items []OrderLine) (*OrderConfirmation, error) {
	body := map[string]any{
		"user_id": userID,
		"items":   items,
	}
	data, err := c.do(ctx, c.ordersBreaker, "orders", http.MethodPost, c.cfg.OrdersURL, body)
	if err != nil {
		return nil, err
	}

	var conf OrderConfirmation
	if err := json.Unmarshal(data, &conf); err != nil {
		return nil, remoteError("orders", http.StatusOK, "malformed response: "+err.Error())
	}
	if conf.OrderID == 0 {
		return nil, remoteError("orders", http.StatusOK, "order confirmation missing order_id")
	}
	return &conf, nil
}

func (c *Client) GetUserOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	u := fmt.Sprintf("%s?user_id=%d", c.cfg.OrdersURL, userID)
	data, err := c.do(ctx, c.ordersBreaker, "orders", http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var orders []domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, remoteError("orders", http.StatusOK, "malformed response: "+err.Error())
	}
	return orders, nil
}

// CreateProduct inserts a catalog entry. Admin-only; the caller is
// responsible for the admin check.
func (c *Client) CreateProduct(ctx context.Context, product NewProduct) (int64, error) {
	data, err := c.do(ctx, c.productsBreaker, "products", http.MethodPost, c.cfg.ProductsURL, product)
	if err != nil {
		return 0, err
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return 0, remoteError("products", http.StatusOK, "malformed response: "+err.Error())
	}
	if created.ID == 0 {
		return 0, remoteError("products", http.StatusOK, "product creation response missing id")
	}
	return created.ID, nil
}

func (c *Client) do(ctx context.Context, cb *gobreaker.CircuitBreaker[[]byte], endpoint, method, rawURL string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	data, err := cb.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return nil, networkError(endpoint, err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, networkError(endpoint, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, networkError(endpoint, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, remoteError(endpoint, resp.StatusCode, remoteMessage(data))
		}
		return data, nil
	})
	if err != nil {
		var gwErr *Error
		if !errors.As(err, &gwErr) {
			// Breaker open or half-open overflow.
			return nil, networkError(endpoint, err)
		}
		return nil, err
	}
	return data, nil
}

// remoteMessage pulls the error field out of a rejection payload,
// falling back to the raw body.
func remoteMessage(data []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	const maxLen = 200
	if len(data) > maxLen {
		data = data[:maxLen]
	}
	return string(data)
}

func decodeAuthResult(data []byte) (*AuthResult, error) {
	var res AuthResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, remoteError("auth", http.StatusOK, "malformed response: "+err.Error())
	}
	if res.User.ID == 0 {
		return nil, remoteError("auth", http.StatusOK, "auth response missing user")
	}
	return &res, nil
}
