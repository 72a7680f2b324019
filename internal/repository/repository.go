package repository

import (
	"context"
	"errors"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrCartCorrupt  = errors.New("cart snapshot is corrupt")
)

// CartRepository defines the interface for durable cart snapshot
// storage. Consumers define this interface, not the SQLite
// implementation.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) ([]domain.CartLine, error)
	UpsertCart(ctx context.Context, sessionID string, lines []domain.CartLine) error
	DeleteCart(ctx context.Context, sessionID string) error
	Close() error
}
