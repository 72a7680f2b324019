package cache

import (
	"context"
	"errors"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, sessionID string) ([]domain.CartLine, error)
	Set(ctx context.Context, sessionID string, lines []domain.CartLine) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")
