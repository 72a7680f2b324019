package service

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/cache"
	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/domain"
	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/repository"
)

// CartService owns the in-session cart: every mutation rewrites the
// full persisted snapshot, and derived totals are recomputed from the
// loaded lines on every read.
type CartService struct {
	repo  repository.CartRepository
	cache cache.CartCache
	log   logrus.FieldLogger
	sfg   singleflight.Group // Prevents cache stampede

	locks [64]sync.Mutex
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, log logrus.FieldLogger) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// sessionLock serializes mutations per session. Two concurrent submits
// for the same session must not interleave their load-mutate-save
// cycles. The stripe set is fixed-size, so memory stays bounded no
// matter how many sessions come and go.
func (s *CartService) sessionLock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%uint32(len(s.locks))]
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		lines, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return &domain.Cart{SessionID: sessionID, Lines: lines}, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WithError(err).Warn("cart cache get failed")
		}

		lines, errGet := s.loadLines(ctx, sessionID)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			ctxSet, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(ctxSet, sessionID, lines); errSet != nil {
				s.log.WithError(errSet).Warn("cart cache set failed")
			}
		}()

		return &domain.Cart{SessionID: sessionID, Lines: lines}, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem appends or increments the line for the product and persists
// the new snapshot. The product is accepted as-is.
func (s *CartService) AddItem(ctx context.Context, sessionID string, product domain.Product) (*domain.Cart, error) {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	lines, err := s.loadLines(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart := &domain.Cart{SessionID: sessionID, Lines: lines}
	cart.AddProduct(product)

	if err := s.repo.UpsertCart(ctx, sessionID, cart.Lines); err != nil {
		return nil, err
	}

	s.invalidateCache(sessionID)
	return cart, nil
}

// RemoveItem deletes the line for the product id, if present. Removing
// an absent product persists the unchanged snapshot and is not an
// error.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID int64) (*domain.Cart, error) {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	lines, err := s.loadLines(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart := &domain.Cart{SessionID: sessionID, Lines: lines}
	cart.RemoveProduct(productID)

	if err := s.repo.UpsertCart(ctx, sessionID, cart.Lines); err != nil {
		return nil, err
	}

	s.invalidateCache(sessionID)
	return cart, nil
}

// ClearCart drops the session's snapshot entirely, used after a
// successful checkout.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	if err := s.repo.DeleteCart(ctx, sessionID); err != nil {
		return nil, err
	}

	s.invalidateCache(sessionID)
	return &domain.Cart{SessionID: sessionID}, nil
}

// loadLines reads the persisted snapshot and repairs it: a missing or
// corrupt snapshot yields an empty cart, and invalid records are
// dropped instead of reaching the caller.
func (s *CartService) loadLines(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	lines, err := s.repo.GetCart(ctx, sessionID)
	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		return nil, nil
	case errors.Is(err, repository.ErrCartCorrupt):
		s.log.WithError(err).Warn("dropping corrupt cart snapshot")
		return nil, nil
	case err != nil:
		return nil, err
	}

	valid := domain.ValidLines(lines)
	if len(valid) != len(lines) {
		s.log.WithFields(logrus.Fields{
			"dropped": len(lines) - len(valid),
		}).Warn("dropped invalid cart lines on load")
	}
	return valid, nil
}

func (s *CartService) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.log.WithError(err).Warn("cart cache invalidate failed")
	}
}
