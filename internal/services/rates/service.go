// Package rates exposes the current GBP to USDT exchange rate. Samples are
// written to the exchange_rates table by an external fetcher; this service
// serves the latest one through a short-lived Redis cache so quote and
// creation paths do not hit the table on every request.
package rates

import (
	"context"
	"errors"
	"log"
	"time"

	"bridgepay/internal/models"
	"bridgepay/internal/repositories"
	"bridgepay/internal/repositories/cache"
)

// ErrNoRate is returned when no rate sample exists yet.
var ErrNoRate = errors.New("no exchange rate available")

// DefaultCacheTTL bounds how stale a served rate can be.
const DefaultCacheTTL = time.Minute

type Service interface {
	// CurrentRate returns the most recent rate sample.
	CurrentRate(ctx context.Context) (*models.ExchangeRate, error)
}

type service struct {
	repo     repositories.ExchangeRateRepository
	cache    *cache.CacheService
	cacheTTL time.Duration
}

// NewService creates a rates service.
func NewService(repo repositories.ExchangeRateRepository, cacheSvc *cache.CacheService, cacheTTL time.Duration) Service {
	if repo == nil {
		panic("exchange rate repository is required")
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &service{
		repo:     repo,
		cache:    cacheSvc,
		cacheTTL: cacheTTL,
	}
}

func (s *service) CurrentRate(ctx context.Context) (*models.ExchangeRate, error) {
	if s.cache != nil {
		if rate, err := s.cache.GetRate(ctx); err == nil {
			return rate, nil
		}
	}

	rate, err := s.repo.Latest()
	if err != nil {
		if errors.Is(err, repositories.ErrNoRateSample) {
			return nil, ErrNoRate
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheRate(ctx, rate, s.cacheTTL); err != nil {
			log.Printf("Failed to cache exchange rate: %v", err)
		}
	}

	return rate, nil
}
