package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bridgepay/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a typed getter finds no entry.
var ErrCacheMiss = errors.New("cache miss")

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NewRedisClient creates a Redis client from config.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// CacheService wraps Redis with JSON marshaling and app-level key schemes.
// Writers invalidate entries on every mutation so readers in other sessions
// observe fresh state on their next fetch.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations

func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// GenerateKey builds a namespaced cache key.
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// User caching

func (s *CacheService) CacheUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("cannot cache nil user")
	}

	keys := []string{
		s.GenerateKey("user", "id", user.ID),
		s.GenerateKey("user", "email", user.Email),
	}
	for _, key := range keys {
		if err := s.Set(ctx, key, user); err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheService) GetUser(ctx context.Context, key string) (*models.User, error) {
	var user models.User
	found, err := s.Get(ctx, key, &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCacheMiss
	}
	return &user, nil
}

func (s *CacheService) InvalidateUser(ctx context.Context, userID uint, email string) error {
	keys := []string{s.GenerateKey("user", "id", userID)}
	if email != "" {
		keys = append(keys, s.GenerateKey("user", "email", email))
	}
	return s.Delete(ctx, keys...)
}

// Transaction caching

func (s *CacheService) CacheTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn == nil {
		return errors.New("cannot cache nil transaction")
	}
	return s.Set(ctx, s.GenerateKey("transaction", "public_id", txn.PublicID), txn)
}

func (s *CacheService) GetTransaction(ctx context.Context, publicID string) (*models.Transaction, error) {
	var txn models.Transaction
	found, err := s.Get(ctx, s.GenerateKey("transaction", "public_id", publicID), &txn)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCacheMiss
	}
	return &txn, nil
}

func (s *CacheService) InvalidateTransaction(ctx context.Context, publicID string) error {
	return s.Delete(ctx, s.GenerateKey("transaction", "public_id", publicID))
}

// Exchange rate caching; short TTL so new samples surface quickly.

func (s *CacheService) CacheRate(ctx context.Context, rate *models.ExchangeRate, ttl time.Duration) error {
	return s.SetWithTTL(ctx, s.GenerateKey("rate", "pair", "GBPUSDT"), rate, ttl)
}

func (s *CacheService) GetRate(ctx context.Context) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	found, err := s.Get(ctx, s.GenerateKey("rate", "pair", "GBPUSDT"), &rate)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCacheMiss
	}
	return &rate, nil
}

// FlushAll flushes all keys from the cache
func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
