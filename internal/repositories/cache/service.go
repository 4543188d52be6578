package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pavo/internal/models"

	"github.com/redis/go-redis/v9"
)

// CacheService wraps Redis with JSON serialization and TTL handling.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheService creates a cache service with a default TTL.
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

// Wallet balance caching, keyed by (user, currency).

func (s *CacheService) CacheWalletBalance(ctx context.Context, wallet *models.WalletBalance) error {
	key := s.walletKey(wallet.UserID, wallet.Currency)
	return s.Set(ctx, key, wallet)
}

func (s *CacheService) GetWalletBalance(ctx context.Context, userID uint, currency string) (*models.WalletBalance, bool) {
	var wallet models.WalletBalance
	found, err := s.Get(ctx, s.walletKey(userID, currency), &wallet)
	if err != nil || !found {
		return nil, false
	}
	return &wallet, true
}

func (s *CacheService) InvalidateWalletBalance(ctx context.Context, userID uint, currency string) error {
	return s.Delete(ctx, s.walletKey(userID, currency))
}

func (s *CacheService) walletKey(userID uint, currency string) string {
	return fmt.Sprintf("wallet:%d:%s", userID, currency)
}

// Idempotency fast path: payment id by idempotency key. The database unique
// index remains the source of truth; this only short-circuits retries.

func (s *CacheService) CacheIdempotentPayment(ctx context.Context, key, paymentID string) error {
	return s.SetWithTTL(ctx, s.GenerateKey("payment", "idem", key), paymentID, 24*time.Hour)
}

func (s *CacheService) GetIdempotentPayment(ctx context.Context, key string) (string, bool) {
	var paymentID string
	found, err := s.Get(ctx, s.GenerateKey("payment", "idem", key), &paymentID)
	if err != nil || !found {
		return "", false
	}
	return paymentID, true
}

// HealthCheck pings Redis.
func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Close closes the Redis client connection.
func (s *CacheService) Close() error {
	return s.client.Close()
}
