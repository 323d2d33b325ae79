package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dwallet/internal/models"

	"github.com/redis/go-redis/v9"
)

// CacheService is a read-through cache for wallets and system settings.
// Settlement invalidates wallet entries after every commit; cached values
// are never used inside an atomic unit.
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

func walletKey(walletID uint) string {
	return fmt.Sprintf("wallet:id:%d", walletID)
}

const settingsKey = "system:settings"

// Wallet caching

func (s *CacheService) CacheWallet(ctx context.Context, w *models.Wallet) error {
	if w == nil {
		return errors.New("cannot cache nil wallet")
	}
	return s.SetWithTTL(ctx, walletKey(w.ID), w, 15*time.Minute)
}

func (s *CacheService) GetWallet(ctx context.Context, walletID uint) (*models.Wallet, bool) {
	var w models.Wallet
	ok, err := s.Get(ctx, walletKey(walletID), &w)
	if err != nil || !ok {
		return nil, false
	}
	return &w, true
}

func (s *CacheService) InvalidateWallet(ctx context.Context, walletIDs ...uint) error {
	keys := make([]string, 0, len(walletIDs))
	for _, id := range walletIDs {
		keys = append(keys, walletKey(id))
	}
	if len(keys) == 0 {
		return nil
	}
	return s.Delete(ctx, keys...)
}

// Settings caching

func (s *CacheService) CacheSettings(ctx context.Context, settings *models.SystemSettings) error {
	if settings == nil {
		return errors.New("cannot cache nil settings")
	}
	return s.SetWithTTL(ctx, settingsKey, settings, 5*time.Minute)
}

func (s *CacheService) GetSettings(ctx context.Context) (*models.SystemSettings, bool) {
	var settings models.SystemSettings
	ok, err := s.Get(ctx, settingsKey, &settings)
	if err != nil || !ok {
		return nil, false
	}
	return &settings, true
}

func (s *CacheService) InvalidateSettings(ctx context.Context) error {
	return s.Delete(ctx, settingsKey)
}

// Maintenance

func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

func (s *CacheService) Close() error {
	return s.client.Close()
}
