package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/config"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	summaryKeyPrefix  = "inventory:summary"
	scanBatchSize     = 100
	defaultSummaryTTL = time.Minute
)

// InventorySummaryCache shields the summary aggregate query from repeated
// dashboard polling. Writes that move stock call InvalidateBranch.
type InventorySummaryCache interface {
	GetSummary(ctx context.Context, branchID int64) (*domain.InventorySummary, bool, error)
	SetSummary(ctx context.Context, branchID int64, summary *domain.InventorySummary) error
	InvalidateBranch(ctx context.Context, branchID int64) error
	InvalidateAll(ctx context.Context) error
}

type redisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSummaryCache struct{}

func NewInventorySummaryCache(cfg config.CacheConfig) (InventorySummaryCache, error) {
	if !cfg.Enabled {
		return &noopSummaryCache{}, nil
	}

	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.SummaryTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}

	return &redisSummaryCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopInventorySummaryCache() InventorySummaryCache {
	return &noopSummaryCache{}
}

func summaryKey(branchID int64) string {
	return fmt.Sprintf("%s:%d", summaryKeyPrefix, branchID)
}

func (c *redisSummaryCache) GetSummary(ctx context.Context, branchID int64) (*domain.InventorySummary, bool, error) {
	payload, err := c.client.Get(ctx, summaryKey(branchID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary domain.InventorySummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode inventory summary cache: %w", err)
	}

	return &summary, true, nil
}

func (c *redisSummaryCache) SetSummary(ctx context.Context, branchID int64, summary *domain.InventorySummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode inventory summary cache: %w", err)
	}

	if err := c.client.Set(ctx, summaryKey(branchID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisSummaryCache) InvalidateBranch(ctx context.Context, branchID int64) error {
	if err := c.client.Del(ctx, summaryKey(branchID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *redisSummaryCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, summaryKeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

func (n *noopSummaryCache) GetSummary(ctx context.Context, branchID int64) (*domain.InventorySummary, bool, error) {
	return nil, false, nil
}

func (n *noopSummaryCache) SetSummary(ctx context.Context, branchID int64, summary *domain.InventorySummary) error {
	return nil
}

func (n *noopSummaryCache) InvalidateBranch(ctx context.Context, branchID int64) error {
	return nil
}

func (n *noopSummaryCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}
