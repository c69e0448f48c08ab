package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ruleCacheKeyPrefix = "ledger:rules:"

// RedisRuleCache caches active accounting rules per transaction type in Redis
// so all instances share one view of the rule configuration. Cache failures
// are logged and treated as misses; resolution falls back to the repository.
type RedisRuleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRuleCache creates a Redis-backed rule cache
func NewRedisRuleCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisRuleCache {
	if ttl <= 0 {
		ttl = DefaultRuleCacheTTL
	}
	return &RedisRuleCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetRules returns the cached rule set for a transaction type
func (c *RedisRuleCache) GetRules(ctx context.Context, transactionType string) ([]accounting.AccountingRule, bool) {
	payload, err := c.client.Get(ctx, ruleCacheKeyPrefix+transactionType).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("rule cache read failed, falling back to repository",
				zap.String("transaction_type", transactionType),
				zap.Error(err),
			)
		}
		return nil, false
	}

	var rules []accounting.AccountingRule
	if err := json.Unmarshal(payload, &rules); err != nil {
		c.logger.Warn("rule cache payload corrupt, dropping key",
			zap.String("transaction_type", transactionType),
			zap.Error(err),
		)
		c.client.Del(ctx, ruleCacheKeyPrefix+transactionType)
		return nil, false
	}
	return rules, true
}

// SetRules stores the rule set for a transaction type
func (c *RedisRuleCache) SetRules(ctx context.Context, transactionType string, rules []accounting.AccountingRule) {
	payload, err := json.Marshal(rules)
	if err != nil {
		c.logger.Warn("failed to marshal rules for cache",
			zap.String("transaction_type", transactionType),
			zap.Error(err),
		)
		return
	}

	if err := c.client.Set(ctx, ruleCacheKeyPrefix+transactionType, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("rule cache write failed",
			zap.String("transaction_type", transactionType),
			zap.Error(err),
		)
	}
}

// Invalidate drops the cached rule set for a transaction type
func (c *RedisRuleCache) Invalidate(ctx context.Context, transactionType string) {
	if err := c.client.Del(ctx, ruleCacheKeyPrefix+transactionType).Err(); err != nil {
		c.logger.Warn("rule cache invalidation failed",
			zap.String("transaction_type", transactionType),
			zap.Error(err),
		)
	}
}

// Ensure RedisRuleCache implements accounting.RuleCache
var _ accounting.RuleCache = (*RedisRuleCache)(nil)
