package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
)

// DefaultRuleCacheTTL is used when no TTL is configured
const DefaultRuleCacheTTL = 5 * time.Minute

type ruleCacheEntry struct {
	rules     []accounting.AccountingRule
	expiresAt time.Time
}

// InMemoryRuleCache caches the active accounting rules per transaction type in
// process memory with a TTL. Safe for concurrent use.
type InMemoryRuleCache struct {
	mu      sync.RWMutex
	entries map[string]ruleCacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryRuleCache creates a cache; non-positive ttl selects the default
func NewInMemoryRuleCache(ttl time.Duration) *InMemoryRuleCache {
	if ttl <= 0 {
		ttl = DefaultRuleCacheTTL
	}
	return &InMemoryRuleCache{
		entries: make(map[string]ruleCacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetRules returns the cached rule set for a transaction type
func (c *InMemoryRuleCache) GetRules(_ context.Context, transactionType string) ([]accounting.AccountingRule, bool) {
	c.mu.RLock()
	entry, ok := c.entries[transactionType]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}

	// Copy so callers cannot mutate the cached slice
	rules := make([]accounting.AccountingRule, len(entry.rules))
	copy(rules, entry.rules)
	return rules, true
}

// SetRules stores the rule set for a transaction type
func (c *InMemoryRuleCache) SetRules(_ context.Context, transactionType string, rules []accounting.AccountingRule) {
	stored := make([]accounting.AccountingRule, len(rules))
	copy(stored, rules)

	c.mu.Lock()
	c.entries[transactionType] = ruleCacheEntry{
		rules:     stored,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate drops the cached rule set for a transaction type
func (c *InMemoryRuleCache) Invalidate(_ context.Context, transactionType string) {
	c.mu.Lock()
	delete(c.entries, transactionType)
	c.mu.Unlock()
}

// Ensure InMemoryRuleCache implements accounting.RuleCache
var _ accounting.RuleCache = (*InMemoryRuleCache)(nil)
