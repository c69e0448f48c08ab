package accounting

import (
	"context"
	"fmt"
	"sort"

	"github.com/erp/ledger/internal/domain/shared"
)

// RulePrecedence selects the ordering applied to candidate rules before the
// first match wins.
type RulePrecedence string

const (
	// PrecedenceConditionedFirst tries specific (conditioned) rules before
	// unconditioned fallbacks. This is the default: a generic fallback must
	// never shadow a narrower rule.
	PrecedenceConditionedFirst RulePrecedence = "CONDITIONED_FIRST"
	// PrecedenceLegacyUnconditionedFirst preserves the historical ordering in
	// which unconditioned rules sorted ahead of conditioned ones. Kept
	// selectable for installations that depend on the old behavior.
	PrecedenceLegacyUnconditionedFirst RulePrecedence = "LEGACY_UNCONDITIONED_FIRST"
)

// IsValid returns true if the precedence policy is valid
func (p RulePrecedence) IsValid() bool {
	return p == PrecedenceConditionedFirst || p == PrecedenceLegacyUnconditionedFirst
}

// AccountingRuleResolver maps a transaction type plus context to the
// debit/credit account pair configured for it. Resolution is read-only and
// side-effect free; the active rule set per transaction type may be cached.
type AccountingRuleResolver struct {
	rules      AccountingRuleRepository
	cache      RuleCache // may be nil
	precedence RulePrecedence
}

// NewAccountingRuleResolver creates a resolver. cache may be nil; an invalid
// precedence falls back to conditioned-first.
func NewAccountingRuleResolver(rules AccountingRuleRepository, cache RuleCache, precedence RulePrecedence) *AccountingRuleResolver {
	if !precedence.IsValid() {
		precedence = PrecedenceConditionedFirst
	}
	return &AccountingRuleResolver{
		rules:      rules,
		cache:      cache,
		precedence: precedence,
	}
}

// Resolve returns the account pair of the first rule matching the transaction
// type and context under the configured precedence policy.
func (r *AccountingRuleResolver) Resolve(ctx context.Context, transactionType string, ruleCtx RuleContext) (*ResolvedRule, error) {
	candidates, err := r.activeRules(ctx, transactionType)
	if err != nil {
		return nil, err
	}

	r.order(candidates)

	for i := range candidates {
		rule := candidates[i]
		if rule.Matches(ruleCtx) {
			return &ResolvedRule{
				RuleCode:          rule.RuleCode,
				DebitAccountCode:  rule.DebitAccountCode,
				CreditAccountCode: rule.CreditAccountCode,
			}, nil
		}
	}
	return nil, fmt.Errorf("transaction type %s: %w", transactionType, shared.ErrNoMatchingRule)
}

// Invalidate drops any cached rule set for the transaction type. Call after
// rule administration so new postings see the change.
func (r *AccountingRuleResolver) Invalidate(ctx context.Context, transactionType string) {
	if r.cache != nil {
		r.cache.Invalidate(ctx, transactionType)
	}
}

func (r *AccountingRuleResolver) activeRules(ctx context.Context, transactionType string) ([]AccountingRule, error) {
	if r.cache != nil {
		if rules, ok := r.cache.GetRules(ctx, transactionType); ok {
			return rules, nil
		}
	}

	rules, err := r.rules.FindActiveByTransactionType(ctx, transactionType)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.SetRules(ctx, transactionType, rules)
	}
	return rules, nil
}

// order sorts candidates by specificity tier per the precedence policy, then
// by priority, then by rule code so resolution is deterministic.
func (r *AccountingRuleResolver) order(rules []AccountingRule) {
	conditionedFirst := r.precedence == PrecedenceConditionedFirst
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].IsConditioned() != rules[j].IsConditioned() {
			return rules[i].IsConditioned() == conditionedFirst
		}
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].RuleCode < rules[j].RuleCode
	})
}
