package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMaxHierarchyDepth bounds balance rollup traversal when no explicit
// limit is configured. Real charts of accounts rarely exceed 5 levels.
const DefaultMaxHierarchyDepth = 10

// ChartOfAccountsRegistry owns the account hierarchy: code lookup, balance
// resolution with synthetic rollup, and balance application. It never holds a
// live parent/child object graph; children are fetched by parent-id query.
type ChartOfAccountsRegistry struct {
	accounts AccountRepository
	postings BalancePostingRepository
	maxDepth int
}

// NewChartOfAccountsRegistry creates a registry over the given repositories.
// maxDepth bounds hierarchy traversal; zero or negative selects the default.
func NewChartOfAccountsRegistry(accounts AccountRepository, postings BalancePostingRepository, maxDepth int) *ChartOfAccountsRegistry {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxHierarchyDepth
	}
	return &ChartOfAccountsRegistry{
		accounts: accounts,
		postings: postings,
		maxDepth: maxDepth,
	}
}

// LookupByCode finds an account by its unique hierarchical code
func (r *ChartOfAccountsRegistry) LookupByCode(ctx context.Context, code string) (*Account, error) {
	if err := ValidateAccountCode(code); err != nil {
		return nil, err
	}
	return r.accounts.FindByCode(ctx, code)
}

// LookupByID finds an account by ID
func (r *ChartOfAccountsRegistry) LookupByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.accounts.FindByID(ctx, id)
}

// ResolveBalance returns the effective balance of an account. Analytic
// accounts report their stored value; synthetic accounts report the sum over
// their descendant analytic accounts, computed on demand. Traversal is bounded
// by the configured depth to defend against malformed parent chains.
func (r *ChartOfAccountsRegistry) ResolveBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	account, err := r.accounts.FindByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return r.resolveBalance(ctx, account, 0)
}

func (r *ChartOfAccountsRegistry) resolveBalance(ctx context.Context, account *Account, depth int) (decimal.Decimal, error) {
	if depth > r.maxDepth {
		return decimal.Zero, fmt.Errorf("account %s: %w", account.Code, shared.ErrCyclicHierarchy)
	}
	if account.IsAnalytic {
		return account.Balance, nil
	}

	children, err := r.accounts.FindByParentID(ctx, account.ID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i := range children {
		child := children[i]
		sub, err := r.resolveBalance(ctx, &child, depth+1)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(sub)
	}
	return total, nil
}

// ApplyDelta applies one leg's balance effect to an analytic account and
// appends the matching fact to the posting log. It is the only account
// mutator and must be invoked solely under the poster's transaction: the
// optimistic version check surfaces concurrent writers as a conflict the
// poster can retry.
func (r *ChartOfAccountsRegistry) ApplyDelta(
	ctx context.Context,
	accountID uuid.UUID,
	entryType EntryType,
	amount decimal.Decimal,
	journalEntryID, accountingEntryID uuid.UUID,
	postedAt time.Time,
) error {
	account, err := r.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	delta, err := account.ApplyDelta(entryType, amount)
	if err != nil {
		return err
	}

	if err := r.accounts.SaveWithLock(ctx, account); err != nil {
		return err
	}

	posting, err := NewBalancePosting(
		account.ID, journalEntryID, accountingEntryID,
		entryType, amount, delta, account.Balance, postedAt,
	)
	if err != nil {
		return err
	}
	return r.postings.Create(ctx, posting)
}
