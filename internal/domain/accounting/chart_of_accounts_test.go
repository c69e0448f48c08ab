package accounting

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedHierarchy builds a three-level chart:
//
//	1 (synthetic)
//	└── 1.1 (synthetic)
//	    ├── 1.1.01.001 (analytic, 100.50)
//	    └── 1.1.03.001 (analytic, 2599.00)
func seedHierarchy(t *testing.T, f *ledgerFixture) (root, mid, cash, inventory *Account) {
	t.Helper()

	root, err := NewAccount("1", "Assets", AccountTypeAsset, nil, false)
	require.NoError(t, err)
	f.store.putAccount(root)

	mid, err = NewAccount("1.1", "Current Assets", AccountTypeAsset, &root.ID, false)
	require.NoError(t, err)
	f.store.putAccount(mid)

	cash, err = NewAccount("1.1.01.001", "Cash", AccountTypeAsset, &mid.ID, true)
	require.NoError(t, err)
	cash.Balance = mustDecimal("100.50")
	f.store.putAccount(cash)

	inventory, err = NewAccount("1.1.03.001", "Inventory", AccountTypeAsset, &mid.ID, true)
	require.NoError(t, err)
	inventory.Balance = mustDecimal("2599.00")
	f.store.putAccount(inventory)

	return root, mid, cash, inventory
}

// ============ Lookup Tests ============

func TestChartOfAccountsRegistry_LookupByCode(t *testing.T) {
	f := newLedgerFixture()
	_, _, _, inventory := seedHierarchy(t, f)

	found, err := f.registry.LookupByCode(context.Background(), "1.1.03.001")
	require.NoError(t, err)
	assert.Equal(t, inventory.ID, found.ID)

	_, err = f.registry.LookupByCode(context.Background(), "9.9.99.999")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.registry.LookupByCode(context.Background(), "not-a-code")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
}

// ============ ResolveBalance Tests ============

func TestChartOfAccountsRegistry_ResolveBalance(t *testing.T) {
	f := newLedgerFixture()
	root, mid, cash, inventory := seedHierarchy(t, f)

	tests := []struct {
		name    string
		account *Account
		want    string
	}{
		{"analytic reports stored balance", inventory, "2599.00"},
		{"another analytic", cash, "100.50"},
		{"synthetic sums children", mid, "2699.50"},
		{"root sums recursively", root, "2699.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balance, err := f.registry.ResolveBalance(context.Background(), tt.account.ID)
			require.NoError(t, err)
			assert.True(t, balance.Equal(mustDecimal(tt.want)), "got %s", balance)
		})
	}
}

func TestChartOfAccountsRegistry_ResolveBalance_EmptySynthetic(t *testing.T) {
	f := newLedgerFixture()

	lonely, err := NewAccount("7", "Empty Group", AccountTypeExpense, nil, false)
	require.NoError(t, err)
	f.store.putAccount(lonely)

	balance, err := f.registry.ResolveBalance(context.Background(), lonely.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestChartOfAccountsRegistry_ResolveBalance_DepthGuard(t *testing.T) {
	f := newLedgerFixture()

	// two synthetic accounts parenting each other form a cycle
	a, err := NewAccount("8", "A", AccountTypeAsset, nil, false)
	require.NoError(t, err)
	b, err := NewAccount("8.1", "B", AccountTypeAsset, &a.ID, false)
	require.NoError(t, err)
	a.ParentID = &b.ID
	f.store.putAccount(a)
	f.store.putAccount(b)

	_, err = f.registry.ResolveBalance(context.Background(), a.ID)
	assert.ErrorIs(t, err, shared.ErrCyclicHierarchy)
}

// ============ ApplyDelta Tests ============

func TestChartOfAccountsRegistry_ApplyDelta(t *testing.T) {
	f := newLedgerFixture()
	_, _, _, inventory := seedHierarchy(t, f)
	ctx := context.Background()

	entryID, legID := uuid.New(), uuid.New()
	err := f.registry.ApplyDelta(ctx, inventory.ID, EntryTypeDebit, mustDecimal("401.00"), entryID, legID, time.Now())
	require.NoError(t, err)

	// stored balance updated with bumped version
	stored, err := f.accounts.FindByID(ctx, inventory.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(mustDecimal("3000.00")), "got %s", stored.Balance)
	assert.Equal(t, 2, stored.Version)

	// matching fact appended to the posting log
	postings, err := f.postings.FindByAccountID(ctx, inventory.ID, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, entryID, postings[0].JournalEntryID)
	assert.Equal(t, legID, postings[0].AccountingEntryID)
	assert.True(t, postings[0].Delta.Equal(mustDecimal("401.00")))
	assert.True(t, postings[0].BalanceAfter.Equal(mustDecimal("3000.00")))
}

func TestChartOfAccountsRegistry_ApplyDelta_NotPostable(t *testing.T) {
	f := newLedgerFixture()
	_, mid, _, inventory := seedHierarchy(t, f)
	ctx := context.Background()

	err := f.registry.ApplyDelta(ctx, mid.ID, EntryTypeDebit, mustDecimal("10"), uuid.New(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, shared.ErrAccountState)

	inventory.Deactivate()
	f.store.putAccount(inventory)
	err = f.registry.ApplyDelta(ctx, inventory.ID, EntryTypeDebit, mustDecimal("10"), uuid.New(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, shared.ErrAccountState)
}

func TestChartOfAccountsRegistry_ApplyDelta_LogReplaysToBalance(t *testing.T) {
	f := newLedgerFixture()
	_, _, _, inventory := seedHierarchy(t, f)
	ctx := context.Background()

	amounts := []struct {
		entryType EntryType
		amount    string
	}{
		{EntryTypeDebit, "100.00"},
		{EntryTypeCredit, "40.25"},
		{EntryTypeDebit, "0.25"},
	}
	for _, a := range amounts {
		err := f.registry.ApplyDelta(ctx, inventory.ID, a.entryType, mustDecimal(a.amount), uuid.New(), uuid.New(), time.Now())
		require.NoError(t, err)
	}

	netDelta, err := f.postings.SumDeltaByAccount(ctx, inventory.ID)
	require.NoError(t, err)
	assert.True(t, netDelta.Equal(mustDecimal("60.00")), "got %s", netDelta)

	stored, err := f.accounts.FindByID(ctx, inventory.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(mustDecimal("2599.00").Add(netDelta)))
}
