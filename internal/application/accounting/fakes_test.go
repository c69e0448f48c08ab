package accounting

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// passthroughTxm runs the function directly; the application tests assert
// persistence effects through the fakes, not transactional isolation
type passthroughTxm struct{}

func (passthroughTxm) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTxm) InTransaction(context.Context) bool {
	return false
}

var _ accounting.TransactionManager = passthroughTxm{}

type appTxKey struct{}

// rollbackTxm serializes transactions over the fakes and restores their
// pre-transaction state on failure, so tests can observe that a failing step
// takes every earlier write down with it. Nested Do calls join the enclosing
// transaction under a snapshot of their own, like production savepoints.
type rollbackTxm struct {
	accounts *fakeAccountRepo
	entries  *fakeEntryRepo
	postings *fakePostingRepo
	txMu     sync.Mutex
}

func (m *rollbackTxm) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(appTxKey{}) != nil {
		return m.run(ctx, fn)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.run(context.WithValue(ctx, appTxKey{}, true), fn)
}

func (m *rollbackTxm) run(ctx context.Context, fn func(ctx context.Context) error) error {
	accounts := m.accounts.snapshot()
	entries, legs, counter := m.entries.snapshot()
	postings := m.postings.snapshot()

	err := fn(ctx)
	if err != nil {
		m.accounts.restore(accounts)
		m.entries.restore(entries, legs, counter)
		m.postings.restore(postings)
	}
	return err
}

func (m *rollbackTxm) InTransaction(ctx context.Context) bool {
	return ctx.Value(appTxKey{}) != nil
}

var _ accounting.TransactionManager = (*rollbackTxm)(nil)

// fakeAccountRepo is a map-backed account repository
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]accounting.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]accounting.Account)}
}

func (r *fakeAccountRepo) put(a *accounting.Account) {
	r.mu.Lock()
	r.accounts[a.ID] = *a
	r.mu.Unlock()
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*accounting.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &a, nil
}

func (r *fakeAccountRepo) FindByCode(_ context.Context, code string) (*accounting.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Code == code {
			found := a
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeAccountRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]accounting.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := make([]accounting.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.accounts[id]; ok {
			found = append(found, a)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID.String() < found[j].ID.String() })
	return found, nil
}

func (r *fakeAccountRepo) FindByParentID(_ context.Context, parentID uuid.UUID) ([]accounting.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var children []accounting.Account
	for _, a := range r.accounts {
		if a.ParentID != nil && *a.ParentID == parentID {
			children = append(children, a)
		}
	}
	return children, nil
}

func (r *fakeAccountRepo) FindAll(_ context.Context, _ shared.Filter) ([]accounting.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]accounting.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		all = append(all, a)
	}
	return all, nil
}

func (r *fakeAccountRepo) Save(_ context.Context, account *accounting.Account) error {
	r.put(account)
	return nil
}

func (r *fakeAccountRepo) SaveWithLock(_ context.Context, account *accounting.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[account.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != account.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *fakeAccountRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.accounts)), nil
}

func (r *fakeAccountRepo) snapshot() map[uuid.UUID]accounting.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[uuid.UUID]accounting.Account, len(r.accounts))
	for id, a := range r.accounts {
		snap[id] = a
	}
	return snap
}

func (r *fakeAccountRepo) restore(snap map[uuid.UUID]accounting.Account) {
	r.mu.Lock()
	r.accounts = snap
	r.mu.Unlock()
}

var _ accounting.AccountRepository = (*fakeAccountRepo)(nil)

// fakeRuleRepo is a slice-backed rule repository
type fakeRuleRepo struct {
	rules []accounting.AccountingRule
}

func (r *fakeRuleRepo) FindByID(_ context.Context, id uuid.UUID) (*accounting.AccountingRule, error) {
	for i := range r.rules {
		if r.rules[i].ID == id {
			found := r.rules[i]
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeRuleRepo) FindByRuleCode(_ context.Context, ruleCode string) (*accounting.AccountingRule, error) {
	for i := range r.rules {
		if r.rules[i].RuleCode == ruleCode {
			found := r.rules[i]
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeRuleRepo) FindActiveByTransactionType(_ context.Context, transactionType string) ([]accounting.AccountingRule, error) {
	var active []accounting.AccountingRule
	for _, rule := range r.rules {
		if rule.TransactionType == transactionType && rule.IsActive {
			active = append(active, rule)
		}
	}
	return active, nil
}

func (r *fakeRuleRepo) FindAll(_ context.Context, _ shared.Filter) ([]accounting.AccountingRule, error) {
	return append([]accounting.AccountingRule(nil), r.rules...), nil
}

func (r *fakeRuleRepo) Save(_ context.Context, rule *accounting.AccountingRule) error {
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *fakeRuleRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.rules)), nil
}

var _ accounting.AccountingRuleRepository = (*fakeRuleRepo)(nil)

// fakeEntryRepo is a map-backed journal entry repository
type fakeEntryRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]accounting.JournalEntry
	legs    map[uuid.UUID][]accounting.AccountingEntry
	counter int
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{
		entries: make(map[uuid.UUID]accounting.JournalEntry),
		legs:    make(map[uuid.UUID][]accounting.AccountingEntry),
	}
}

func (r *fakeEntryRepo) FindByID(_ context.Context, id uuid.UUID) (*accounting.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &e, nil
}

func (r *fakeEntryRepo) FindByEntryNumber(_ context.Context, entryNumber string) (*accounting.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.EntryNumber == entryNumber {
			found := e
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeEntryRepo) FindAll(_ context.Context, filter accounting.JournalEntryFilter) ([]accounting.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []accounting.JournalEntry
	for _, e := range r.entries {
		if filter.IsPosted != nil && e.IsPosted != *filter.IsPosted {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EntryNumber < all[j].EntryNumber })
	return all, nil
}

func (r *fakeEntryRepo) FindLegs(_ context.Context, journalEntryID uuid.UUID) ([]accounting.AccountingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]accounting.AccountingEntry(nil), r.legs[journalEntryID]...), nil
}

func (r *fakeEntryRepo) Create(_ context.Context, entry *accounting.JournalEntry, legs []*accounting.AccountingEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[entry.ID]; exists {
		return shared.ErrAlreadyExists
	}
	r.entries[entry.ID] = *entry
	for _, leg := range legs {
		r.legs[entry.ID] = append(r.legs[entry.ID], *leg)
	}
	return nil
}

func (r *fakeEntryRepo) Count(_ context.Context, filter accounting.JournalEntryFilter) (int64, error) {
	all, _ := r.FindAll(context.Background(), filter)
	return int64(len(all)), nil
}

func (r *fakeEntryRepo) SumPostedAmounts(_ context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	debits, credits := decimal.Zero, decimal.Zero
	for id, e := range r.entries {
		if !e.IsPosted || e.EntryDate.Before(from) || e.EntryDate.After(to) {
			continue
		}
		for _, leg := range r.legs[id] {
			if leg.EntryType == accounting.EntryTypeDebit {
				debits = debits.Add(leg.Amount)
			} else {
				credits = credits.Add(leg.Amount)
			}
		}
	}
	return debits, credits, nil
}

func (r *fakeEntryRepo) GenerateEntryNumber(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter++
	return fmt.Sprintf("JE-APP-%05d", r.counter), nil
}

func (r *fakeEntryRepo) snapshot() (map[uuid.UUID]accounting.JournalEntry, map[uuid.UUID][]accounting.AccountingEntry, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make(map[uuid.UUID]accounting.JournalEntry, len(r.entries))
	for id, e := range r.entries {
		entries[id] = e
	}
	legs := make(map[uuid.UUID][]accounting.AccountingEntry, len(r.legs))
	for id, l := range r.legs {
		legs[id] = append([]accounting.AccountingEntry(nil), l...)
	}
	return entries, legs, r.counter
}

func (r *fakeEntryRepo) restore(entries map[uuid.UUID]accounting.JournalEntry, legs map[uuid.UUID][]accounting.AccountingEntry, counter int) {
	r.mu.Lock()
	r.entries = entries
	r.legs = legs
	r.counter = counter
	r.mu.Unlock()
}

var _ accounting.JournalEntryRepository = (*fakeEntryRepo)(nil)

// fakePostingRepo is a slice-backed posting log
type fakePostingRepo struct {
	mu       sync.Mutex
	postings []accounting.BalancePosting
}

func (r *fakePostingRepo) Create(_ context.Context, posting *accounting.BalancePosting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postings = append(r.postings, *posting)
	return nil
}

func (r *fakePostingRepo) FindByAccountID(_ context.Context, accountID uuid.UUID, _ shared.Filter) ([]accounting.BalancePosting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []accounting.BalancePosting
	for _, p := range r.postings {
		if p.AccountID == accountID {
			found = append(found, p)
		}
	}
	return found, nil
}

func (r *fakePostingRepo) SumDeltaByAccount(_ context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, p := range r.postings {
		if p.AccountID == accountID {
			total = total.Add(p.Delta)
		}
	}
	return total, nil
}

func (r *fakePostingRepo) snapshot() []accounting.BalancePosting {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]accounting.BalancePosting(nil), r.postings...)
}

func (r *fakePostingRepo) restore(snap []accounting.BalancePosting) {
	r.mu.Lock()
	r.postings = snap
	r.mu.Unlock()
}

var _ accounting.BalancePostingRepository = (*fakePostingRepo)(nil)

// MockInventoryTransactionRepository mocks movement persistence so tests can
// assert exactly when movements are written
type MockInventoryTransactionRepository struct {
	mock.Mock
}

func (m *MockInventoryTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryTransaction), args.Error(1)
}

func (m *MockInventoryTransactionRepository) FindByTransactionNumber(ctx context.Context, transactionNumber string) (*inventory.InventoryTransaction, error) {
	args := m.Called(ctx, transactionNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryTransaction), args.Error(1)
}

func (m *MockInventoryTransactionRepository) FindByJournalEntryID(ctx context.Context, journalEntryID uuid.UUID) (*inventory.InventoryTransaction, error) {
	args := m.Called(ctx, journalEntryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryTransaction), args.Error(1)
}

func (m *MockInventoryTransactionRepository) FindAll(ctx context.Context, filter inventory.InventoryTransactionFilter) ([]inventory.InventoryTransaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.InventoryTransaction), args.Error(1)
}

func (m *MockInventoryTransactionRepository) Create(ctx context.Context, tx *inventory.InventoryTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockInventoryTransactionRepository) Count(ctx context.Context, filter inventory.InventoryTransactionFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInventoryTransactionRepository) GenerateTransactionNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

var _ inventory.InventoryTransactionRepository = (*MockInventoryTransactionRepository)(nil)
