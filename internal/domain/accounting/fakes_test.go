package accounting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore backs the in-memory repository fakes used across the package tests.
// All access goes through its mutex; the fake transaction manager snapshots and
// restores the whole store to emulate rollback.
type memStore struct {
	mu          sync.Mutex
	accounts    map[uuid.UUID]Account
	rules       []AccountingRule
	entries     map[uuid.UUID]JournalEntry
	legs        map[uuid.UUID][]AccountingEntry
	postings    []BalancePosting
	entryNumber int
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[uuid.UUID]Account),
		entries:  make(map[uuid.UUID]JournalEntry),
		legs:     make(map[uuid.UUID][]AccountingEntry),
	}
}

func (s *memStore) putAccount(a *Account) {
	s.mu.Lock()
	s.accounts[a.ID] = *a
	s.mu.Unlock()
}

func (s *memStore) putRule(r *AccountingRule) {
	s.mu.Lock()
	s.rules = append(s.rules, *r)
	s.mu.Unlock()
}

type memSnapshot struct {
	accounts    map[uuid.UUID]Account
	rules       []AccountingRule
	entries     map[uuid.UUID]JournalEntry
	legs        map[uuid.UUID][]AccountingEntry
	postings    []BalancePosting
	entryNumber int
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		accounts:    make(map[uuid.UUID]Account, len(s.accounts)),
		rules:       append([]AccountingRule(nil), s.rules...),
		entries:     make(map[uuid.UUID]JournalEntry, len(s.entries)),
		legs:        make(map[uuid.UUID][]AccountingEntry, len(s.legs)),
		postings:    append([]BalancePosting(nil), s.postings...),
		entryNumber: s.entryNumber,
	}
	for id, a := range s.accounts {
		snap.accounts[id] = a
	}
	for id, e := range s.entries {
		snap.entries[id] = e
	}
	for id, l := range s.legs {
		snap.legs[id] = append([]AccountingEntry(nil), l...)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.rules = snap.rules
	s.entries = snap.entries
	s.legs = snap.legs
	s.postings = snap.postings
	s.entryNumber = snap.entryNumber
}

// memTxManager serializes transactions over the store and restores the
// pre-transaction snapshot on failure. Nested Do calls join the enclosing
// transaction under a snapshot of their own, mirroring the production
// savepoint behavior.
type memTxManager struct {
	store *memStore
	txMu  sync.Mutex
}

type memTxKey struct{}

func (m *memTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		snap := m.store.snapshot()
		err := fn(ctx)
		if err != nil {
			m.store.restore(snap)
		}
		return err
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.store.snapshot()
	err := fn(context.WithValue(ctx, memTxKey{}, true))
	if err != nil {
		m.store.restore(snap)
	}
	return err
}

func (m *memTxManager) InTransaction(ctx context.Context) bool {
	return ctx.Value(memTxKey{}) != nil
}

var _ TransactionManager = (*memTxManager)(nil)

// memAccountRepo implements AccountRepository over memStore
type memAccountRepo struct {
	store *memStore
}

func (r *memAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &a, nil
}

func (r *memAccountRepo) FindByCode(_ context.Context, code string) (*Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.accounts {
		if a.Code == code {
			found := a
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memAccountRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	accounts := make([]Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.store.accounts[id]; ok {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ID.String() < accounts[j].ID.String()
	})
	return accounts, nil
}

func (r *memAccountRepo) FindByParentID(_ context.Context, parentID uuid.UUID) ([]Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var children []Account
	for _, a := range r.store.accounts {
		if a.ParentID != nil && *a.ParentID == parentID {
			children = append(children, a)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Code < children[j].Code })
	return children, nil
}

func (r *memAccountRepo) FindAll(_ context.Context, _ shared.Filter) ([]Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	accounts := make([]Account, 0, len(r.store.accounts))
	for _, a := range r.store.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
	return accounts, nil
}

func (r *memAccountRepo) Save(_ context.Context, account *Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.accounts[account.ID] = *account
	return nil
}

func (r *memAccountRepo) SaveWithLock(_ context.Context, account *Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.accounts[account.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != account.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.store.accounts[account.ID] = *account
	return nil
}

func (r *memAccountRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.accounts)), nil
}

var _ AccountRepository = (*memAccountRepo)(nil)

// conflictingAccountRepo fails SaveWithLock a fixed number of times before
// delegating, to exercise the poster's retry path
type conflictingAccountRepo struct {
	AccountRepository
	mu        sync.Mutex
	conflicts int
}

func (r *conflictingAccountRepo) SaveWithLock(ctx context.Context, account *Account) error {
	r.mu.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return shared.ErrConcurrencyConflict
	}
	r.mu.Unlock()
	return r.AccountRepository.SaveWithLock(ctx, account)
}

// sequencedEntryRepo draws entry numbers from a monotonic counter that, like
// a database sequence, does not roll back with the transaction, and rejects
// the first collisions Creates with a conflict the way a unique index on the
// entry number surfaces one.
type sequencedEntryRepo struct {
	JournalEntryRepository
	seq        int64
	collisions int32
}

func (r *sequencedEntryRepo) GenerateEntryNumber(_ context.Context) (string, error) {
	return fmt.Sprintf("JE-SEQ-%05d", atomic.AddInt64(&r.seq, 1)), nil
}

func (r *sequencedEntryRepo) Create(ctx context.Context, entry *JournalEntry, legs []*AccountingEntry) error {
	if atomic.AddInt32(&r.collisions, -1) >= 0 {
		return fmt.Errorf("entry number %s already taken: %w", entry.EntryNumber, shared.ErrConcurrencyConflict)
	}
	return r.JournalEntryRepository.Create(ctx, entry, legs)
}

// memRuleRepo implements AccountingRuleRepository over memStore
type memRuleRepo struct {
	store *memStore
	calls int // FindActiveByTransactionType invocations, for cache tests
}

func (r *memRuleRepo) FindByID(_ context.Context, id uuid.UUID) (*AccountingRule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rule := range r.store.rules {
		if rule.ID == id {
			found := rule
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memRuleRepo) FindByRuleCode(_ context.Context, ruleCode string) (*AccountingRule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rule := range r.store.rules {
		if rule.RuleCode == ruleCode {
			found := rule
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memRuleRepo) FindActiveByTransactionType(_ context.Context, transactionType string) ([]AccountingRule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.calls++
	var rules []AccountingRule
	for _, rule := range r.store.rules {
		if rule.TransactionType == transactionType && rule.IsActive {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (r *memRuleRepo) FindAll(_ context.Context, _ shared.Filter) ([]AccountingRule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]AccountingRule(nil), r.store.rules...), nil
}

func (r *memRuleRepo) Save(_ context.Context, rule *AccountingRule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.rules {
		if r.store.rules[i].ID == rule.ID {
			r.store.rules[i] = *rule
			return nil
		}
	}
	r.store.rules = append(r.store.rules, *rule)
	return nil
}

func (r *memRuleRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.rules)), nil
}

var _ AccountingRuleRepository = (*memRuleRepo)(nil)

// memEntryRepo implements JournalEntryRepository over memStore
type memEntryRepo struct {
	store *memStore
}

func (r *memEntryRepo) FindByID(_ context.Context, id uuid.UUID) (*JournalEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.entries[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &e, nil
}

func (r *memEntryRepo) FindByEntryNumber(_ context.Context, entryNumber string) (*JournalEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.entries {
		if e.EntryNumber == entryNumber {
			found := e
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memEntryRepo) FindAll(_ context.Context, filter JournalEntryFilter) ([]JournalEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var entries []JournalEntry
	for _, e := range r.store.entries {
		if filter.IsPosted != nil && e.IsPosted != *filter.IsPosted {
			continue
		}
		if filter.DocumentType != nil && e.DocumentType != *filter.DocumentType {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].EntryNumber < entries[j].EntryNumber })
	return entries, nil
}

func (r *memEntryRepo) FindLegs(_ context.Context, journalEntryID uuid.UUID) ([]AccountingEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]AccountingEntry(nil), r.store.legs[journalEntryID]...), nil
}

func (r *memEntryRepo) Create(_ context.Context, entry *JournalEntry, legs []*AccountingEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.entries[entry.ID]; exists {
		return shared.ErrAlreadyExists
	}
	r.store.entries[entry.ID] = *entry
	stored := make([]AccountingEntry, 0, len(legs))
	for _, leg := range legs {
		stored = append(stored, *leg)
	}
	r.store.legs[entry.ID] = stored
	return nil
}

func (r *memEntryRepo) Count(_ context.Context, filter JournalEntryFilter) (int64, error) {
	entries, _ := r.FindAll(context.Background(), filter)
	return int64(len(entries)), nil
}

func (r *memEntryRepo) SumPostedAmounts(_ context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	debits, credits := decimal.Zero, decimal.Zero
	for id, e := range r.store.entries {
		if !e.IsPosted || e.EntryDate.Before(from) || e.EntryDate.After(to) {
			continue
		}
		for _, leg := range r.store.legs[id] {
			if leg.EntryType == EntryTypeDebit {
				debits = debits.Add(leg.Amount)
			} else {
				credits = credits.Add(leg.Amount)
			}
		}
	}
	return debits, credits, nil
}

func (r *memEntryRepo) GenerateEntryNumber(_ context.Context) (string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.entryNumber++
	return fmt.Sprintf("JE-TEST-%05d", r.store.entryNumber), nil
}

var _ JournalEntryRepository = (*memEntryRepo)(nil)

// memPostingRepo implements BalancePostingRepository over memStore
type memPostingRepo struct {
	store *memStore
}

func (r *memPostingRepo) Create(_ context.Context, posting *BalancePosting) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.postings = append(r.store.postings, *posting)
	return nil
}

func (r *memPostingRepo) FindByAccountID(_ context.Context, accountID uuid.UUID, _ shared.Filter) ([]BalancePosting, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var postings []BalancePosting
	for _, p := range r.store.postings {
		if p.AccountID == accountID {
			postings = append(postings, p)
		}
	}
	return postings, nil
}

func (r *memPostingRepo) SumDeltaByAccount(_ context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	total := decimal.Zero
	for _, p := range r.store.postings {
		if p.AccountID == accountID {
			total = total.Add(p.Delta)
		}
	}
	return total, nil
}

var _ BalancePostingRepository = (*memPostingRepo)(nil)

// ledgerFixture wires the full domain stack over the in-memory store
type ledgerFixture struct {
	store    *memStore
	txm      *memTxManager
	accounts *memAccountRepo
	rules    *memRuleRepo
	entries  *memEntryRepo
	postings *memPostingRepo
	registry *ChartOfAccountsRegistry
	resolver *AccountingRuleResolver
	composer *JournalEntryComposer
	poster   *LedgerPoster
}

func newLedgerFixture() *ledgerFixture {
	store := newMemStore()
	f := &ledgerFixture{
		store:    store,
		txm:      &memTxManager{store: store},
		accounts: &memAccountRepo{store: store},
		rules:    &memRuleRepo{store: store},
		entries:  &memEntryRepo{store: store},
		postings: &memPostingRepo{store: store},
	}
	f.registry = NewChartOfAccountsRegistry(f.accounts, f.postings, 0)
	f.resolver = NewAccountingRuleResolver(f.rules, nil, PrecedenceConditionedFirst)
	f.composer = NewJournalEntryComposer(f.registry, f.resolver)
	f.poster = NewLedgerPoster(f.txm, f.registry, f.entries, f.accounts, 3, time.Millisecond)
	return f
}

// seedAccount creates and stores an active analytic account
func (f *ledgerFixture) seedAccount(code string, accountType AccountType) *Account {
	account, err := NewAccount(code, "Account "+code, accountType, nil, true)
	if err != nil {
		panic(fmt.Sprintf("seed account %s: %v", code, err))
	}
	f.store.putAccount(account)
	return account
}

// seedRule creates and stores an unconditioned active rule
func (f *ledgerFixture) seedRule(transactionType, ruleCode, debitCode, creditCode string) *AccountingRule {
	rule, err := NewAccountingRule(transactionType, ruleCode, debitCode, creditCode)
	if err != nil {
		panic(fmt.Sprintf("seed rule %s: %v", ruleCode, err))
	}
	f.store.putRule(rule)
	return rule
}

// seedRuleWithPriority creates and stores a rule with an explicit priority
func (f *ledgerFixture) seedRuleWithPriority(transactionType, ruleCode, debitCode, creditCode string, priority int) *AccountingRule {
	rule, err := NewAccountingRule(transactionType, ruleCode, debitCode, creditCode)
	if err != nil {
		panic(fmt.Sprintf("seed rule %s: %v", ruleCode, err))
	}
	rule.WithPriority(priority)
	f.store.putRule(rule)
	return rule
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		panic(err)
	}
	return d
}
