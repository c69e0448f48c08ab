package accounting

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for chart-of-accounts persistence
type AccountRepository interface {
	// FindByID finds an account by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByCode finds an account by its unique hierarchical code
	FindByCode(ctx context.Context, code string) (*Account, error)

	// FindByIDs finds all accounts for the given ids, ordered by id
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Account, error)

	// FindByParentID finds the direct children of an account
	FindByParentID(ctx context.Context, parentID uuid.UUID) ([]Account, error)

	// FindAll finds accounts with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Account, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *Account) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, account *Account) error

	// Count counts accounts with optional filters
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// AccountingRuleRepository defines the interface for accounting rule persistence
type AccountingRuleRepository interface {
	// FindByID finds a rule by ID
	FindByID(ctx context.Context, id uuid.UUID) (*AccountingRule, error)

	// FindByRuleCode finds a rule by its unique code
	FindByRuleCode(ctx context.Context, ruleCode string) (*AccountingRule, error)

	// FindActiveByTransactionType finds all active rules for a transaction type
	FindActiveByTransactionType(ctx context.Context, transactionType string) ([]AccountingRule, error)

	// FindAll finds rules with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]AccountingRule, error)

	// Save creates or updates a rule
	Save(ctx context.Context, rule *AccountingRule) error

	// Count counts rules with optional filters
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// JournalEntryFilter defines filtering options for journal entry queries
type JournalEntryFilter struct {
	shared.Filter
	DocumentType *DocumentType
	IsPosted     *bool
	FromDate     *time.Time
	ToDate       *time.Time
	OrderID      *uuid.UUID
	ProductID    *uuid.UUID
}

// JournalEntryRepository defines the interface for journal entry persistence.
// Legs are exclusively owned by their entry and created together with it.
type JournalEntryRepository interface {
	// FindByID finds a journal entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*JournalEntry, error)

	// FindByEntryNumber finds a journal entry by its unique number
	FindByEntryNumber(ctx context.Context, entryNumber string) (*JournalEntry, error)

	// FindAll finds journal entries with filtering
	FindAll(ctx context.Context, filter JournalEntryFilter) ([]JournalEntry, error)

	// FindLegs loads the legs owned by a journal entry
	FindLegs(ctx context.Context, journalEntryID uuid.UUID) ([]AccountingEntry, error)

	// Create persists a journal entry header together with its legs
	Create(ctx context.Context, entry *JournalEntry, legs []*AccountingEntry) error

	// Count counts journal entries with optional filters
	Count(ctx context.Context, filter JournalEntryFilter) (int64, error)

	// SumPostedAmounts sums debit and credit leg amounts over posted entries
	// in the given date range; the two totals must always be equal
	SumPostedAmounts(ctx context.Context, from, to time.Time) (debits, credits decimal.Decimal, err error)

	// GenerateEntryNumber generates the next unique chronological entry number
	GenerateEntryNumber(ctx context.Context) (string, error)
}

// BalancePostingRepository defines the interface for the append-only posting log
type BalancePostingRepository interface {
	// Create appends one posting fact; postings are never updated or deleted
	Create(ctx context.Context, posting *BalancePosting) error

	// FindByAccountID lists the postings applied to an account, oldest first
	FindByAccountID(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]BalancePosting, error)

	// SumDeltaByAccount replays the log for an account into a net delta
	SumDeltaByAccount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}

// TransactionManager runs a function inside a single atomic persistence
// transaction. The transactional handle travels in the context, so repository
// calls made with the inner context join the same transaction. Nested calls
// join the enclosing transaction.
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error

	// InTransaction reports whether the context already carries a
	// transaction started by this manager
	InTransaction(ctx context.Context) bool
}

// RuleCache caches the active rule set per transaction type. Resolution still
// evaluates conditions per call; only the repository read is cached.
type RuleCache interface {
	// GetRules returns the cached rules and true, or false on a miss
	GetRules(ctx context.Context, transactionType string) ([]AccountingRule, bool)

	// SetRules stores the active rules for a transaction type
	SetRules(ctx context.Context, transactionType string, rules []AccountingRule)

	// Invalidate drops the cached rules for a transaction type
	Invalidate(ctx context.Context, transactionType string)
}
