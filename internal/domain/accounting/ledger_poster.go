package accounting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// DefaultMaxPostRetries bounds transparent retries on concurrency conflicts
const DefaultMaxPostRetries = 3

// DefaultRetryBackoff is the base delay between posting retries
const DefaultRetryBackoff = 25 * time.Millisecond

// LedgerPoster validates and atomically commits draft journal entries.
// Posting persists the entry with its legs, applies every leg's balance delta
// through the registry and marks the entry posted, all in one transaction.
// Version conflicts on shared accounts are retried a bounded number of times,
// transparently to the caller; each retry starts from a clean draft state.
type LedgerPoster struct {
	txm      TransactionManager
	registry *ChartOfAccountsRegistry
	entries  JournalEntryRepository
	accounts AccountRepository

	maxRetries int
	backoff    time.Duration
}

// NewLedgerPoster creates a poster. Non-positive retry settings select the
// defaults.
func NewLedgerPoster(
	txm TransactionManager,
	registry *ChartOfAccountsRegistry,
	entries JournalEntryRepository,
	accounts AccountRepository,
	maxRetries int,
	backoff time.Duration,
) *LedgerPoster {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxPostRetries
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &LedgerPoster{
		txm:        txm,
		registry:   registry,
		entries:    entries,
		accounts:   accounts,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Post commits a draft journal entry. On success the returned entry is posted
// and immutable; on failure nothing is persisted.
func (p *LedgerPoster) Post(ctx context.Context, draft *DraftJournalEntry) (*JournalEntry, error) {
	if draft == nil || draft.Entry == nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Draft cannot be nil")
	}
	assignsNumber := draft.Entry.EntryNumber == ""

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			// Backing off inside an enclosing transaction would hold its
			// locks for the whole sleep, so retry immediately there.
			if p.txm.InTransaction(ctx) {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			} else {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(attempt) * p.backoff):
				}
			}
		}

		err := p.txm.Do(ctx, func(txCtx context.Context) error {
			return p.postOnce(txCtx, draft)
		})
		if err == nil {
			return draft.Entry, nil
		}

		// The transaction rolled back, undoing the number allocation with it.
		// Reset the draft so the retry regenerates the number instead of
		// reusing one a concurrent poster may have claimed since.
		draft.Entry.IsPosted = false
		draft.Entry.PostedAt = nil
		if assignsNumber {
			draft.Entry.EntryNumber = ""
		}

		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("posting retries exhausted: %w", lastErr)
}

func (p *LedgerPoster) postOnce(ctx context.Context, draft *DraftJournalEntry) error {
	if err := p.checkNotPosted(ctx, draft.Entry); err != nil {
		return err
	}

	// Defensive balance re-check with exact decimal arithmetic, even though
	// the composer guarantees balanced drafts.
	if err := draft.Validate(); err != nil {
		return err
	}

	if err := p.checkAccountsPostable(ctx, draft); err != nil {
		return err
	}

	if draft.Entry.EntryNumber == "" {
		number, err := p.entries.GenerateEntryNumber(ctx)
		if err != nil {
			return err
		}
		draft.Entry.EntryNumber = number
	}

	now := time.Now()
	if err := draft.Entry.MarkPosted(now); err != nil {
		return err
	}
	if err := p.entries.Create(ctx, draft.Entry, draft.Legs); err != nil {
		return err
	}

	// Apply deltas in deterministic account order so concurrent posters
	// touching the same accounts cannot deadlock.
	for _, leg := range sortedByAccount(draft.Legs) {
		if err := p.registry.ApplyDelta(
			ctx,
			leg.AccountID,
			leg.EntryType,
			leg.Amount,
			draft.Entry.ID,
			leg.ID,
			now,
		); err != nil {
			return err
		}
	}
	return nil
}

func (p *LedgerPoster) checkNotPosted(ctx context.Context, entry *JournalEntry) error {
	if entry.IsPosted {
		return shared.ErrAlreadyPosted
	}

	existing, err := p.entries.FindByID(ctx, entry.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.IsPosted {
		return shared.ErrAlreadyPosted
	}
	return shared.ErrAlreadyExists
}

func (p *LedgerPoster) checkAccountsPostable(ctx context.Context, draft *DraftJournalEntry) error {
	ids := draft.AccountIDs()
	accounts, err := p.accounts.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}

	byID := make(map[uuid.UUID]*Account, len(accounts))
	for i := range accounts {
		byID[accounts[i].ID] = &accounts[i]
	}
	for _, id := range ids {
		account, ok := byID[id]
		if !ok {
			return fmt.Errorf("account %s: %w", id, shared.ErrNotFound)
		}
		if !account.CanAcceptPosting() {
			return fmt.Errorf("account %s: %w", account.Code, shared.ErrAccountState)
		}
	}
	return nil
}

// Reverse builds and posts a new entry with every leg flipped, undoing the
// financial effect of a posted entry. The original is never mutated.
func (p *LedgerPoster) Reverse(ctx context.Context, postedEntryID uuid.UUID, reason string, createdBy uuid.UUID) (*JournalEntry, error) {
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "CreatedBy cannot be empty")
	}

	original, err := p.entries.FindByID(ctx, postedEntryID)
	if err != nil {
		return nil, err
	}
	if !original.IsPosted {
		return nil, fmt.Errorf("entry %s is not posted: %w", original.EntryNumber, shared.ErrInvalidState)
	}

	legs, err := p.entries.FindLegs(ctx, original.ID)
	if err != nil {
		return nil, err
	}

	entry := &JournalEntry{
		BaseEntity:             shared.NewBaseEntity(),
		EntryDate:              time.Now(),
		DocumentType:           DocumentTypeReversal,
		DocumentNumber:         original.EntryNumber,
		History:                reason,
		TotalAmount:            original.TotalAmount,
		OrderID:                original.OrderID,
		ProductID:              original.ProductID,
		InventoryTransactionID: original.InventoryTransactionID,
		ReversedEntryID:        &original.ID,
		CreatedBy:              createdBy,
	}

	draft := &DraftJournalEntry{Entry: entry}
	for i := range legs {
		leg, err := NewAccountingEntry(entry.ID, legs[i].AccountID, legs[i].EntryType.Opposite(), legs[i].Amount)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			leg.WithDescription(reason)
		}
		draft.Legs = append(draft.Legs, leg)
	}

	return p.Post(ctx, draft)
}

// sortedByAccount orders legs by account id, then by leg id for stability
func sortedByAccount(legs []*AccountingEntry) []*AccountingEntry {
	ordered := make([]*AccountingEntry, len(legs))
	copy(ordered, legs)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i].AccountID.String(), ordered[j].AccountID.String()
		if a != b {
			return a < b
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})
	return ordered
}
