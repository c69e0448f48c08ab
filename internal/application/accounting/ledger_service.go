package accounting

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountBalance pairs an account with its effective balance: stored for
// analytic accounts, rolled up on demand for synthetic ones.
type AccountBalance struct {
	Account *accounting.Account
	Balance decimal.Decimal
}

// JournalEntryWithLegs bundles an entry header with its legs for read models
type JournalEntryWithLegs struct {
	Entry *accounting.JournalEntry
	Legs  []accounting.AccountingEntry
}

// IntegrityReport is the outcome of a posted-ledger balance check
type IntegrityReport struct {
	From         time.Time
	To           time.Time
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Balanced     bool
}

// LedgerService exposes the ledger's read side and the reversal operation to
// the transport layer.
type LedgerService struct {
	registry *accounting.ChartOfAccountsRegistry
	poster   *accounting.LedgerPoster
	entries  accounting.JournalEntryRepository
	logger   *zap.Logger
}

// NewLedgerService creates a ledger service
func NewLedgerService(
	registry *accounting.ChartOfAccountsRegistry,
	poster *accounting.LedgerPoster,
	entries accounting.JournalEntryRepository,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		registry: registry,
		poster:   poster,
		entries:  entries,
		logger:   logger,
	}
}

// GetAccountBalance resolves the effective balance for an account code
func (s *LedgerService) GetAccountBalance(ctx context.Context, code string) (*AccountBalance, error) {
	account, err := s.registry.LookupByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	balance, err := s.registry.ResolveBalance(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return &AccountBalance{Account: account, Balance: balance}, nil
}

// GetJournalEntry loads an entry together with its legs
func (s *LedgerService) GetJournalEntry(ctx context.Context, id uuid.UUID) (*JournalEntryWithLegs, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	legs, err := s.entries.FindLegs(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	return &JournalEntryWithLegs{Entry: entry, Legs: legs}, nil
}

// ListJournalEntries returns a page of entries matching the filter
func (s *LedgerService) ListJournalEntries(ctx context.Context, filter accounting.JournalEntryFilter) (*shared.Paginated[accounting.JournalEntry], error) {
	entries, err := s.entries.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.entries.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(entries, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ReverseEntry posts a reversal for a previously posted entry
func (s *LedgerService) ReverseEntry(ctx context.Context, entryID uuid.UUID, reason string, createdBy uuid.UUID) (*accounting.JournalEntry, error) {
	reversal, err := s.poster.Reverse(ctx, entryID, reason, createdBy)
	if err != nil {
		s.logger.Error("failed to reverse journal entry",
			zap.String("entry_id", entryID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("journal entry reversed",
		zap.String("original_entry_id", entryID.String()),
		zap.String("reversal_entry_number", reversal.EntryNumber),
	)
	return reversal, nil
}

// CheckIntegrity sums posted debit and credit legs over a date range. The two
// totals must be exactly equal on a healthy ledger.
func (s *LedgerService) CheckIntegrity(ctx context.Context, from, to time.Time) (*IntegrityReport, error) {
	debits, credits, err := s.entries.SumPostedAmounts(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &IntegrityReport{
		From:         from,
		To:           to,
		TotalDebits:  debits,
		TotalCredits: credits,
		Balanced:     debits.Equal(credits),
	}, nil
}
