package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormJournalEntryRepository implements JournalEntryRepository using GORM
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

// FindByID finds a journal entry by ID
func (r *GormJournalEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.JournalEntry, error) {
	var entry accounting.JournalEntry
	if err := conn(ctx, r.db).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindByEntryNumber finds a journal entry by its unique number
func (r *GormJournalEntryRepository) FindByEntryNumber(ctx context.Context, entryNumber string) (*accounting.JournalEntry, error) {
	var entry accounting.JournalEntry
	if err := conn(ctx, r.db).First(&entry, "entry_number = ?", entryNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindAll finds journal entries with filtering
func (r *GormJournalEntryRepository) FindAll(ctx context.Context, filter accounting.JournalEntryFilter) ([]accounting.JournalEntry, error) {
	var entries []accounting.JournalEntry
	query := r.applyFilter(conn(ctx, r.db).Model(&accounting.JournalEntry{}), filter)
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindLegs loads the legs owned by a journal entry
func (r *GormJournalEntryRepository) FindLegs(ctx context.Context, journalEntryID uuid.UUID) ([]accounting.AccountingEntry, error) {
	var legs []accounting.AccountingEntry
	if err := conn(ctx, r.db).
		Where("journal_entry_id = ?", journalEntryID).
		Order("created_at ASC, id ASC").
		Find(&legs).Error; err != nil {
		return nil, err
	}
	return legs, nil
}

// Create persists a journal entry header together with its legs. Both writes
// share one transaction; a failure on either side persists neither.
func (r *GormJournalEntryRepository) Create(ctx context.Context, entry *accounting.JournalEntry, legs []*accounting.AccountingEntry) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			// Two posters can draw the same count-based number; the losing
			// insert must surface as a conflict so the retry regenerates it.
			if isUniqueViolation(err, "uq_journal_entries_entry_number") {
				return fmt.Errorf("entry number %s already taken: %w", entry.EntryNumber, shared.ErrConcurrencyConflict)
			}
			return err
		}
		for _, leg := range legs {
			if err := tx.Create(leg).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Count counts journal entries with optional filters
func (r *GormJournalEntryRepository) Count(ctx context.Context, filter accounting.JournalEntryFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(conn(ctx, r.db).Model(&accounting.JournalEntry{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumPostedAmounts sums debit and credit leg amounts over posted entries in
// the given date range
func (r *GormJournalEntryRepository) SumPostedAmounts(ctx context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	type row struct {
		EntryType string
		Total     decimal.Decimal
	}

	var rows []row
	if err := conn(ctx, r.db).
		Model(&accounting.AccountingEntry{}).
		Select("accounting_entries.entry_type AS entry_type, COALESCE(SUM(accounting_entries.amount), 0) AS total").
		Joins("JOIN journal_entries ON journal_entries.id = accounting_entries.journal_entry_id").
		Where("journal_entries.is_posted = ? AND journal_entries.entry_date >= ? AND journal_entries.entry_date <= ?", true, from, to).
		Group("accounting_entries.entry_type").
		Scan(&rows).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	debits := decimal.Zero
	credits := decimal.Zero
	for _, row := range rows {
		switch accounting.EntryType(row.EntryType) {
		case accounting.EntryTypeDebit:
			debits = row.Total
		case accounting.EntryTypeCredit:
			credits = row.Total
		}
	}
	return debits, credits, nil
}

// GenerateEntryNumber generates a new unique journal entry number.
// Format: JE-YYYYMMDD-XXXXX
func (r *GormJournalEntryRepository) GenerateEntryNumber(ctx context.Context) (string, error) {
	var count int64
	today := time.Now().Format("20060102")

	if err := conn(ctx, r.db).
		Model(&accounting.JournalEntry{}).
		Where("entry_number LIKE ?", fmt.Sprintf("JE-%s-%%", today)).
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("JE-%s-%05d", today, count+1), nil
}

func (r *GormJournalEntryRepository) applyFilter(query *gorm.DB, filter accounting.JournalEntryFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("entry_date DESC, entry_number DESC")
	}

	return query
}

func (r *GormJournalEntryRepository) applyFilterWithoutPagination(query *gorm.DB, filter accounting.JournalEntryFilter) *gorm.DB {
	if filter.DocumentType != nil {
		query = query.Where("document_type = ?", *filter.DocumentType)
	}
	if filter.IsPosted != nil {
		query = query.Where("is_posted = ?", *filter.IsPosted)
	}
	if filter.FromDate != nil {
		query = query.Where("entry_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("entry_date <= ?", *filter.ToDate)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("entry_number LIKE ? OR document_number LIKE ? OR history LIKE ?", pattern, pattern, pattern)
	}
	return query
}

// Ensure GormJournalEntryRepository implements JournalEntryRepository
var _ accounting.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
