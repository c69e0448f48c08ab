package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInventoryTransactionRepository implements InventoryTransactionRepository using GORM
type GormInventoryTransactionRepository struct {
	db *gorm.DB
}

// NewGormInventoryTransactionRepository creates a new GormInventoryTransactionRepository
func NewGormInventoryTransactionRepository(db *gorm.DB) *GormInventoryTransactionRepository {
	return &GormInventoryTransactionRepository{db: db}
}

// FindByID finds a transaction by ID
func (r *GormInventoryTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryTransaction, error) {
	var tx inventory.InventoryTransaction
	if err := conn(ctx, r.db).First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByTransactionNumber finds a transaction by its unique number
func (r *GormInventoryTransactionRepository) FindByTransactionNumber(ctx context.Context, transactionNumber string) (*inventory.InventoryTransaction, error) {
	var tx inventory.InventoryTransaction
	if err := conn(ctx, r.db).First(&tx, "transaction_number = ?", transactionNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByJournalEntryID finds the transaction backed by a journal entry
func (r *GormInventoryTransactionRepository) FindByJournalEntryID(ctx context.Context, journalEntryID uuid.UUID) (*inventory.InventoryTransaction, error) {
	var tx inventory.InventoryTransaction
	if err := conn(ctx, r.db).First(&tx, "journal_entry_id = ?", journalEntryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindAll finds transactions with filtering
func (r *GormInventoryTransactionRepository) FindAll(ctx context.Context, filter inventory.InventoryTransactionFilter) ([]inventory.InventoryTransaction, error) {
	var txs []inventory.InventoryTransaction
	query := r.applyFilter(conn(ctx, r.db).Model(&inventory.InventoryTransaction{}), filter)
	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Create appends a new transaction
func (r *GormInventoryTransactionRepository) Create(ctx context.Context, tx *inventory.InventoryTransaction) error {
	if err := conn(ctx, r.db).Create(tx).Error; err != nil {
		if isUniqueViolation(err, "uq_inventory_transactions_transaction_number") {
			return fmt.Errorf("transaction number %s already taken: %w", tx.TransactionNumber, shared.ErrConcurrencyConflict)
		}
		return err
	}
	return nil
}

// Count counts transactions with optional filters
func (r *GormInventoryTransactionRepository) Count(ctx context.Context, filter inventory.InventoryTransactionFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(conn(ctx, r.db).Model(&inventory.InventoryTransaction{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerateTransactionNumber generates a new unique transaction number.
// Format: IT-YYYYMMDD-XXXXX
func (r *GormInventoryTransactionRepository) GenerateTransactionNumber(ctx context.Context) (string, error) {
	var count int64
	today := time.Now().Format("20060102")

	if err := conn(ctx, r.db).
		Model(&inventory.InventoryTransaction{}).
		Where("transaction_number LIKE ?", fmt.Sprintf("IT-%s-%%", today)).
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("IT-%s-%05d", today, count+1), nil
}

func (r *GormInventoryTransactionRepository) applyFilter(query *gorm.DB, filter inventory.InventoryTransactionFilter) *gorm.DB {
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
		query = query.Order("transaction_date DESC, transaction_number DESC")
	}

	return query
}

func (r *GormInventoryTransactionRepository) applyFilterWithoutPagination(query *gorm.DB, filter inventory.InventoryTransactionFilter) *gorm.DB {
	if filter.TransactionType != nil {
		query = query.Where("transaction_type = ?", *filter.TransactionType)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.FromDate != nil {
		query = query.Where("transaction_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("transaction_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("transaction_number LIKE ? OR sku LIKE ? OR product_name LIKE ?", pattern, pattern, pattern)
	}
	return query
}

// Ensure GormInventoryTransactionRepository implements InventoryTransactionRepository
var _ inventory.InventoryTransactionRepository = (*GormInventoryTransactionRepository)(nil)
