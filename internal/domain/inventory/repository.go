package inventory

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// InventoryTransactionFilter defines filtering options for movement queries
type InventoryTransactionFilter struct {
	shared.Filter
	TransactionType *TransactionType
	ProductID       *uuid.UUID
	OrderID         *uuid.UUID
	FromDate        *time.Time
	ToDate          *time.Time
}

// InventoryTransactionRepository defines the interface for movement persistence.
// Transactions are append-only: corrections are new movements, never edits.
type InventoryTransactionRepository interface {
	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryTransaction, error)

	// FindByTransactionNumber finds a transaction by its unique number
	FindByTransactionNumber(ctx context.Context, transactionNumber string) (*InventoryTransaction, error)

	// FindByJournalEntryID finds the transaction backed by a journal entry
	FindByJournalEntryID(ctx context.Context, journalEntryID uuid.UUID) (*InventoryTransaction, error)

	// FindAll finds transactions with filtering
	FindAll(ctx context.Context, filter InventoryTransactionFilter) ([]InventoryTransaction, error)

	// Create appends a new transaction
	Create(ctx context.Context, tx *InventoryTransaction) error

	// Count counts transactions with optional filters
	Count(ctx context.Context, filter InventoryTransactionFilter) (int64, error)

	// GenerateTransactionNumber generates the next unique transaction number
	GenerateTransactionNumber(ctx context.Context) (string, error)
}
