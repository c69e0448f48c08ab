package inventory

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of inventory movement
type TransactionType string

const (
	// TransactionTypeStockEntry represents stock coming into a location (purchase receiving)
	TransactionTypeStockEntry TransactionType = "STOCK_ENTRY"
	// TransactionTypeStockExit represents stock leaving a location (consumption, shipment)
	TransactionTypeStockExit TransactionType = "STOCK_EXIT"
	// TransactionTypeStockTransfer represents stock moved between locations
	TransactionTypeStockTransfer TransactionType = "STOCK_TRANSFER"
	// TransactionTypeStockAdjustment represents a count correction, signed by quantity
	TransactionTypeStockAdjustment TransactionType = "STOCK_ADJUSTMENT"
	// TransactionTypeSale represents a sale shipment with its revenue effect
	TransactionTypeSale TransactionType = "SALE"
	// TransactionTypePayment represents a payment settled against an order
	TransactionTypePayment TransactionType = "PAYMENT"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeStockEntry,
		TransactionTypeStockExit,
		TransactionTypeStockTransfer,
		TransactionTypeStockAdjustment,
		TransactionTypeSale,
		TransactionTypePayment:
		return true
	}
	return false
}

// RequiresFromLocation returns true for movements that need a source location
func (t TransactionType) RequiresFromLocation() bool {
	return t == TransactionTypeStockTransfer
}

// InventoryTransaction is an immutable record of a stock movement with a link
// to the journal entry that carries its financial effect. Product identity is
// snapshotted so the record stays meaningful if the catalog changes. The
// record is only created after its journal entry has successfully posted.
type InventoryTransaction struct {
	shared.BaseEntity
	TransactionNumber string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	TransactionDate   time.Time       `gorm:"type:timestamptz;not null;index"`
	TransactionType   TransactionType `gorm:"type:varchar(30);not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU               string          `gorm:"type:varchar(50);not null"`
	ProductName       string          `gorm:"type:varchar(255);not null"`
	FromLocation      string          `gorm:"type:varchar(50)"`
	ToLocation        string          `gorm:"type:varchar(50);not null"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"` // signed, direction of the movement
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"` // |quantity| * unit cost, always positive
	OrderID           *uuid.UUID      `gorm:"type:uuid;index"`
	DocumentNumber    string          `gorm:"type:varchar(50)"`
	Notes             string          `gorm:"type:varchar(500)"`
	JournalEntryID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CreatedBy         uuid.UUID       `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// NewInventoryTransaction creates an inventory transaction record. The journal
// entry id is required: a movement without a posted financial effect must not
// exist.
func NewInventoryTransaction(
	transactionNumber string,
	txType TransactionType,
	productID uuid.UUID,
	sku, productName string,
	quantity, unitCost decimal.Decimal,
	toLocation string,
	journalEntryID uuid.UUID,
	createdBy uuid.UUID,
) (*InventoryTransaction, error) {
	if strings.TrimSpace(transactionNumber) == "" {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_NUMBER", "Transaction number cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if strings.TrimSpace(sku) == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be zero")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if strings.TrimSpace(toLocation) == "" {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Target location cannot be empty")
	}
	if journalEntryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_JOURNAL_ENTRY", "Journal entry ID cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CREATED_BY", "CreatedBy cannot be empty")
	}

	return &InventoryTransaction{
		BaseEntity:        shared.NewBaseEntity(),
		TransactionNumber: transactionNumber,
		TransactionDate:   time.Now(),
		TransactionType:   txType,
		ProductID:         productID,
		SKU:               sku,
		ProductName:       productName,
		Quantity:          quantity,
		UnitCost:          unitCost,
		TotalCost:         quantity.Abs().Mul(unitCost),
		ToLocation:        toLocation,
		JournalEntryID:    journalEntryID,
		CreatedBy:         createdBy,
	}, nil
}

// WithFromLocation sets the source location for transfers
func (t *InventoryTransaction) WithFromLocation(location string) *InventoryTransaction {
	t.FromLocation = location
	return t
}

// WithOrderID links the movement to an order
func (t *InventoryTransaction) WithOrderID(orderID uuid.UUID) *InventoryTransaction {
	t.OrderID = &orderID
	return t
}

// WithDocumentNumber sets the source document number
func (t *InventoryTransaction) WithDocumentNumber(documentNumber string) *InventoryTransaction {
	t.DocumentNumber = documentNumber
	return t
}

// WithNotes sets free-text notes
func (t *InventoryTransaction) WithNotes(notes string) *InventoryTransaction {
	t.Notes = notes
	return t
}

// WithTransactionDate overrides the movement date
func (t *InventoryTransaction) WithTransactionDate(date time.Time) *InventoryTransaction {
	t.TransactionDate = date
	return t
}

// IsIncrease returns true if the movement adds stock at the target location
func (t *InventoryTransaction) IsIncrease() bool {
	return t.Quantity.IsPositive()
}
