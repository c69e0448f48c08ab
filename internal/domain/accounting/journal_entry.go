package accounting

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType represents the side of a journal entry leg
type EntryType string

const (
	// EntryTypeDebit is the debit side of a posting
	EntryTypeDebit EntryType = "DEBIT"
	// EntryTypeCredit is the credit side of a posting
	EntryTypeCredit EntryType = "CREDIT"
)

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// IsValid returns true if the entry type is valid
func (t EntryType) IsValid() bool {
	return t == EntryTypeDebit || t == EntryTypeCredit
}

// Opposite returns the flipped side, used when building reversal entries
func (t EntryType) Opposite() EntryType {
	if t == EntryTypeDebit {
		return EntryTypeCredit
	}
	return EntryTypeDebit
}

// DocumentType classifies the business document behind a journal entry
type DocumentType string

const (
	// DocumentTypeInventoryTransaction backs entries produced by stock movements
	DocumentTypeInventoryTransaction DocumentType = "INVENTORY_TRANSACTION"
	// DocumentTypeManual backs hand-written entries
	DocumentTypeManual DocumentType = "MANUAL"
	// DocumentTypeReversal backs entries that undo a previously posted entry
	DocumentTypeReversal DocumentType = "REVERSAL"
)

// String returns the string representation of DocumentType
func (t DocumentType) String() string {
	return string(t)
}

// IsValid returns true if the document type is valid
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeInventoryTransaction, DocumentTypeManual, DocumentTypeReversal:
		return true
	}
	return false
}

// JournalEntry is the header record grouping a balanced set of debit/credit
// legs for one business event. Once posted it is immutable; corrections are
// made with reversal entries, never edits. Legs are owned rows referencing the
// entry by id and are loaded by query, never held as a navigation property.
type JournalEntry struct {
	shared.BaseEntity
	EntryNumber            string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	EntryDate              time.Time       `gorm:"type:timestamptz;not null;index"`
	DocumentType           DocumentType    `gorm:"type:varchar(30);not null;index"`
	DocumentNumber         string          `gorm:"type:varchar(50)"`
	History                string          `gorm:"type:varchar(500)"`
	TotalAmount            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	IsPosted               bool            `gorm:"not null;default:false;index"`
	PostedAt               *time.Time      `gorm:"type:timestamptz"`
	OrderID                *uuid.UUID      `gorm:"type:uuid;index"`
	ProductID              *uuid.UUID      `gorm:"type:uuid;index"`
	InventoryTransactionID *uuid.UUID      `gorm:"type:uuid;index"`
	ReversedEntryID        *uuid.UUID      `gorm:"type:uuid;index"` // set on reversal entries, points at the original
	CreatedBy              uuid.UUID       `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// MarkPosted transitions the entry to its terminal posted state
func (e *JournalEntry) MarkPosted(at time.Time) error {
	if e.IsPosted {
		return shared.ErrAlreadyPosted
	}
	e.IsPosted = true
	e.PostedAt = &at
	e.Touch()
	return nil
}

// IsReversal returns true if this entry undoes another entry
func (e *JournalEntry) IsReversal() bool {
	return e.ReversedEntryID != nil
}

// AccountingEntry is a single debit or credit leg within a journal entry.
// The account reference is an id only, never an ownership edge.
type AccountingEntry struct {
	shared.BaseEntity
	JournalEntryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	EntryType      EntryType       `gorm:"type:varchar(10);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4);not null"` // always positive
	Description    string          `gorm:"type:varchar(255)"`
	CostCenter     string          `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (AccountingEntry) TableName() string {
	return "accounting_entries"
}

// NewAccountingEntry creates a leg for the given journal entry
func NewAccountingEntry(journalEntryID, accountID uuid.UUID, entryType EntryType, amount decimal.Decimal) (*AccountingEntry, error) {
	if journalEntryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_JOURNAL_ENTRY", "Journal entry ID cannot be empty")
	}
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if !entryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", "Entry type must be DEBIT or CREDIT")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Leg amount must be positive")
	}

	return &AccountingEntry{
		BaseEntity:     shared.NewBaseEntity(),
		JournalEntryID: journalEntryID,
		AccountID:      accountID,
		EntryType:      entryType,
		Amount:         amount,
	}, nil
}

// WithDescription sets the leg description
func (l *AccountingEntry) WithDescription(description string) *AccountingEntry {
	l.Description = description
	return l
}

// WithCostCenter sets the leg cost center
func (l *AccountingEntry) WithCostCenter(costCenter string) *AccountingEntry {
	l.CostCenter = costCenter
	return l
}

// DraftJournalEntry is an unposted entry together with its legs. It is an
// explicit composition value produced by the composer and consumed by the
// poster; persisted entries reference their legs by id only.
type DraftJournalEntry struct {
	Entry *JournalEntry
	Legs  []*AccountingEntry
}

// SumDebits returns the total of all debit legs
func (d *DraftJournalEntry) SumDebits() decimal.Decimal {
	total := decimal.Zero
	for _, leg := range d.Legs {
		if leg.EntryType == EntryTypeDebit {
			total = total.Add(leg.Amount)
		}
	}
	return total
}

// SumCredits returns the total of all credit legs
func (d *DraftJournalEntry) SumCredits() decimal.Decimal {
	total := decimal.Zero
	for _, leg := range d.Legs {
		if leg.EntryType == EntryTypeCredit {
			total = total.Add(leg.Amount)
		}
	}
	return total
}

// IsBalanced returns true when debit and credit totals are exactly equal
func (d *DraftJournalEntry) IsBalanced() bool {
	return d.SumDebits().Equal(d.SumCredits())
}

// AccountIDs returns the distinct accounts referenced by the draft's legs
func (d *DraftJournalEntry) AccountIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(d.Legs))
	ids := make([]uuid.UUID, 0, len(d.Legs))
	for _, leg := range d.Legs {
		if !seen[leg.AccountID] {
			seen[leg.AccountID] = true
			ids = append(ids, leg.AccountID)
		}
	}
	return ids
}

// Validate checks the structural invariants of an unposted draft
func (d *DraftJournalEntry) Validate() error {
	if d.Entry == nil {
		return shared.NewDomainError("INVALID_DRAFT", "Draft has no journal entry header")
	}
	if d.Entry.IsPosted {
		return shared.ErrAlreadyPosted
	}
	if len(d.Legs) < 2 {
		return shared.NewDomainError("INVALID_DRAFT", "Draft must have at least one debit and one credit leg")
	}
	for _, leg := range d.Legs {
		if leg.JournalEntryID != d.Entry.ID {
			return shared.NewDomainError("INVALID_DRAFT", "Leg does not belong to the draft's journal entry")
		}
		if leg.Amount.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_AMOUNT", "Leg amount must be positive")
		}
	}
	if !d.IsBalanced() {
		return shared.ErrImbalance
	}
	if !d.Entry.TotalAmount.Equal(d.SumDebits()) {
		return shared.NewDomainError("INVALID_DRAFT", "Entry total does not match the sum of its legs")
	}
	return nil
}
