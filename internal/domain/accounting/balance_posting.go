package accounting

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalancePosting is one immutable fact in the append-only posting log: a single
// applied balance delta. The stored account balance is incrementally updated in
// the same transaction that appends the fact, so the balance is always fully
// derivable by replaying the log.
type BalancePosting struct {
	shared.BaseEntity
	AccountID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	JournalEntryID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountingEntryID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	EntryType         EntryType       `gorm:"type:varchar(10);not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null"` // always positive
	Delta             decimal.Decimal `gorm:"type:decimal(18,4);not null"` // signed effect on the account balance
	BalanceAfter      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PostedAt          time.Time       `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (BalancePosting) TableName() string {
	return "balance_postings"
}

// NewBalancePosting records the application of one leg to one account
func NewBalancePosting(
	accountID, journalEntryID, accountingEntryID uuid.UUID,
	entryType EntryType,
	amount, delta, balanceAfter decimal.Decimal,
	postedAt time.Time,
) (*BalancePosting, error) {
	if accountID == uuid.Nil || journalEntryID == uuid.Nil || accountingEntryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_POSTING", "Posting references cannot be empty")
	}
	if !entryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", "Entry type must be DEBIT or CREDIT")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Posting amount must be positive")
	}
	if !delta.Abs().Equal(amount) {
		return nil, shared.NewDomainError("INVALID_POSTING", "Delta magnitude must equal the leg amount")
	}

	return &BalancePosting{
		BaseEntity:        shared.NewBaseEntity(),
		AccountID:         accountID,
		JournalEntryID:    journalEntryID,
		AccountingEntryID: accountingEntryID,
		EntryType:         entryType,
		Amount:            amount,
		Delta:             delta,
		BalanceAfter:      balanceAfter,
		PostedAt:          postedAt,
	}, nil
}
