package accounting

import (
	"regexp"
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies a chart-of-accounts node
type AccountType string

const (
	// AccountTypeAsset represents resources owned by the business
	AccountTypeAsset AccountType = "ASSET"
	// AccountTypeLiability represents obligations owed to others
	AccountTypeLiability AccountType = "LIABILITY"
	// AccountTypeEquity represents the owners' residual interest
	AccountTypeEquity AccountType = "EQUITY"
	// AccountTypeRevenue represents income earned
	AccountTypeRevenue AccountType = "REVENUE"
	// AccountTypeExpense represents costs incurred
	AccountTypeExpense AccountType = "EXPENSE"
)

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// IsValid returns true if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset,
		AccountTypeLiability,
		AccountTypeEquity,
		AccountTypeRevenue,
		AccountTypeExpense:
		return true
	}
	return false
}

// IsDebitNormal returns true for types whose balance increases on debit.
// Asset and Expense accounts are debit-normal; Liability, Equity and
// Revenue accounts are credit-normal.
func (t AccountType) IsDebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// accountCodePattern matches hierarchical dot-segmented codes such as "1.1.03.001"
var accountCodePattern = regexp.MustCompile(`^\d+(\.\d+)*$`)

// ValidateAccountCode checks that a code is non-empty and dot-segmented numeric
func ValidateAccountCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	if !accountCodePattern.MatchString(code) {
		return shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code must be dot-segmented numeric, e.g. 1.1.03.001")
	}
	return nil
}

// Account is a node in the chart of accounts. Analytic (leaf) accounts carry a
// stored balance and accept direct postings; synthetic accounts summarize their
// descendants and are never posted to. The parent link is a weak back-reference
// only: children are resolved by parent-id query, never held as a live list.
type Account struct {
	shared.BaseEntity
	Code       string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name       string          `gorm:"type:varchar(255);not null"`
	Type       AccountType     `gorm:"type:varchar(20);not null;index"`
	ParentID   *uuid.UUID      `gorm:"type:uuid;index"`
	IsAnalytic bool            `gorm:"not null;default:true"`
	IsActive   bool            `gorm:"not null;default:true"`
	Balance    decimal.Decimal `gorm:"type:decimal(18,4);not null"` // meaningful only for analytic accounts
	Version    int             `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// NewAccount creates a new chart-of-accounts node
func NewAccount(code, name string, accountType AccountType, parentID *uuid.UUID, isAnalytic bool) (*Account, error) {
	if err := ValidateAccountCode(code); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Invalid account type")
	}

	return &Account{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		Type:       accountType,
		ParentID:   parentID,
		IsAnalytic: isAnalytic,
		IsActive:   true,
		Balance:    decimal.Zero,
		Version:    1,
	}, nil
}

// CanAcceptPosting is the single capability check for posting targets:
// the account must be analytic and active.
func (a *Account) CanAcceptPosting() bool {
	return a.IsAnalytic && a.IsActive
}

// DeltaFor returns the signed balance change a debit or credit of the given
// amount produces on this account, respecting the type's sign convention.
func (a *Account) DeltaFor(entryType EntryType, amount decimal.Decimal) decimal.Decimal {
	increases := (entryType == EntryTypeDebit) == a.Type.IsDebitNormal()
	if increases {
		return amount
	}
	return amount.Neg()
}

// ApplyDelta mutates the stored balance for a single debit or credit leg.
// It is the only balance mutator and must run inside the poster's transaction.
func (a *Account) ApplyDelta(entryType EntryType, amount decimal.Decimal) (decimal.Decimal, error) {
	if !a.CanAcceptPosting() {
		return decimal.Zero, shared.ErrAccountState
	}
	if !entryType.IsValid() {
		return decimal.Zero, shared.NewDomainError("INVALID_ENTRY_TYPE", "Entry type must be DEBIT or CREDIT")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}

	delta := a.DeltaFor(entryType, amount)
	a.Balance = a.Balance.Add(delta)
	a.IncrementVersion()
	a.Touch()
	return delta, nil
}

// IncrementVersion bumps the optimistic-lock version
func (a *Account) IncrementVersion() {
	a.Version++
}

// Deactivate marks the account unusable for new postings
func (a *Account) Deactivate() {
	a.IsActive = false
	a.IncrementVersion()
	a.Touch()
}

// Activate re-enables the account for new postings
func (a *Account) Activate() {
	a.IsActive = true
	a.IncrementVersion()
	a.Touch()
}
