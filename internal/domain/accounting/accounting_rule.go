package accounting

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ConditionField names the transaction attribute a rule condition inspects
type ConditionField string

const (
	// ConditionFieldQuantity matches against the signed transaction quantity
	ConditionFieldQuantity ConditionField = "QUANTITY"
	// ConditionFieldAmount matches against the transaction amount
	ConditionFieldAmount ConditionField = "AMOUNT"
)

// IsValid returns true if the condition field is valid
func (f ConditionField) IsValid() bool {
	return f == ConditionFieldQuantity || f == ConditionFieldAmount
}

// ConditionOperator is the comparison applied by a rule condition
type ConditionOperator string

const (
	ConditionOperatorGreaterThan ConditionOperator = "GT"
	ConditionOperatorLessThan    ConditionOperator = "LT"
	ConditionOperatorEqual       ConditionOperator = "EQ"
)

// IsValid returns true if the condition operator is valid
func (o ConditionOperator) IsValid() bool {
	switch o {
	case ConditionOperatorGreaterThan, ConditionOperatorLessThan, ConditionOperatorEqual:
		return true
	}
	return false
}

// RuleContext carries the transaction attributes rule conditions evaluate against
type RuleContext struct {
	Quantity decimal.Decimal
	Amount   decimal.Decimal
}

// RuleCondition is a small predicate over transaction fields, e.g. quantity
// sign. An empty Field means the rule is unconditioned and matches everything.
type RuleCondition struct {
	Field    ConditionField    `gorm:"type:varchar(20)"`
	Operator ConditionOperator `gorm:"type:varchar(5)"`
	Value    decimal.Decimal   `gorm:"type:decimal(18,4)"`
}

// IsZero returns true when no condition is configured
func (c RuleCondition) IsZero() bool {
	return c.Field == ""
}

// Matches evaluates the condition against the given context.
// A zero condition matches everything.
func (c RuleCondition) Matches(ctx RuleContext) bool {
	if c.IsZero() {
		return true
	}

	var actual decimal.Decimal
	switch c.Field {
	case ConditionFieldQuantity:
		actual = ctx.Quantity
	case ConditionFieldAmount:
		actual = ctx.Amount
	default:
		return false
	}

	switch c.Operator {
	case ConditionOperatorGreaterThan:
		return actual.GreaterThan(c.Value)
	case ConditionOperatorLessThan:
		return actual.LessThan(c.Value)
	case ConditionOperatorEqual:
		return actual.Equal(c.Value)
	}
	return false
}

// AccountingRule maps a transaction type, optionally narrowed by a condition,
// to the debit/credit account pair used when composing a journal entry.
type AccountingRule struct {
	shared.BaseEntity
	TransactionType   string        `gorm:"type:varchar(30);not null;index"`
	RuleCode          string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	DebitAccountCode  string        `gorm:"type:varchar(50);not null"`
	CreditAccountCode string        `gorm:"type:varchar(50);not null"`
	Condition         RuleCondition `gorm:"embedded;embeddedPrefix:condition_"`
	Priority          int           `gorm:"not null;default:100"` // lower wins within the same specificity tier
	IsActive          bool          `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (AccountingRule) TableName() string {
	return "accounting_rules"
}

// NewAccountingRule creates an accounting rule
func NewAccountingRule(transactionType, ruleCode, debitAccountCode, creditAccountCode string) (*AccountingRule, error) {
	if strings.TrimSpace(transactionType) == "" {
		return nil, shared.NewDomainError("INVALID_RULE", "Transaction type cannot be empty")
	}
	if strings.TrimSpace(ruleCode) == "" {
		return nil, shared.NewDomainError("INVALID_RULE", "Rule code cannot be empty")
	}
	if err := ValidateAccountCode(debitAccountCode); err != nil {
		return nil, err
	}
	if err := ValidateAccountCode(creditAccountCode); err != nil {
		return nil, err
	}
	if debitAccountCode == creditAccountCode {
		return nil, shared.NewDomainError("INVALID_RULE", "Debit and credit accounts must differ")
	}

	return &AccountingRule{
		BaseEntity:        shared.NewBaseEntity(),
		TransactionType:   transactionType,
		RuleCode:          ruleCode,
		DebitAccountCode:  debitAccountCode,
		CreditAccountCode: creditAccountCode,
		Priority:          100,
		IsActive:          true,
	}, nil
}

// WithCondition narrows the rule to transactions matching the predicate
func (r *AccountingRule) WithCondition(field ConditionField, operator ConditionOperator, value decimal.Decimal) (*AccountingRule, error) {
	if !field.IsValid() {
		return nil, shared.NewDomainError("INVALID_RULE", "Invalid condition field")
	}
	if !operator.IsValid() {
		return nil, shared.NewDomainError("INVALID_RULE", "Invalid condition operator")
	}
	r.Condition = RuleCondition{Field: field, Operator: operator, Value: value}
	return r, nil
}

// WithPriority overrides the default ordering priority
func (r *AccountingRule) WithPriority(priority int) *AccountingRule {
	r.Priority = priority
	return r
}

// IsUsable is the single capability check for rule resolution
func (r *AccountingRule) IsUsable() bool {
	return r.IsActive
}

// IsConditioned returns true if the rule carries a predicate
func (r *AccountingRule) IsConditioned() bool {
	return !r.Condition.IsZero()
}

// Matches returns true if the rule is usable and its condition holds for ctx
func (r *AccountingRule) Matches(ctx RuleContext) bool {
	return r.IsUsable() && r.Condition.Matches(ctx)
}

// ResolvedRule is the outcome of rule resolution: the account pair to post
type ResolvedRule struct {
	RuleCode          string
	DebitAccountCode  string
	CreditAccountCode string
}
