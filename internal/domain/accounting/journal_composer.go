package accounting

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryLinks are optional references from a journal entry back to the
// business documents that produced it.
type EntryLinks struct {
	OrderID                *uuid.UUID
	ProductID              *uuid.UUID
	InventoryTransactionID *uuid.UUID
}

// ComposeRequest describes the business event a journal entry is built for
type ComposeRequest struct {
	TransactionType string
	Amount          decimal.Decimal
	EntryDate       time.Time
	DocumentType    DocumentType
	DocumentNumber  string
	History         string
	Links           EntryLinks
	CreatedBy       uuid.UUID
	Context         RuleContext
}

// LegSpec describes one leg of a multi-account composition
type LegSpec struct {
	AccountCode string
	EntryType   EntryType
	Amount      decimal.Decimal
	Description string
	CostCenter  string
}

// JournalEntryComposer builds balanced draft journal entries. Composition is
// pure construction: account lookups are reads, nothing is persisted and no
// balance is touched.
type JournalEntryComposer struct {
	registry *ChartOfAccountsRegistry
	resolver *AccountingRuleResolver
}

// NewJournalEntryComposer creates a composer over the registry and resolver
func NewJournalEntryComposer(registry *ChartOfAccountsRegistry, resolver *AccountingRuleResolver) *JournalEntryComposer {
	return &JournalEntryComposer{
		registry: registry,
		resolver: resolver,
	}
}

// Compose resolves the accounting rule for the request's transaction type and
// builds a two-leg draft: one debit and one credit of the full amount.
func (c *JournalEntryComposer) Compose(ctx context.Context, req ComposeRequest) (*DraftJournalEntry, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Entry amount must be positive")
	}

	rule, err := c.resolver.Resolve(ctx, req.TransactionType, req.Context)
	if err != nil {
		return nil, err
	}

	legs := []LegSpec{
		{AccountCode: rule.DebitAccountCode, EntryType: EntryTypeDebit, Amount: req.Amount, Description: req.History},
		{AccountCode: rule.CreditAccountCode, EntryType: EntryTypeCredit, Amount: req.Amount, Description: req.History},
	}
	return c.ComposeLegs(ctx, req, legs)
}

// ComposeLegs builds a draft from explicit leg specifications. The general
// n-leg form backs future multi-account postings; it refuses any composition
// whose debit and credit totals differ.
func (c *JournalEntryComposer) ComposeLegs(ctx context.Context, req ComposeRequest, specs []LegSpec) (*DraftJournalEntry, error) {
	if len(specs) < 2 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "An entry needs at least one debit and one credit leg")
	}
	if !req.DocumentType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invalid document type")
	}
	if req.CreatedBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "CreatedBy cannot be empty")
	}

	entryDate := req.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now()
	}

	entry := &JournalEntry{
		BaseEntity:             shared.NewBaseEntity(),
		EntryDate:              entryDate,
		DocumentType:           req.DocumentType,
		DocumentNumber:         req.DocumentNumber,
		History:                req.History,
		OrderID:                req.Links.OrderID,
		ProductID:              req.Links.ProductID,
		InventoryTransactionID: req.Links.InventoryTransactionID,
		CreatedBy:              req.CreatedBy,
	}

	draft := &DraftJournalEntry{Entry: entry}
	for _, spec := range specs {
		account, err := c.registry.LookupByCode(ctx, spec.AccountCode)
		if err != nil {
			return nil, err
		}

		leg, err := NewAccountingEntry(entry.ID, account.ID, spec.EntryType, spec.Amount)
		if err != nil {
			return nil, err
		}
		if spec.Description != "" {
			leg.WithDescription(spec.Description)
		}
		if spec.CostCenter != "" {
			leg.WithCostCenter(spec.CostCenter)
		}
		draft.Legs = append(draft.Legs, leg)
	}

	if !draft.IsBalanced() {
		return nil, shared.ErrImbalance
	}
	entry.TotalAmount = draft.SumDebits()

	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return draft, nil
}
