package dto

import (
	"time"

	appaccounting "github.com/erp/ledger/internal/application/accounting"
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordTransactionRequest is the inbound payload for recording an inventory
// movement. Quantity is signed; unit cost must be non-negative.
type RecordTransactionRequest struct {
	Type           string          `json:"type" binding:"required"`
	ProductID      string          `json:"product_id" binding:"required,uuid"`
	SKU            string          `json:"sku" binding:"required"`
	ProductName    string          `json:"product_name"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	ToLocation     string          `json:"to_location" binding:"required"`
	FromLocation   string          `json:"from_location"`
	OrderID        string          `json:"order_id" binding:"omitempty,uuid"`
	DocumentNumber string          `json:"document_number"`
	Notes          string          `json:"notes"`
}

// ReverseEntryRequest is the inbound payload for reversing a posted entry
type ReverseEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListJournalEntriesRequest holds the query parameters for the paged listing
type ListJournalEntriesRequest struct {
	ListRequest
	DateRangeRequest
	DocumentType string `form:"document_type"`
	IsPosted     *bool  `form:"is_posted"`
}

// InventoryTransactionResponse is the API shape of a recorded movement
type InventoryTransactionResponse struct {
	ID                string          `json:"id"`
	TransactionNumber string          `json:"transaction_number"`
	TransactionDate   time.Time       `json:"transaction_date"`
	Type              string          `json:"type"`
	ProductID         string          `json:"product_id"`
	SKU               string          `json:"sku"`
	ProductName       string          `json:"product_name"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	FromLocation      string          `json:"from_location,omitempty"`
	ToLocation        string          `json:"to_location"`
	OrderID           *uuid.UUID      `json:"order_id,omitempty"`
	DocumentNumber    string          `json:"document_number,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	JournalEntryID    string          `json:"journal_entry_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ToInventoryTransactionResponse converts a movement to its API shape
func ToInventoryTransactionResponse(tx *inventory.InventoryTransaction) InventoryTransactionResponse {
	return InventoryTransactionResponse{
		ID:                tx.ID.String(),
		TransactionNumber: tx.TransactionNumber,
		TransactionDate:   tx.TransactionDate,
		Type:              tx.TransactionType.String(),
		ProductID:         tx.ProductID.String(),
		SKU:               tx.SKU,
		ProductName:       tx.ProductName,
		Quantity:          tx.Quantity,
		UnitCost:          tx.UnitCost,
		TotalCost:         tx.TotalCost,
		FromLocation:      tx.FromLocation,
		ToLocation:        tx.ToLocation,
		OrderID:           tx.OrderID,
		DocumentNumber:    tx.DocumentNumber,
		Notes:             tx.Notes,
		JournalEntryID:    tx.JournalEntryID.String(),
		CreatedAt:         tx.CreatedAt,
	}
}

// AccountingEntryResponse is the API shape of one journal entry leg
type AccountingEntryResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	EntryType   string          `json:"entry_type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	CostCenter  string          `json:"cost_center,omitempty"`
}

// JournalEntryResponse is the API shape of a journal entry header
type JournalEntryResponse struct {
	ID                     string                    `json:"id"`
	EntryNumber            string                    `json:"entry_number"`
	EntryDate              time.Time                 `json:"entry_date"`
	DocumentType           string                    `json:"document_type"`
	DocumentNumber         string                    `json:"document_number,omitempty"`
	History                string                    `json:"history,omitempty"`
	TotalAmount            decimal.Decimal           `json:"total_amount"`
	IsPosted               bool                      `json:"is_posted"`
	PostedAt               *time.Time                `json:"posted_at,omitempty"`
	OrderID                *uuid.UUID                `json:"order_id,omitempty"`
	ProductID              *uuid.UUID                `json:"product_id,omitempty"`
	InventoryTransactionID *uuid.UUID                `json:"inventory_transaction_id,omitempty"`
	ReversedEntryID        *uuid.UUID                `json:"reversed_entry_id,omitempty"`
	Legs                   []AccountingEntryResponse `json:"legs,omitempty"`
	CreatedAt              time.Time                 `json:"created_at"`
}

// ToJournalEntryResponse converts an entry header to its API shape
func ToJournalEntryResponse(entry *accounting.JournalEntry) JournalEntryResponse {
	return JournalEntryResponse{
		ID:                     entry.ID.String(),
		EntryNumber:            entry.EntryNumber,
		EntryDate:              entry.EntryDate,
		DocumentType:           entry.DocumentType.String(),
		DocumentNumber:         entry.DocumentNumber,
		History:                entry.History,
		TotalAmount:            entry.TotalAmount,
		IsPosted:               entry.IsPosted,
		PostedAt:               entry.PostedAt,
		OrderID:                entry.OrderID,
		ProductID:              entry.ProductID,
		InventoryTransactionID: entry.InventoryTransactionID,
		ReversedEntryID:        entry.ReversedEntryID,
		CreatedAt:              entry.CreatedAt,
	}
}

// ToJournalEntryWithLegsResponse converts an entry with its legs
func ToJournalEntryWithLegsResponse(result *appaccounting.JournalEntryWithLegs) JournalEntryResponse {
	resp := ToJournalEntryResponse(result.Entry)
	resp.Legs = make([]AccountingEntryResponse, 0, len(result.Legs))
	for _, leg := range result.Legs {
		resp.Legs = append(resp.Legs, AccountingEntryResponse{
			ID:          leg.ID.String(),
			AccountID:   leg.AccountID.String(),
			EntryType:   leg.EntryType.String(),
			Amount:      leg.Amount,
			Description: leg.Description,
			CostCenter:  leg.CostCenter,
		})
	}
	return resp
}

// AccountBalanceResponse is the API shape of an account's effective balance
type AccountBalanceResponse struct {
	AccountID  string          `json:"account_id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	IsAnalytic bool            `json:"is_analytic"`
	Balance    decimal.Decimal `json:"balance"`
}

// ToAccountBalanceResponse converts a resolved balance to its API shape
func ToAccountBalanceResponse(ab *appaccounting.AccountBalance) AccountBalanceResponse {
	return AccountBalanceResponse{
		AccountID:  ab.Account.ID.String(),
		Code:       ab.Account.Code,
		Name:       ab.Account.Name,
		Type:       ab.Account.Type.String(),
		IsAnalytic: ab.Account.IsAnalytic,
		Balance:    ab.Balance,
	}
}

// IntegrityResponse is the API shape of a ledger balance check
type IntegrityResponse struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	TotalDebits  decimal.Decimal `json:"total_debits"`
	TotalCredits decimal.Decimal `json:"total_credits"`
	Balanced     bool            `json:"balanced"`
}

// ToIntegrityResponse converts an integrity report to its API shape
func ToIntegrityResponse(report *appaccounting.IntegrityReport) IntegrityResponse {
	return IntegrityResponse{
		From:         report.From,
		To:           report.To,
		TotalDebits:  report.TotalDebits,
		TotalCredits: report.TotalCredits,
		Balanced:     report.Balanced,
	}
}
