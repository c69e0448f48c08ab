package handler

import (
	"time"

	appaccounting "github.com/erp/ledger/internal/application/accounting"
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler exposes the posting boundary and the ledger read side
type LedgerHandler struct {
	BaseHandler
	recorder *appaccounting.InventoryTransactionRecorder
	ledger   *appaccounting.LedgerService
}

// NewLedgerHandler creates a ledger handler
func NewLedgerHandler(
	recorder *appaccounting.InventoryTransactionRecorder,
	ledger *appaccounting.LedgerService,
) *LedgerHandler {
	return &LedgerHandler{
		recorder: recorder,
		ledger:   ledger,
	}
}

// RecordTransaction handles POST /api/v1/inventory-transactions
func (h *LedgerHandler) RecordTransaction(c *gin.Context) {
	var req dto.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var orderID *uuid.UUID
	if req.OrderID != "" {
		id, err := uuid.Parse(req.OrderID)
		if err != nil {
			h.BadRequest(c, "Invalid order ID")
			return
		}
		orderID = &id
	}

	movement, err := h.recorder.RecordTransaction(c.Request.Context(), appaccounting.RecordTransactionRequest{
		Type:           inventory.TransactionType(req.Type),
		ProductID:      productID,
		SKU:            req.SKU,
		ProductName:    req.ProductName,
		Quantity:       req.Quantity,
		UnitCost:       req.UnitCost,
		ToLocation:     req.ToLocation,
		FromLocation:   req.FromLocation,
		OrderID:        orderID,
		DocumentNumber: req.DocumentNumber,
		Notes:          req.Notes,
		CreatedBy:      userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ToInventoryTransactionResponse(movement))
}

// GetAccountBalance handles GET /api/v1/accounts/:code/balance
func (h *LedgerHandler) GetAccountBalance(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Account code is required")
		return
	}

	balance, err := h.ledger.GetAccountBalance(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToAccountBalanceResponse(balance))
}

// GetJournalEntry handles GET /api/v1/journal-entries/:id
func (h *LedgerHandler) GetJournalEntry(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid journal entry ID")
		return
	}
	entryID := uuid.MustParse(req.ID)

	result, err := h.ledger.GetJournalEntry(c.Request.Context(), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToJournalEntryWithLegsResponse(result))
}

// ListJournalEntries handles GET /api/v1/journal-entries
func (h *LedgerHandler) ListJournalEntries(c *gin.Context) {
	var req dto.ListJournalEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := accounting.JournalEntryFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
		IsPosted: req.IsPosted,
		FromDate: req.From,
		ToDate:   req.To,
	}
	if req.DocumentType != "" {
		documentType := accounting.DocumentType(req.DocumentType)
		if !documentType.IsValid() {
			h.BadRequest(c, "Invalid document type")
			return
		}
		filter.DocumentType = &documentType
	}

	page, err := h.ledger.ListJournalEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]dto.JournalEntryResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.ToJournalEntryResponse(&page.Items[i]))
	}
	h.SuccessWithMeta(c, items, page.Total, req.Page, req.PageSize)
}

// ReverseJournalEntry handles POST /api/v1/journal-entries/:id/reverse
func (h *LedgerHandler) ReverseJournalEntry(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid journal entry ID")
		return
	}
	entryID := uuid.MustParse(idReq.ID)

	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reversal, err := h.ledger.ReverseEntry(c.Request.Context(), entryID, req.Reason, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ToJournalEntryResponse(reversal))
}

// CheckIntegrity handles GET /api/v1/ledger/integrity
func (h *LedgerHandler) CheckIntegrity(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	from := time.Time{}
	to := time.Now()
	if req.From != nil {
		from = *req.From
	}
	if req.To != nil {
		to = *req.To
	}

	report, err := h.ledger.CheckIntegrity(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToIntegrityResponse(report))
}
