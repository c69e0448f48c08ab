package accounting

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordTransactionRequest carries one inbound business event from the
// upstream order/inventory/payment services.
type RecordTransactionRequest struct {
	Type           inventory.TransactionType
	ProductID      uuid.UUID
	SKU            string
	ProductName    string
	Quantity       decimal.Decimal // signed
	UnitCost       decimal.Decimal
	ToLocation     string
	FromLocation   string
	OrderID        *uuid.UUID
	DocumentNumber string
	Notes          string
	CreatedBy      uuid.UUID
}

// InventoryTransactionRecorder drives rule resolution, journal composition,
// posting and movement persistence as one all-or-nothing operation. If any
// step fails, nothing is persisted: no movement without a posted entry, no
// posted entry without its movement.
type InventoryTransactionRecorder struct {
	txm      accounting.TransactionManager
	composer *accounting.JournalEntryComposer
	poster   *accounting.LedgerPoster
	movRepo  inventory.InventoryTransactionRepository
	logger   *zap.Logger
}

// NewInventoryTransactionRecorder creates a recorder
func NewInventoryTransactionRecorder(
	txm accounting.TransactionManager,
	composer *accounting.JournalEntryComposer,
	poster *accounting.LedgerPoster,
	movRepo inventory.InventoryTransactionRepository,
	logger *zap.Logger,
) *InventoryTransactionRecorder {
	return &InventoryTransactionRecorder{
		txm:      txm,
		composer: composer,
		poster:   poster,
		movRepo:  movRepo,
		logger:   logger,
	}
}

// RecordTransaction records one inventory movement together with its posted
// journal entry. Posting amounts are always positive; direction is encoded by
// which account the resolved rule debits or credits, not by amount sign.
func (r *InventoryTransactionRecorder) RecordTransaction(ctx context.Context, req RecordTransactionRequest) (*inventory.InventoryTransaction, error) {
	if err := r.validate(req); err != nil {
		return nil, err
	}

	totalCost := req.Quantity.Abs().Mul(req.UnitCost)

	r.logger.Info("recording inventory transaction",
		zap.String("type", req.Type.String()),
		zap.String("sku", req.SKU),
		zap.String("quantity", req.Quantity.String()),
		zap.String("total_cost", totalCost.String()),
	)

	var movement *inventory.InventoryTransaction
	err := r.txm.Do(ctx, func(txCtx context.Context) error {
		number, err := r.movRepo.GenerateTransactionNumber(txCtx)
		if err != nil {
			return fmt.Errorf("failed to generate transaction number: %w", err)
		}

		documentNumber := req.DocumentNumber
		if documentNumber == "" {
			documentNumber = number
		}

		// The movement's identity is fixed up front so the journal entry can
		// link back to it even though the movement row is written last.
		movementID := uuid.New()

		draft, err := r.composer.Compose(txCtx, accounting.ComposeRequest{
			TransactionType: req.Type.String(),
			Amount:          totalCost,
			DocumentType:    accounting.DocumentTypeInventoryTransaction,
			DocumentNumber:  documentNumber,
			History:         r.history(req),
			Links: accounting.EntryLinks{
				OrderID:                req.OrderID,
				ProductID:              &req.ProductID,
				InventoryTransactionID: &movementID,
			},
			CreatedBy: req.CreatedBy,
			Context: accounting.RuleContext{
				Quantity: req.Quantity,
				Amount:   totalCost,
			},
		})
		if err != nil {
			return err
		}

		posted, err := r.poster.Post(txCtx, draft)
		if err != nil {
			return err
		}

		movement, err = inventory.NewInventoryTransaction(
			number,
			req.Type,
			req.ProductID,
			req.SKU,
			req.ProductName,
			req.Quantity,
			req.UnitCost,
			req.ToLocation,
			posted.ID,
			req.CreatedBy,
		)
		if err != nil {
			return err
		}
		movement.ID = movementID
		if req.FromLocation != "" {
			movement.WithFromLocation(req.FromLocation)
		}
		if req.OrderID != nil {
			movement.WithOrderID(*req.OrderID)
		}
		if req.DocumentNumber != "" {
			movement.WithDocumentNumber(req.DocumentNumber)
		}
		if req.Notes != "" {
			movement.WithNotes(req.Notes)
		}

		return r.movRepo.Create(txCtx, movement)
	})
	if err != nil {
		r.logger.Error("failed to record inventory transaction",
			zap.String("type", req.Type.String()),
			zap.String("sku", req.SKU),
			zap.Error(err),
		)
		return nil, err
	}

	r.logger.Info("inventory transaction recorded",
		zap.String("transaction_number", movement.TransactionNumber),
		zap.String("journal_entry_id", movement.JournalEntryID.String()),
		zap.String("total_cost", movement.TotalCost.String()),
	)
	return movement, nil
}

func (r *InventoryTransactionRecorder) validate(req RecordTransactionRequest) error {
	if !req.Type.IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", "Invalid transaction type")
	}
	if req.Quantity.IsZero() {
		return shared.NewDomainError("VALIDATION_ERROR", "Quantity cannot be zero")
	}
	if req.UnitCost.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Unit cost cannot be negative")
	}
	if req.ProductID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Product ID is required")
	}
	if req.SKU == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "SKU is required")
	}
	if req.ToLocation == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Target location is required")
	}
	if req.Type.RequiresFromLocation() && req.FromLocation == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Source location is required for stock transfers")
	}
	if req.CreatedBy == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "CreatedBy is required")
	}
	return nil
}

func (r *InventoryTransactionRecorder) history(req RecordTransactionRequest) string {
	if req.Notes != "" {
		return req.Notes
	}
	return fmt.Sprintf("%s %s x %s", req.Type, req.SKU, req.Quantity.String())
}
