package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormBalancePostingRepository implements BalancePostingRepository using GORM.
// The table is append-only; this repository exposes no update or delete.
type GormBalancePostingRepository struct {
	db *gorm.DB
}

// NewGormBalancePostingRepository creates a new GormBalancePostingRepository
func NewGormBalancePostingRepository(db *gorm.DB) *GormBalancePostingRepository {
	return &GormBalancePostingRepository{db: db}
}

// Create appends one posting fact
func (r *GormBalancePostingRepository) Create(ctx context.Context, posting *accounting.BalancePosting) error {
	return conn(ctx, r.db).Create(posting).Error
}

// FindByAccountID lists the postings applied to an account, oldest first
func (r *GormBalancePostingRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]accounting.BalancePosting, error) {
	var postings []accounting.BalancePosting
	query := conn(ctx, r.db).
		Where("account_id = ?", accountID).
		Order("posted_at ASC, created_at ASC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&postings).Error; err != nil {
		return nil, err
	}
	return postings, nil
}

// SumDeltaByAccount replays the log for an account into a net delta
func (r *GormBalancePostingRepository) SumDeltaByAccount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := conn(ctx, r.db).
		Model(&accounting.BalancePosting{}).
		Select("COALESCE(SUM(delta), 0)").
		Where("account_id = ?", accountID).
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Ensure GormBalancePostingRepository implements BalancePostingRepository
var _ accounting.BalancePostingRepository = (*GormBalancePostingRepository)(nil)
