package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.Account, error) {
	var account accounting.Account
	if err := conn(ctx, r.db).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByCode finds an account by its unique hierarchical code
func (r *GormAccountRepository) FindByCode(ctx context.Context, code string) (*accounting.Account, error) {
	var account accounting.Account
	if err := conn(ctx, r.db).First(&account, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByIDs finds all accounts for the given ids, ordered by id so every
// caller observes the same deterministic order
func (r *GormAccountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]accounting.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var accounts []accounting.Account
	if err := conn(ctx, r.db).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// FindByParentID finds the direct children of an account
func (r *GormAccountRepository) FindByParentID(ctx context.Context, parentID uuid.UUID) ([]accounting.Account, error) {
	var accounts []accounting.Account
	if err := conn(ctx, r.db).
		Where("parent_id = ?", parentID).
		Order("code ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// FindAll finds accounts with filtering
func (r *GormAccountRepository) FindAll(ctx context.Context, filter shared.Filter) ([]accounting.Account, error) {
	var accounts []accounting.Account
	query := r.applyFilter(conn(ctx, r.db).Model(&accounting.Account{}), filter)
	if err := query.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, account *accounting.Account) error {
	return conn(ctx, r.db).Save(account).Error
}

// SaveWithLock saves with optimistic locking: the update only applies if the
// row still carries the version the aggregate was loaded with. Zero rows
// affected means another poster won the race.
func (r *GormAccountRepository) SaveWithLock(ctx context.Context, account *accounting.Account) error {
	result := conn(ctx, r.db).
		Model(&accounting.Account{}).
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Updates(map[string]interface{}{
			"balance":    account.Balance,
			"is_active":  account.IsActive,
			"version":    account.Version,
			"updated_at": account.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Count counts accounts with optional filters
func (r *GormAccountRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(conn(ctx, r.db).Model(&accounting.Account{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormAccountRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("code ASC")
	}

	return query
}

func (r *GormAccountRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "is_analytic":
			query = query.Where("is_analytic = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		case "parent_id":
			query = query.Where("parent_id = ?", value)
		}
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", pattern, pattern)
	}
	return query
}

// Ensure GormAccountRepository implements AccountRepository
var _ accounting.AccountRepository = (*GormAccountRepository)(nil)
