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

// GormAccountingRuleRepository implements AccountingRuleRepository using GORM
type GormAccountingRuleRepository struct {
	db *gorm.DB
}

// NewGormAccountingRuleRepository creates a new GormAccountingRuleRepository
func NewGormAccountingRuleRepository(db *gorm.DB) *GormAccountingRuleRepository {
	return &GormAccountingRuleRepository{db: db}
}

// FindByID finds a rule by ID
func (r *GormAccountingRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.AccountingRule, error) {
	var rule accounting.AccountingRule
	if err := conn(ctx, r.db).First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// FindByRuleCode finds a rule by its unique code
func (r *GormAccountingRuleRepository) FindByRuleCode(ctx context.Context, ruleCode string) (*accounting.AccountingRule, error) {
	var rule accounting.AccountingRule
	if err := conn(ctx, r.db).First(&rule, "rule_code = ?", ruleCode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// FindActiveByTransactionType finds all active rules for a transaction type.
// Ordering here is only a stable read order; precedence is decided by the
// resolver.
func (r *GormAccountingRuleRepository) FindActiveByTransactionType(ctx context.Context, transactionType string) ([]accounting.AccountingRule, error) {
	var rules []accounting.AccountingRule
	if err := conn(ctx, r.db).
		Where("transaction_type = ? AND is_active = ?", transactionType, true).
		Order("priority ASC, rule_code ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// FindAll finds rules with filtering
func (r *GormAccountingRuleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]accounting.AccountingRule, error) {
	var rules []accounting.AccountingRule
	query := r.applyFilter(conn(ctx, r.db).Model(&accounting.AccountingRule{}), filter)
	if err := query.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Save creates or updates a rule
func (r *GormAccountingRuleRepository) Save(ctx context.Context, rule *accounting.AccountingRule) error {
	return conn(ctx, r.db).Save(rule).Error
}

// Count counts rules with optional filters
func (r *GormAccountingRuleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(conn(ctx, r.db).Model(&accounting.AccountingRule{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormAccountingRuleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
		query = query.Order("transaction_type ASC, priority ASC")
	}

	return query
}

func (r *GormAccountingRuleRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "transaction_type":
			query = query.Where("transaction_type = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		}
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("rule_code LIKE ? OR debit_account_code LIKE ? OR credit_account_code LIKE ?", pattern, pattern, pattern)
	}
	return query
}

// Ensure GormAccountingRuleRepository implements AccountingRuleRepository
var _ accounting.AccountingRuleRepository = (*GormAccountingRuleRepository)(nil)
