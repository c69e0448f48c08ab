package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/accounting"
	"gorm.io/gorm"
)

type txContextKey struct{}

// ContextWithTx stores a transactional GORM handle in the context so
// repository calls made with that context join the transaction.
func ContextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext returns the transactional handle carried by the context, if any
func TxFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx
}

// GormTransactionManager implements accounting.TransactionManager over GORM
// transactions. Nested Do calls join the enclosing transaction through a
// savepoint, so a failed inner attempt can roll back without poisoning the
// outer unit of work.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a transaction manager
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// Do runs fn inside a transaction. The inner context carries the transactional
// handle; on error everything done with that context is rolled back.
func (m *GormTransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	conn := m.db
	if tx := TxFromContext(ctx); tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTx(ctx, tx))
	})
}

// InTransaction reports whether the context carries a transactional handle
func (m *GormTransactionManager) InTransaction(ctx context.Context) bool {
	return TxFromContext(ctx) != nil
}

// Ensure GormTransactionManager implements accounting.TransactionManager
var _ accounting.TransactionManager = (*GormTransactionManager)(nil)

// conn resolves the connection for a repository call: the transactional
// handle from the context when present, the base connection otherwise.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := TxFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
