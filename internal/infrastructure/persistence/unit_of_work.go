package persistence

import (
	"context"

	"github.com/feeledger/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormUnitOfWork runs ledger operations inside one database transaction.
// The repositories handed to the callback are bound to that transaction, so
// a payment record transition and the obligation credit commit together.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// WithinTransaction runs fn inside a transaction. Returning an error rolls
// everything back.
func (u *GormUnitOfWork) WithinTransaction(ctx context.Context, fn func(obligations ledger.FeeObligationRepository, records ledger.PaymentRecordRepository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormFeeObligationRepository(tx), NewGormPaymentRecordRepository(tx))
	})
}

// Ensure GormUnitOfWork implements UnitOfWork
var _ ledger.UnitOfWork = (*GormUnitOfWork)(nil)
