package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/oriolvila/clinicore-go/internal/application/common"
)

// GormTransactionScope implements TransactionScope on gorm's transaction
// support. Every user-initiated core operation runs inside exactly one scope;
// the repository bundle handed to fn is built over the transaction handle, so
// an error from fn rolls back everything the operation touched.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GORM transaction scope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside one database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos *common.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	})
}

// NewRepositories builds the repository bundle over one database handle.
// Passing a transaction handle scopes every repository to that transaction.
func NewRepositories(db *gorm.DB) *common.Repositories {
	return &common.Repositories{
		Products:    NewGormProductRepository(db),
		Locations:   NewGormLocationRepository(db),
		Batches:     NewGormBatchRepository(db),
		Ledger:      NewGormLedgerRepository(db),
		Sales:       NewGormSaleRepository(db),
		SaleNumbers: NewGormSaleNumberSequence(db),
		Patients:    NewGormPatientRepository(db),
		Treatments:  NewGormTreatmentRepository(db),
		Encounters:  NewGormEncounterRepository(db),
		Proposals:   NewGormProposalRepository(db),
	}
}

var _ common.TransactionScope = (*GormTransactionScope)(nil)
