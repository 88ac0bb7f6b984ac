package common

import (
	"context"

	"github.com/oriolvila/clinicore-go/internal/domain/billing"
	"github.com/oriolvila/clinicore-go/internal/domain/charge"
	"github.com/oriolvila/clinicore-go/internal/domain/clinical"
	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
)

// Repositories bundles the repository ports available inside one transaction.
// All repositories in a bundle operate over the same transaction handle.
type Repositories struct {
	Products    inventory.ProductRepository
	Locations   inventory.LocationRepository
	Batches     inventory.BatchRepository
	Ledger      inventory.LedgerRepository
	Sales       billing.SaleRepository
	SaleNumbers billing.SaleNumberSequence
	Patients    clinical.PatientRepository
	Treatments  clinical.TreatmentRepository
	Encounters  clinical.EncounterRepository
	Proposals   charge.ProposalRepository
}

// TransactionScope runs a function inside one atomic transaction on the
// backing store. Every user-initiated core operation executes exactly one
// scope; an error from fn rolls everything back and no partial state is
// visible to other transactions.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}
