package charge

import "context"

// ProposalRepository persists charge proposals together with their lines.
// The store enforces the one-proposal-per-encounter constraint with a unique
// index on the encounter reference.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *Proposal) error
	FindByID(ctx context.Context, id string) (*Proposal, error)
	// FindByEncounter returns the proposal anchored to an encounter, or a
	// NotFound error when none exists
	FindByEncounter(ctx context.Context, encounterID string) (*Proposal, error)
	Update(ctx context.Context, proposal *Proposal) error
}
