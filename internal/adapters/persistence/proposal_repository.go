package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oriolvila/clinicore-go/internal/domain/charge"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// GormProposalRepository implements ProposalRepository using GORM. The unique
// index on encounter_id backs the one-proposal-per-encounter constraint at
// the storage level; the application checks it first to return a tagged error
// instead of a driver constraint violation.
type GormProposalRepository struct {
	db *gorm.DB
}

// NewGormProposalRepository creates a new GORM proposal repository
func NewGormProposalRepository(db *gorm.DB) *GormProposalRepository {
	return &GormProposalRepository{db: db}
}

// Create persists a new proposal together with its lines
func (r *GormProposalRepository) Create(ctx context.Context, proposal *charge.Proposal) error {
	if err := r.db.WithContext(ctx).Create(r.proposalToModel(proposal)).Error; err != nil {
		return fmt.Errorf("failed to create charge proposal: %w", err)
	}
	return nil
}

// FindByID retrieves a proposal by its ID with lines in order
func (r *GormProposalRepository) FindByID(ctx context.Context, id string) (*charge.Proposal, error) {
	return r.findOne(ctx, "id = ?", id, id)
}

// FindByEncounter returns the proposal anchored to an encounter
func (r *GormProposalRepository) FindByEncounter(ctx context.Context, encounterID string) (*charge.Proposal, error) {
	return r.findOne(ctx, "encounter_id = ?", encounterID, encounterID)
}

func (r *GormProposalRepository) findOne(ctx context.Context, cond string, arg, label string) (*charge.Proposal, error) {
	var model ChargeProposalModel
	result := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where(cond, arg).
		First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("charge proposal", label)
		}
		return nil, fmt.Errorf("failed to find charge proposal: %w", result.Error)
	}
	return r.modelToProposal(&model), nil
}

// Update persists the proposal's status bookkeeping. Lines are immutable once
// written.
func (r *GormProposalRepository) Update(ctx context.Context, proposal *charge.Proposal) error {
	result := r.db.WithContext(ctx).
		Model(&ChargeProposalModel{}).
		Where("id = ?", proposal.ID()).
		Updates(map[string]interface{}{
			"status":               string(proposal.Status()),
			"notes":                proposal.Notes(),
			"converted_to_sale_id": proposal.ConvertedToSaleID(),
			"converted_at":         proposal.ConvertedAt(),
			"cancellation_reason":  proposal.CancellationReason(),
			"updated_at":           proposal.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update charge proposal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("charge proposal", proposal.ID())
	}
	return nil
}

func (r *GormProposalRepository) proposalToModel(proposal *charge.Proposal) *ChargeProposalModel {
	lines := make([]ChargeProposalLineModel, len(proposal.Lines()))
	for i, l := range proposal.Lines() {
		lines[i] = ChargeProposalLineModel{
			ID:                   l.ID(),
			ProposalID:           l.ProposalID(),
			EncounterTreatmentID: l.EncounterTreatmentID(),
			TreatmentID:          l.TreatmentID(),
			TreatmentName:        l.TreatmentName(),
			Description:          l.Description(),
			Quantity:             l.Quantity(),
			UnitPrice:            l.UnitPrice(),
			LineTotal:            l.Total(),
			Position:             i,
		}
	}
	return &ChargeProposalModel{
		ID:                 proposal.ID(),
		EncounterID:        proposal.EncounterID(),
		PatientID:          proposal.PatientID(),
		PractitionerID:     proposal.PractitionerID(),
		Status:             string(proposal.Status()),
		Currency:           proposal.Currency(),
		Notes:              proposal.Notes(),
		ConvertedToSaleID:  proposal.ConvertedToSaleID(),
		ConvertedAt:        proposal.ConvertedAt(),
		CancellationReason: proposal.CancellationReason(),
		TotalAmount:        proposal.TotalAmount(),
		CreatedBy:          proposal.CreatedBy(),
		CreatedAt:          proposal.CreatedAt(),
		UpdatedAt:          proposal.UpdatedAt(),
		Lines:              lines,
	}
}

func (r *GormProposalRepository) modelToProposal(model *ChargeProposalModel) *charge.Proposal {
	lines := make([]*charge.ProposalLine, len(model.Lines))
	for i, l := range model.Lines {
		lines[i] = charge.ReconstructProposalLine(
			l.ID, l.ProposalID, l.EncounterTreatmentID, l.TreatmentID,
			l.TreatmentName, l.Description, l.Quantity, l.UnitPrice,
		)
	}
	return charge.ReconstructProposal(
		model.ID,
		model.EncounterID,
		model.PatientID,
		model.PractitionerID,
		charge.ProposalStatus(model.Status),
		model.Currency,
		model.Notes,
		model.ConvertedToSaleID,
		model.ConvertedAt,
		model.CancellationReason,
		model.CreatedBy,
		model.CreatedAt,
		model.UpdatedAt,
		lines,
	)
}

var _ charge.ProposalRepository = (*GormProposalRepository)(nil)
