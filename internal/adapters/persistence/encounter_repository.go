package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oriolvila/clinicore-go/internal/domain/clinical"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// GormEncounterRepository implements EncounterRepository using GORM. The
// treatment rows are replaced wholesale on update; an encounter's treatment
// list only ever grows while it is a draft and freezes on finalization.
type GormEncounterRepository struct {
	db *gorm.DB
}

// NewGormEncounterRepository creates a new GORM encounter repository
func NewGormEncounterRepository(db *gorm.DB) *GormEncounterRepository {
	return &GormEncounterRepository{db: db}
}

// Create persists a new encounter with its treatments
func (r *GormEncounterRepository) Create(ctx context.Context, encounter *clinical.Encounter) error {
	if err := r.db.WithContext(ctx).Create(r.encounterToModel(encounter)).Error; err != nil {
		return fmt.Errorf("failed to create encounter: %w", err)
	}
	return r.replaceTreatments(ctx, encounter)
}

// FindByID retrieves an encounter with its treatments in recorded order
func (r *GormEncounterRepository) FindByID(ctx context.Context, id string) (*clinical.Encounter, error) {
	var model EncounterModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("encounter", id)
		}
		return nil, fmt.Errorf("failed to find encounter: %w", result.Error)
	}

	var treatmentModels []EncounterTreatmentModel
	if err := r.db.WithContext(ctx).
		Where("encounter_id = ?", id).
		Order("position ASC").
		Find(&treatmentModels).Error; err != nil {
		return nil, fmt.Errorf("failed to load encounter treatments: %w", err)
	}

	treatments := make([]*clinical.EncounterTreatment, len(treatmentModels))
	for i, t := range treatmentModels {
		treatments[i] = clinical.ReconstructEncounterTreatment(
			t.ID, t.EncounterID, t.TreatmentID, t.TreatmentName, t.Description,
			t.Quantity, t.PriceOverride, t.DefaultPrice, t.Notes,
		)
	}

	return clinical.ReconstructEncounter(
		model.ID,
		model.PatientID,
		model.PractitionerID,
		clinical.EncounterStatus(model.Status),
		model.OccurredAt,
		model.Anamnesis,
		model.Diagnosis,
		model.Notes,
		treatments,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}

// Update persists the encounter header and replaces its treatment rows
func (r *GormEncounterRepository) Update(ctx context.Context, encounter *clinical.Encounter) error {
	result := r.db.WithContext(ctx).
		Model(&EncounterModel{}).
		Where("id = ?", encounter.ID()).
		Updates(map[string]interface{}{
			"status":     string(encounter.Status()),
			"anamnesis":  encounter.Anamnesis(),
			"diagnosis":  encounter.Diagnosis(),
			"notes":      encounter.Notes(),
			"updated_at": encounter.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update encounter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("encounter", encounter.ID())
	}
	return r.replaceTreatments(ctx, encounter)
}

func (r *GormEncounterRepository) replaceTreatments(ctx context.Context, encounter *clinical.Encounter) error {
	if err := r.db.WithContext(ctx).
		Where("encounter_id = ?", encounter.ID()).
		Delete(&EncounterTreatmentModel{}).Error; err != nil {
		return fmt.Errorf("failed to clear encounter treatments: %w", err)
	}
	for i, et := range encounter.Treatments() {
		model := &EncounterTreatmentModel{
			ID:            et.ID(),
			EncounterID:   et.EncounterID(),
			TreatmentID:   et.TreatmentID(),
			TreatmentName: et.TreatmentName(),
			Description:   et.Description(),
			Quantity:      et.Quantity(),
			PriceOverride: et.PriceOverride(),
			DefaultPrice:  et.DefaultPrice(),
			Notes:         et.Notes(),
			Position:      i,
		}
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			return fmt.Errorf("failed to save encounter treatment: %w", err)
		}
	}
	return nil
}

func (r *GormEncounterRepository) encounterToModel(encounter *clinical.Encounter) *EncounterModel {
	return &EncounterModel{
		ID:             encounter.ID(),
		PatientID:      encounter.PatientID(),
		PractitionerID: encounter.PractitionerID(),
		Status:         string(encounter.Status()),
		OccurredAt:     encounter.OccurredAt(),
		Anamnesis:      encounter.Anamnesis(),
		Diagnosis:      encounter.Diagnosis(),
		Notes:          encounter.Notes(),
		CreatedAt:      encounter.CreatedAt(),
		UpdatedAt:      encounter.UpdatedAt(),
	}
}

var _ clinical.EncounterRepository = (*GormEncounterRepository)(nil)
