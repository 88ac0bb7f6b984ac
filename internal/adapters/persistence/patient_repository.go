package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oriolvila/clinicore-go/internal/domain/clinical"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// GormPatientRepository implements PatientRepository using GORM
type GormPatientRepository struct {
	db *gorm.DB
}

// NewGormPatientRepository creates a new GORM patient repository
func NewGormPatientRepository(db *gorm.DB) *GormPatientRepository {
	return &GormPatientRepository{db: db}
}

// Create persists a new patient
func (r *GormPatientRepository) Create(ctx context.Context, patient *clinical.Patient) error {
	if err := r.db.WithContext(ctx).Create(r.patientToModel(patient)).Error; err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

// FindByID retrieves a patient by its ID
func (r *GormPatientRepository) FindByID(ctx context.Context, id string) (*clinical.Patient, error) {
	var model PatientModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("patient", id)
		}
		return nil, fmt.Errorf("failed to find patient: %w", result.Error)
	}
	return r.modelToPatient(&model), nil
}

// Update performs a conditional write against the expected row version
func (r *GormPatientRepository) Update(ctx context.Context, patient *clinical.Patient, expectedRowVersion int) error {
	consents := patient.Consents()
	result := r.db.WithContext(ctx).
		Model(&PatientModel{}).
		Where("id = ? AND row_version = ?", patient.ID(), expectedRowVersion).
		Updates(map[string]interface{}{
			"full_name":           patient.FullName(),
			"document_id":         patient.DocumentID(),
			"email":               patient.Email(),
			"phone":               patient.Phone(),
			"privacy_accepted":    consents.PrivacyAccepted,
			"privacy_accepted_at": consents.PrivacyAcceptedAt,
			"terms_accepted":      consents.TermsAccepted,
			"terms_accepted_at":   consents.TermsAcceptedAt,
			"row_version":         expectedRowVersion + 1,
			"updated_at":          patient.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update patient: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyConflictError("patient", patient.ID())
	}
	patient.BumpRowVersion()
	return nil
}

func (r *GormPatientRepository) patientToModel(patient *clinical.Patient) *PatientModel {
	consents := patient.Consents()
	return &PatientModel{
		ID:                patient.ID(),
		FullName:          patient.FullName(),
		DocumentID:        patient.DocumentID(),
		Email:             patient.Email(),
		Phone:             patient.Phone(),
		PrivacyAccepted:   consents.PrivacyAccepted,
		PrivacyAcceptedAt: consents.PrivacyAcceptedAt,
		TermsAccepted:     consents.TermsAccepted,
		TermsAcceptedAt:   consents.TermsAcceptedAt,
		RowVersion:        patient.RowVersion(),
		CreatedAt:         patient.CreatedAt(),
		UpdatedAt:         patient.UpdatedAt(),
	}
}

func (r *GormPatientRepository) modelToPatient(model *PatientModel) *clinical.Patient {
	return clinical.ReconstructPatient(
		model.ID,
		model.FullName,
		model.DocumentID,
		model.Email,
		model.Phone,
		clinical.Consents{
			PrivacyAccepted:   model.PrivacyAccepted,
			PrivacyAcceptedAt: model.PrivacyAcceptedAt,
			TermsAccepted:     model.TermsAccepted,
			TermsAcceptedAt:   model.TermsAcceptedAt,
		},
		model.RowVersion,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

// GormTreatmentRepository implements TreatmentRepository using GORM
type GormTreatmentRepository struct {
	db *gorm.DB
}

// NewGormTreatmentRepository creates a new GORM treatment repository
func NewGormTreatmentRepository(db *gorm.DB) *GormTreatmentRepository {
	return &GormTreatmentRepository{db: db}
}

// Create persists a new treatment
func (r *GormTreatmentRepository) Create(ctx context.Context, treatment *clinical.Treatment) error {
	model := &TreatmentModel{
		ID:           treatment.ID(),
		Name:         treatment.Name(),
		Description:  treatment.Description(),
		DefaultPrice: treatment.DefaultPrice(),
		Active:       treatment.Active(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create treatment: %w", err)
	}
	return nil
}

// FindByID retrieves a treatment by its ID
func (r *GormTreatmentRepository) FindByID(ctx context.Context, id string) (*clinical.Treatment, error) {
	var model TreatmentModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("treatment", id)
		}
		return nil, fmt.Errorf("failed to find treatment: %w", result.Error)
	}
	return clinical.ReconstructTreatment(model.ID, model.Name, model.Description, model.DefaultPrice, model.Active), nil
}

// Update persists catalogue changes to a treatment
func (r *GormTreatmentRepository) Update(ctx context.Context, treatment *clinical.Treatment) error {
	result := r.db.WithContext(ctx).
		Model(&TreatmentModel{}).
		Where("id = ?", treatment.ID()).
		Updates(map[string]interface{}{
			"name":          treatment.Name(),
			"description":   treatment.Description(),
			"default_price": treatment.DefaultPrice(),
			"active":        treatment.Active(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update treatment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("treatment", treatment.ID())
	}
	return nil
}

var (
	_ clinical.PatientRepository   = (*GormPatientRepository)(nil)
	_ clinical.TreatmentRepository = (*GormTreatmentRepository)(nil)
)
