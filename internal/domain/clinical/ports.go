package clinical

import "context"

// PatientRepository persists patients with optimistic concurrency on writes
type PatientRepository interface {
	Create(ctx context.Context, patient *Patient) error
	FindByID(ctx context.Context, id string) (*Patient, error)
	Update(ctx context.Context, patient *Patient, expectedRowVersion int) error
}

// TreatmentRepository persists the treatment catalogue
type TreatmentRepository interface {
	Create(ctx context.Context, treatment *Treatment) error
	FindByID(ctx context.Context, id string) (*Treatment, error)
	Update(ctx context.Context, treatment *Treatment) error
}

// EncounterRepository persists encounters together with their treatments
type EncounterRepository interface {
	Create(ctx context.Context, encounter *Encounter) error
	FindByID(ctx context.Context, id string) (*Encounter, error)
	Update(ctx context.Context, encounter *Encounter) error
}
