package clinical

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// Consents records the privacy and terms acceptances of a patient
type Consents struct {
	PrivacyAccepted   bool
	PrivacyAcceptedAt *time.Time
	TermsAccepted     bool
	TermsAcceptedAt   *time.Time
}

// Patient is a person receiving care. Writes are row-versioned.
type Patient struct {
	id         string
	fullName   string
	documentID string
	email      string
	phone      string
	consents   Consents
	rowVersion int
	createdAt  time.Time
	updatedAt  time.Time
}

// NewPatient registers a patient with validation
func NewPatient(fullName, documentID, email, phone string, now time.Time) (*Patient, error) {
	if strings.TrimSpace(fullName) == "" {
		return nil, shared.NewValidationError("full_name", "full_name cannot be empty")
	}
	return &Patient{
		id:         uuid.NewString(),
		fullName:   fullName,
		documentID: documentID,
		email:      email,
		phone:      phone,
		rowVersion: 0,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructPatient rebuilds a patient from persistence
func ReconstructPatient(id, fullName, documentID, email, phone string, consents Consents, rowVersion int, createdAt, updatedAt time.Time) *Patient {
	return &Patient{
		id:         id,
		fullName:   fullName,
		documentID: documentID,
		email:      email,
		phone:      phone,
		consents:   consents,
		rowVersion: rowVersion,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (p *Patient) ID() string           { return p.id }
func (p *Patient) FullName() string     { return p.fullName }
func (p *Patient) DocumentID() string   { return p.documentID }
func (p *Patient) Email() string        { return p.email }
func (p *Patient) Phone() string        { return p.phone }
func (p *Patient) Consents() Consents   { return p.consents }
func (p *Patient) RowVersion() int      { return p.rowVersion }
func (p *Patient) CreatedAt() time.Time { return p.createdAt }
func (p *Patient) UpdatedAt() time.Time { return p.updatedAt }

// AcceptPrivacy records the privacy consent with its timestamp
func (p *Patient) AcceptPrivacy(now time.Time) {
	p.consents.PrivacyAccepted = true
	p.consents.PrivacyAcceptedAt = &now
	p.updatedAt = now
}

// AcceptTerms records the terms consent with its timestamp
func (p *Patient) AcceptTerms(now time.Time) {
	p.consents.TermsAccepted = true
	p.consents.TermsAcceptedAt = &now
	p.updatedAt = now
}

// BumpRowVersion increments the optimistic concurrency counter after a
// successful conditional write
func (p *Patient) BumpRowVersion() {
	p.rowVersion++
}
