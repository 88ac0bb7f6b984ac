package clinical

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// Treatment is a billable clinical service from the catalogue. A nil default
// price marks a treatment that is not billable until priced explicitly on the
// encounter.
type Treatment struct {
	id           string
	name         string
	description  string
	defaultPrice *decimal.Decimal
	active       bool
}

// NewTreatment creates an active treatment with validation
func NewTreatment(name, description string, defaultPrice *decimal.Decimal) (*Treatment, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("name", "name cannot be empty")
	}
	if defaultPrice != nil && defaultPrice.IsNegative() {
		return nil, shared.NewValidationError("default_price", "default_price cannot be negative")
	}
	return &Treatment{
		id:           uuid.NewString(),
		name:         name,
		description:  description,
		defaultPrice: defaultPrice,
		active:       true,
	}, nil
}

// ReconstructTreatment rebuilds a treatment from persistence
func ReconstructTreatment(id, name, description string, defaultPrice *decimal.Decimal, active bool) *Treatment {
	return &Treatment{id: id, name: name, description: description, defaultPrice: defaultPrice, active: active}
}

func (t *Treatment) ID() string                     { return t.id }
func (t *Treatment) Name() string                   { return t.name }
func (t *Treatment) Description() string            { return t.description }
func (t *Treatment) DefaultPrice() *decimal.Decimal { return t.defaultPrice }
func (t *Treatment) Active() bool                   { return t.active }

// SetDefaultPrice changes the catalogue price. Existing proposal lines keep
// their snapshotted price.
func (t *Treatment) SetDefaultPrice(price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return shared.NewValidationError("default_price", "default_price cannot be negative")
	}
	t.defaultPrice = price
	return nil
}

func (t *Treatment) Deactivate() { t.active = false }
