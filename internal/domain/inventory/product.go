package inventory

import (
	"strings"

	"github.com/google/uuid"

	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// Product is a stock-managed catalogue item. Clinical services are not
// products; they appear on sales as service lines without a product reference.
type Product struct {
	id     string
	sku    string
	name   string
	active bool
}

// NewProduct creates an active product with validation
func NewProduct(sku, name string) (*Product, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, shared.NewValidationError("sku", "sku cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("name", "name cannot be empty")
	}
	return &Product{
		id:     uuid.NewString(),
		sku:    sku,
		name:   name,
		active: true,
	}, nil
}

// ReconstructProduct rebuilds a product from persistence
func ReconstructProduct(id, sku, name string, active bool) *Product {
	return &Product{id: id, sku: sku, name: name, active: active}
}

func (p *Product) ID() string   { return p.id }
func (p *Product) SKU() string  { return p.sku }
func (p *Product) Name() string { return p.name }
func (p *Product) Active() bool { return p.active }

// Deactivate removes the product from sale without touching stock history
func (p *Product) Deactivate() { p.active = false }
