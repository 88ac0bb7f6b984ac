package inventory

import (
	"strings"

	"github.com/google/uuid"

	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// StockLocation is a physical place stock lives in (warehouse, treatment room
// cabinet). Locations are referenced by a unique human-readable code.
type StockLocation struct {
	id     string
	code   string
	name   string
	active bool
}

// NewStockLocation creates an active location with validation
func NewStockLocation(code, name string) (*StockLocation, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewValidationError("code", "code cannot be empty")
	}
	return &StockLocation{
		id:     uuid.NewString(),
		code:   strings.ToUpper(strings.TrimSpace(code)),
		name:   name,
		active: true,
	}, nil
}

// ReconstructStockLocation rebuilds a location from persistence
func ReconstructStockLocation(id, code, name string, active bool) *StockLocation {
	return &StockLocation{id: id, code: code, name: name, active: active}
}

func (l *StockLocation) ID() string   { return l.id }
func (l *StockLocation) Code() string { return l.code }
func (l *StockLocation) Name() string { return l.name }
func (l *StockLocation) Active() bool { return l.active }

func (l *StockLocation) Deactivate() { l.active = false }
