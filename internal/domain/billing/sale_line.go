package billing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// SaleLine is one item on a sale. A nil product reference marks a service
// line: it is billed but never consumes stock.
type SaleLine struct {
	id          string
	saleID      string
	productID   *string
	productName string
	quantity    int
	unitPrice   decimal.Decimal
}

// NewSaleLine creates a line with validation. productID is nil for services.
func NewSaleLine(saleID string, productID *string, productName string, quantity int, unitPrice decimal.Decimal) (*SaleLine, error) {
	if strings.TrimSpace(productName) == "" {
		return nil, shared.NewValidationError("product_name", "product_name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("unit_price", "unit_price cannot be negative")
	}
	return &SaleLine{
		id:          uuid.NewString(),
		saleID:      saleID,
		productID:   productID,
		productName: productName,
		quantity:    quantity,
		unitPrice:   unitPrice,
	}, nil
}

// ReconstructSaleLine rebuilds a line from persistence
func ReconstructSaleLine(id, saleID string, productID *string, productName string, quantity int, unitPrice decimal.Decimal) *SaleLine {
	return &SaleLine{id: id, saleID: saleID, productID: productID, productName: productName, quantity: quantity, unitPrice: unitPrice}
}

func (l *SaleLine) ID() string                 { return l.id }
func (l *SaleLine) SaleID() string             { return l.saleID }
func (l *SaleLine) ProductID() *string         { return l.productID }
func (l *SaleLine) ProductName() string        { return l.productName }
func (l *SaleLine) Quantity() int              { return l.quantity }
func (l *SaleLine) UnitPrice() decimal.Decimal { return l.unitPrice }

// IsService reports whether the line bills a service rather than a product
func (l *SaleLine) IsService() bool {
	return l.productID == nil
}

// Total returns quantity × unit price
func (l *SaleLine) Total() decimal.Decimal {
	return l.unitPrice.Mul(decimal.NewFromInt(int64(l.quantity)))
}
