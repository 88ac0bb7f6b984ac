package persistence

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel represents the products table
type ProductModel struct {
	ID     string `gorm:"column:id;primaryKey"`
	SKU    string `gorm:"column:sku;unique;not null"`
	Name   string `gorm:"column:name;not null"`
	Active bool   `gorm:"column:active;not null;default:true"`
}

func (ProductModel) TableName() string {
	return "products"
}

// StockLocationModel represents the stock_locations table
type StockLocationModel struct {
	ID     string `gorm:"column:id;primaryKey"`
	Code   string `gorm:"column:code;unique;not null"`
	Name   string `gorm:"column:name"`
	Active bool   `gorm:"column:active;not null;default:true"`
}

func (StockLocationModel) TableName() string {
	return "stock_locations"
}

// StockBatchModel represents the stock_batches table.
// A NULL expiry date means the batch never expires.
type StockBatchModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	ProductID   string     `gorm:"column:product_id;not null;uniqueIndex:idx_batch_product_number"`
	BatchNumber string     `gorm:"column:batch_number;not null;uniqueIndex:idx_batch_product_number"`
	ExpiryDate  *time.Time `gorm:"column:expiry_date;index"`
}

func (StockBatchModel) TableName() string {
	return "stock_batches"
}

// StockOnHandModel represents the stock_on_hand table.
// One row per (product, location, batch) triple; the quantity is the
// materialized sum of that triple's stock moves and never goes negative.
type StockOnHandModel struct {
	ProductID  string `gorm:"column:product_id;primaryKey"`
	LocationID string `gorm:"column:location_id;primaryKey"`
	BatchID    string `gorm:"column:batch_id;primaryKey"`
	Quantity   int    `gorm:"column:quantity;not null;default:0"`
}

func (StockOnHandModel) TableName() string {
	return "stock_on_hand"
}

// StockMoveModel represents the append-only stock_moves table.
// Seq is the storage-level insertion counter used to replay moves in
// creation order; MoveID is the opaque identifier the domain exposes.
// The unique index on reversed_move_id guarantees at most one reversal
// per SALE_OUT move.
type StockMoveModel struct {
	Seq            int64      `gorm:"column:seq;primaryKey;autoIncrement"`
	MoveID         string     `gorm:"column:move_id;unique;not null"`
	ProductID      string     `gorm:"column:product_id;not null;index:idx_move_product_location"`
	LocationID     string     `gorm:"column:location_id;not null;index:idx_move_product_location"`
	BatchID        string     `gorm:"column:batch_id;not null"`
	MoveType       string     `gorm:"column:move_type;not null"`
	Quantity       int        `gorm:"column:quantity;not null"`
	Reason         string     `gorm:"column:reason"`
	ReferenceType  string     `gorm:"column:reference_type"`
	ReferenceID    string     `gorm:"column:reference_id"`
	SaleID         *string    `gorm:"column:sale_id;index"`
	SaleLineID     *string    `gorm:"column:sale_line_id"`
	ReversedMoveID *string    `gorm:"column:reversed_move_id;uniqueIndex"`
	CreatedBy      string     `gorm:"column:created_by;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null"`
}

func (StockMoveModel) TableName() string {
	return "stock_moves"
}

// PatientModel represents the patients table
type PatientModel struct {
	ID                string     `gorm:"column:id;primaryKey"`
	FullName          string     `gorm:"column:full_name;not null"`
	DocumentID        string     `gorm:"column:document_id"`
	Email             string     `gorm:"column:email"`
	Phone             string     `gorm:"column:phone"`
	PrivacyAccepted   bool       `gorm:"column:privacy_accepted;not null;default:false"`
	PrivacyAcceptedAt *time.Time `gorm:"column:privacy_accepted_at"`
	TermsAccepted     bool       `gorm:"column:terms_accepted;not null;default:false"`
	TermsAcceptedAt   *time.Time `gorm:"column:terms_accepted_at"`
	RowVersion        int        `gorm:"column:row_version;not null;default:0"`
	CreatedAt         time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;not null"`
}

func (PatientModel) TableName() string {
	return "patients"
}

// TreatmentModel represents the treatments table
type TreatmentModel struct {
	ID           string           `gorm:"column:id;primaryKey"`
	Name         string           `gorm:"column:name;not null"`
	Description  string           `gorm:"column:description"`
	DefaultPrice *decimal.Decimal `gorm:"column:default_price;type:numeric"`
	Active       bool             `gorm:"column:active;not null;default:true"`
}

func (TreatmentModel) TableName() string {
	return "treatments"
}

// EncounterModel represents the encounters table
type EncounterModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	PatientID      string    `gorm:"column:patient_id;not null;index"`
	PractitionerID string    `gorm:"column:practitioner_id;not null;index"`
	Status         string    `gorm:"column:status;not null"`
	OccurredAt     time.Time `gorm:"column:occurred_at;not null"`
	Anamnesis      string    `gorm:"column:anamnesis;type:text"`
	Diagnosis      string    `gorm:"column:diagnosis;type:text"`
	Notes          string    `gorm:"column:notes;type:text"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (EncounterModel) TableName() string {
	return "encounters"
}

// EncounterTreatmentModel represents the encounter_treatments table.
// Position preserves the order treatments were recorded in.
type EncounterTreatmentModel struct {
	ID            string           `gorm:"column:id;primaryKey"`
	EncounterID   string           `gorm:"column:encounter_id;not null;index"`
	TreatmentID   string           `gorm:"column:treatment_id;not null"`
	TreatmentName string           `gorm:"column:treatment_name;not null"`
	Description   string           `gorm:"column:description"`
	Quantity      int              `gorm:"column:quantity;not null"`
	PriceOverride *decimal.Decimal `gorm:"column:price_override;type:numeric"`
	DefaultPrice  *decimal.Decimal `gorm:"column:default_price;type:numeric"`
	Notes         string           `gorm:"column:notes"`
	Position      int              `gorm:"column:position;not null;default:0"`
}

func (EncounterTreatmentModel) TableName() string {
	return "encounter_treatments"
}

// SaleModel represents the sales table
type SaleModel struct {
	ID            string          `gorm:"column:id;primaryKey"`
	PatientID     string          `gorm:"column:patient_id;not null;index"`
	LegalEntityID string          `gorm:"column:legal_entity_id;not null"`
	Status        string          `gorm:"column:status;not null"`
	SaleNumber    string          `gorm:"column:sale_number;unique;not null"`
	Currency      string          `gorm:"column:currency;not null"`
	Notes         string          `gorm:"column:notes"`
	PaidAt        *time.Time      `gorm:"column:paid_at"`
	RefundReason  *string         `gorm:"column:refund_reason"`
	RowVersion    int             `gorm:"column:row_version;not null;default:0"`
	CreatedBy     string          `gorm:"column:created_by;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;not null"`
	Lines         []SaleLineModel `gorm:"foreignKey:SaleID;references:ID"`
}

func (SaleModel) TableName() string {
	return "sales"
}

// SaleLineModel represents the sale_lines table.
// A NULL product reference marks a service line that never consumes stock.
type SaleLineModel struct {
	ID          string          `gorm:"column:id;primaryKey"`
	SaleID      string          `gorm:"column:sale_id;not null;index"`
	ProductID   *string         `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric;not null"`
	Position    int             `gorm:"column:position;not null;default:0"`
}

func (SaleLineModel) TableName() string {
	return "sale_lines"
}

// ChargeProposalModel represents the charge_proposals table.
// The unique index on encounter_id enforces one proposal per encounter;
// the unique index on converted_to_sale_id enforces that a sale is
// converted-to by at most one proposal.
type ChargeProposalModel struct {
	ID                 string                    `gorm:"column:id;primaryKey"`
	EncounterID        string                    `gorm:"column:encounter_id;uniqueIndex;not null"`
	PatientID          string                    `gorm:"column:patient_id;not null;index"`
	PractitionerID     string                    `gorm:"column:practitioner_id;not null"`
	Status             string                    `gorm:"column:status;not null"`
	Currency           string                    `gorm:"column:currency;not null"`
	Notes              string                    `gorm:"column:notes"`
	ConvertedToSaleID  *string                   `gorm:"column:converted_to_sale_id;uniqueIndex"`
	ConvertedAt        *time.Time                `gorm:"column:converted_at"`
	CancellationReason *string                   `gorm:"column:cancellation_reason"`
	TotalAmount        decimal.Decimal           `gorm:"column:total_amount;type:numeric;not null"`
	CreatedBy          string                    `gorm:"column:created_by;not null"`
	CreatedAt          time.Time                 `gorm:"column:created_at;not null"`
	UpdatedAt          time.Time                 `gorm:"column:updated_at;not null"`
	Lines              []ChargeProposalLineModel `gorm:"foreignKey:ProposalID;references:ID"`
}

func (ChargeProposalModel) TableName() string {
	return "charge_proposals"
}

// ChargeProposalLineModel represents the charge_proposal_lines table
type ChargeProposalLineModel struct {
	ID                   string          `gorm:"column:id;primaryKey"`
	ProposalID           string          `gorm:"column:proposal_id;not null;index"`
	EncounterTreatmentID string          `gorm:"column:encounter_treatment_id;not null"`
	TreatmentID          string          `gorm:"column:treatment_id;not null"`
	TreatmentName        string          `gorm:"column:treatment_name;not null"`
	Description          string          `gorm:"column:description"`
	Quantity             int             `gorm:"column:quantity;not null"`
	UnitPrice            decimal.Decimal `gorm:"column:unit_price;type:numeric;not null"`
	LineTotal            decimal.Decimal `gorm:"column:line_total;type:numeric;not null"`
	Position             int             `gorm:"column:position;not null;default:0"`
}

func (ChargeProposalLineModel) TableName() string {
	return "charge_proposal_lines"
}

// SaleNumberCounterModel represents the sale_number_counters table,
// one monotonic counter per numbering period (month)
type SaleNumberCounterModel struct {
	Period  string `gorm:"column:period;primaryKey"`
	Counter int    `gorm:"column:counter;not null;default:0"`
}

func (SaleNumberCounterModel) TableName() string {
	return "sale_number_counters"
}
