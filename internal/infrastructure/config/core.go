package config

// CoreConfig holds the behavioural settings of the transactional core
type CoreConfig struct {
	// Location code stock is consumed from when a sale is paid
	DefaultStockLocationCode string `mapstructure:"default_stock_location_code" validate:"required"`

	// ISO 4217 currency code stamped on sales and proposals
	DefaultCurrency string `mapstructure:"default_currency" validate:"required,len=3"`

	// Permit refunds to restore stock to batches that expired since the sale
	AllowExpiredOnRefund bool `mapstructure:"allow_expired_on_refund"`

	// Sale number template; %Y and %m expand to the numbering period,
	// the final verb formats the per-period counter
	SaleNumberFormat string `mapstructure:"sale_number_format" validate:"required"`

	// Automatic retries on optimistic concurrency conflicts (0 = surface
	// the conflict to the caller)
	OptimisticRetryLimit int `mapstructure:"optimistic_retry_limit" validate:"min=0"`
}
