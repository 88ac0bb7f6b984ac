package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oriolvila/clinicore-go/internal/domain/billing"
)

func TestFormatSaleNumber_Default(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "S-202608-00042", billing.FormatSaleNumber("", now, 42))
	assert.Equal(t, "S-202608-00001", billing.FormatSaleNumber(billing.DefaultSaleNumberFormat, now, 1))
}

func TestFormatSaleNumber_CustomTemplate(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "INV/2026/01/7", billing.FormatSaleNumber("INV/%Y/%m/%d", now, 7))
}

func TestSaleNumberPeriod(t *testing.T) {
	assert.Equal(t, "202608", billing.SaleNumberPeriod(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "202601", billing.SaleNumberPeriod(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}
