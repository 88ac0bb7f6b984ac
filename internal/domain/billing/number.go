package billing

import (
	"fmt"
	"strings"
	"time"
)

// DefaultSaleNumberFormat yields numbers like S-202608-00042.
const DefaultSaleNumberFormat = "S-%Y%m-%05d"

// FormatSaleNumber renders a human-readable sale number from a template.
// %Y and %m expand to the year and zero-padded month; the remaining template
// must contain exactly one integer verb for the per-period sequence.
func FormatSaleNumber(format string, now time.Time, sequence int) string {
	if format == "" {
		format = DefaultSaleNumberFormat
	}
	expanded := strings.ReplaceAll(format, "%Y", fmt.Sprintf("%04d", now.Year()))
	expanded = strings.ReplaceAll(expanded, "%m", fmt.Sprintf("%02d", int(now.Month())))
	return fmt.Sprintf(expanded, sequence)
}

// SaleNumberPeriod returns the counter period key for a point in time
func SaleNumberPeriod(now time.Time) string {
	return now.Format("200601")
}
