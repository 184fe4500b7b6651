package exporter

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// round2 rounds half away from zero to two decimal places
func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// formatPrice formats a price with exactly 2 decimal places, empty when unknown
func formatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return decimal.NewFromFloat(*p).StringFixed(2)
}

// formatFloat formats a value with exactly 2 decimal places
func formatFloat(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}

// formatMetric formats an optional error metric, empty when it could not be evaluated
func formatMetric(m *float64) string {
	if m == nil {
		return ""
	}
	return strconv.FormatFloat(*m, 'f', 4, 64)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
