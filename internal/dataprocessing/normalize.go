package dataprocessing

import (
	"math"
	"strconv"
	"strings"
)

// markers that stand for "no price" in workbook cells and bulletins
var nonNumericMarkers = map[string]struct{}{
	"":              {},
	"-":             {},
	"--":            {},
	"n/a":           {},
	"na":            {},
	"none":          {},
	"not available": {},
	"null":          {},
}

var priceReplacer = strings.NewReplacer(
	"–", "-",
	"—", "-",
	",", "",
	"₱", "",
	"php", "",
	" to ", "-",
)

// NormalizePrice converts a free-text price cell into a number. It accepts
// thousands separators, a peso sign and ranges such as "40-50" or
// "40 to 50", which are averaged. A signed number is returned as is, so
// callers that require positive prices reject negatives themselves. The
// second result is false when the cell holds no usable price.
func NormalizePrice(raw string) (float64, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := nonNumericMarkers[text]; ok {
		return 0, false
	}

	text = strings.TrimSpace(priceReplacer.Replace(text))
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return v, finite(v)
	}
	// a sign in front of a range is ambiguous
	if strings.HasPrefix(text, "-") || strings.HasPrefix(text, "+") {
		return 0, false
	}

	var sum float64
	var count int
	for _, part := range strings.Split(text, "-") {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasPrefix(part, "+") {
			return 0, false
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || !finite(v) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
