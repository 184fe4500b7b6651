package observations

import (
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
)

var yearPattern = regexp.MustCompile(`(?:^|[^0-9])([0-9]{4})(?:[^0-9]|$)`)

// CoerceYear resolves a grouping label such as "2024", "Year 2024" or
// "2024_prices" into a calendar year.
func CoerceYear(label string) (int, error) {
	s := strings.TrimSpace(label)
	// Spreadsheet numbers often arrive as "2024.0"
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		if y := int(f); y >= 1000 && y <= 9999 {
			return y, nil
		}
	}

	m := yearPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, apperrors.NewDataError("no 4-digit year in grouping key", nil).
			WithContext("label", label)
	}
	y, _ := strconv.Atoi(m[1])
	if y < 1000 {
		return 0, apperrors.NewDataError("year out of range", nil).WithContext("label", label)
	}
	return y, nil
}
