package services

import (
	"fmt"

	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
)

// ErrItemNotFound is returned for an item without a series
func ErrItemNotFound(item string) *apperrors.AppError {
	return apperrors.NewNotFoundError(fmt.Sprintf("item %q", item)).WithContext("item", item)
}

// ErrYearNotFound is returned when an item has no series for year
func ErrYearNotFound(item string, year int) *apperrors.AppError {
	return apperrors.NewNotFoundError(fmt.Sprintf("year %d of item %q", year, item)).
		WithContext("item", item).
		WithContext("year", year)
}
