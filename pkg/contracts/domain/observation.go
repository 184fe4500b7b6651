package domain

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date layout used across inputs and exports
const DateLayout = "2006-01-02"

// Observation is a single raw price point for an item on a calendar date
type Observation struct {
	Item  string    `json:"item" validate:"required"`
	Date  time.Time `json:"date" validate:"required"`
	Price float64   `json:"price" validate:"gt=0"`
}

// Key returns the (item, date) identity of the observation
func (o Observation) Key() PointKey {
	return PointKey{Item: o.Item, Date: o.Date.Format(DateLayout)}
}

// PointKey identifies a daily value of one item
type PointKey struct {
	Item string
	Date string
}

// SeriesKey groups observations into one item-year series
type SeriesKey struct {
	Item string `json:"item"`
	Year int    `json:"year"`
}

// String returns a log friendly form of the key
func (k SeriesKey) String() string {
	return fmt.Sprintf("%s/%d", k.Item, k.Year)
}

// Day truncates t to UTC midnight of its calendar date
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date into UTC midnight
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// IsLeapYear reports whether year has 366 days
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns 365 or 366
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}
