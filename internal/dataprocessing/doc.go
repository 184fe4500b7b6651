// Package dataprocessing reads raw price inputs and prepares histories.
//
// # Inputs
//
// ParseWorkbook reads the legacy price workbook (one sheet per item, one
// column per year). LoadObservationsCSV reads long-format item,date,price
// files and LoadDailyIndex reads the official daily price index bulletins,
// mapping each commodity row to a workbook item with MapDailyIndexItem.
// LoadCleanedDir reads back the per-item, per-year CSV files written by the
// exporter.
//
// Cell text such as "₱1,250", "40 - 50" or "n/a" is handled by
// NormalizePrice.
//
// # Processing
//
// ForwardFillProcessor turns a sparse price history into a contiguous daily
// series, marking copied days as imputed:
//
//	history := dataprocessing.NewForwardFillProcessor().FillDaily(points)
package dataprocessing
