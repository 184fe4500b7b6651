// Package exporter writes the outputs of a pipeline run.
//
// Cleaned series are written as one CSV per item and year below the clean
// directory, together with a reconciled workbook that has the same layout as
// the input workbook. Forecasts are written as one CSV per item plus a
// summary. The mobile app reads three JSON documents: monthly prices,
// forecasts and the most recent official prices.
//
// All files go through files.Manager and are replaced atomically.
package exporter
