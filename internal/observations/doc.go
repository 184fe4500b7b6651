// Package observations holds the raw (item, date, price) points that feed the
// imputation pipeline.
//
// A Store keeps at most one observation per (item, date); repeated prices for
// the same day are averaged on ingest. It also remembers which (item, year)
// series were declared by an input source even when they contain no prices,
// so that empty years are still reported downstream.
//
// The store is filled once and then only read. Concurrent reads are safe,
// concurrent writes are not.
package observations
