// Package services implements the read side served over HTTP.
//
// PriceService answers item, series and forecast queries against the batch
// produced at start-up. Forecasts are computed on demand and cached per item.
// HealthService reports liveness, readiness and version information.
package services
