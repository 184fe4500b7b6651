// Package http implements the read-only JSON API over a finished batch.
//
// Handlers only parse requests, call a service and render the result; every
// error goes through errors.ErrorHandler so clients always receive an
// APIError envelope. Successful list responses use
//
//	{"status": "success", "count": N, "data": [...]}
package http
