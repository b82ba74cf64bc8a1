// Package handler provides the gin HTTP handlers of the EventUp API.
//
// Each handler struct wraps the narrow service interface it needs, declared
// next to it, so tests can swap in func-field mocks.
//
// # Response Format
//
//   - WriteData / WriteMessage: {success, message?, data}
//   - WriteCollection: {success, count, total, page, pages, data}
//   - WriteError: RFC 9457 Problem Details with success=false
//
// Service errors go through MapServiceError; anything it does not know is
// logged with the request ID and answered with a 500.
//
// # Validation
//
// Request bodies are bound with gin's go-playground/validator engine.
// RegisterValidators must run once before the router serves traffic; it adds
// the role, gender, eventtype and paymethod tags.
//
// # Routing
//
// NewRouter mounts every handler under /api together with request IDs,
// zap access logs, panic recovery, optional OpenTelemetry spans, CORS,
// Prometheus metrics and rate limiting.
package handler
