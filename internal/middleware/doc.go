// Package middleware provides the gin middleware of the EventUp API.
//
// # Available Middleware
//
//   - RequestID and Logger: request IDs and zap request logs
//   - Recovery: panics become a logged 500 Problem Details response
//   - Metrics: Prometheus request counters by route template
//   - Auth: Protect, OptionalAuth, Authorize, RequireCTV, RequireBTC and RequirePremium
//   - RateLimit: fixed window per client in the shared cache, local token bucket fallback
//   - Idempotency: replays the first response of a retried POST
//
// # Authentication
//
// Protect accepts a Bearer token or the token cookie set on login. After it
// runs, handlers read the caller with GetUser(c) or GetUserID(c).
//
//	api.Use(auth.Protect(), middleware.RequireBTC())
package middleware
