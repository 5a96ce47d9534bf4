// Package middleware provides HTTP middleware for the service group API.
//
// # Available Middleware
//
//   - RequestID: assigns or propagates X-Request-ID
//   - Logger: structured request logging with slog
//   - Recovery: converts panics into a 500 Problem Details response
//   - CORS: origin allow-list for the dashboard
//   - RateLimit: per-client token bucket, event streams exempt
//   - Idempotency: replays POST responses for a repeated Idempotency-Key
//   - Compress: gzip for everything except event streams
//
// # Ordering
//
//	handler := middleware.Chain(mux,
//	    middleware.RequestID,
//	    middleware.Logger,
//	    middleware.Recovery,
//	    middleware.CORS(origins),
//	    middleware.RateLimit(limiter),
//	    middleware.Idempotency(store),
//	    middleware.Compress,
//	)
package middleware
