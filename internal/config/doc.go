// Package config loads and validates the service group API configuration.
//
// Configuration comes from environment variables. A .env file in the working
// directory is loaded first when present; variables already set in the
// process environment win.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS, log level)
//   - DatabaseConfig: group store driver (surrealdb or sqlite) and its connection
//   - RedisConfig: guide assignment stream
//   - IdempotencyConfig: Idempotency-Key replay window
//   - RateLimitConfig: per-client request budget
//   - JobsConfig: background totals sync and the operator time zone
//
// # Environment Variables
//
//	SERVER_PORT              - HTTP server port (default: 8080)
//	SERVER_ENV               - development, production or test
//	SERVER_WRITE_TIMEOUT     - 0 (default) leaves event streams open
//	LOG_LEVEL                - debug, info, warn or error
//	DB_DRIVER                - surrealdb (default) or sqlite
//	DB_HOST, DB_PORT         - SurrealDB endpoint
//	DB_NAMESPACE, DB_DATABASE, DB_USER, DB_PASSWORD
//	SQLITE_PATH              - ledger file when DB_DRIVER=sqlite
//	REDIS_ENABLED            - publish guide assignments to Redis
//	REDIS_ADDR, REDIS_PASSWORD, REDIS_DB
//	REDIS_ASSIGNMENT_STREAM  - stream name (default: guide_assignments)
//	IDEMPOTENCY_TTL          - replay window (default: 24h)
//	RATE_LIMIT_PER_MINUTE    - requests per client per minute (default: 300)
//	TOTALS_SYNC_INTERVAL     - totals sync period (default: 5m)
//	SERVICE_TIMEZONE         - operator time zone (default: Europe/Rome)
package config
