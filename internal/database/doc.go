// Package database provides storage connectivity for the service group engine.
//
// Two backends are supported:
//
//   - SurrealDB, through the Database interface (Query, QueryOne, Execute) and
//     batch transactions built with TxBuilder or AtomicBatch.
//   - SQLite, through database/sql and the pure Go modernc.org/sqlite driver,
//     opened with OpenSQLite.
//
// # Transactions
//
// SurrealDB transactions are batch based. Statements accumulate in memory and
// are sent as one BEGIN TRANSACTION / COMMIT TRANSACTION block, so they
// succeed or fail together:
//
//	batch := database.NewAtomicBatch()
//	batch.Add("CREATE service_group:$gid CONTENT $group", vars1)
//	batch.Add("CREATE service_group_member CONTENT $member", vars2)
//	err := batch.Execute(ctx, db)
//
// # Error Types
//
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique constraint or unique index violation
//   - ErrConnection: Database connection failed
//   - ErrQuery: Query execution failed
//
// Both backends map their unique violations onto ErrDuplicate, so callers
// check with errors.Is regardless of the driver in use.
package database
