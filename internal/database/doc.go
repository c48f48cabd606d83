// Package database provides SQLite-based storage for streamscan.
//
// This package implements the StreamDB, which stores:
//   - Scan sessions with batch counters
//   - Stream sightings linking URLs to the sessions that found them
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// The JSON documents remain the monitor's working state; the database is
// the durable record for querying how streams behaved across scans.
package database
