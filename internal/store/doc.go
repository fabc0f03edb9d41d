// Package store provides the SQLite-backed Result Record Store.
//
// One database file holds the scenario rows of one suite execution. The file
// is named after the current date:
//
//	<dir>/AutomationTestRun2024.03.09.db
//
// and contains a single data table with the fixed columns
//
//	description, status, testCaseIds, featureFile, executionTimeSeconds
//
// # Access Pattern
//
//   - Initialize creates (or recreates) the file once per suite run
//   - AppendRow is called once per finished scenario, possibly from many goroutines
//   - ReadAll is called once, during finalization
//
// The database is opened and closed inside every operation; no handle is held
// between calls. Appends within a process are serialized by a mutex owned by the
// Store and held for the whole open/insert/close. Appends from other processes
// are serialized by SQLite itself (WAL, busy_timeout).
//
// # Ordering
//
// Rows are read back in append order (seq ASC). Append order across concurrent
// scenarios is unspecified; each row is written atomically.
package store
