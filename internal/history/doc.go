// Package history records one row per render run in a SQLite ledger so past
// runs, their parameters, and their outcomes can be listed later.
//
// The store follows the same conventions as the rest of the repository's
// persistence code: an embedded schema with a version check, WAL mode, and a
// short retry loop around SQLITE_BUSY.
package history
