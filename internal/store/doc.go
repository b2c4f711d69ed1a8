// Package store executes rendered SQL against SQLite.
//
// It backs the CLI run command and the end-to-end tests: a Store opens
// (or creates) a database file, can load the embedded people/articles/
// comments/notes sample fixture, and reads result rows into IR values.
//
//	s, err := store.Open("sample.db")
//	if err != nil { ... }
//	defer s.Close()
//	_ = s.LoadSample(ctx)
//	res, err := s.Query(ctx, sql, params...)
//
// Each execution can be appended to the run log (RecordRun). Runs are
// ordered by a sequence number, never by wall time.
//
// # Connection settings
//
//   - journal_mode=WAL
//   - synchronous=NORMAL
//   - busy_timeout=5000 (milliseconds)
//   - foreign_keys=ON
package store
