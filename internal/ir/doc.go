// Package ir provides the literal value layer shared by the backend AST,
// the SQL renderer and the execution store.
//
// Every literal that leaves the DSL (predicate values, function arguments,
// row values read back from SQLite) is converted into a sealed IRValue.
// The package imports nothing internal, so every other package may depend
// on it.
//
// Key design constraints:
//   - Floats are finite only and serialize with ES6 number formatting,
//     so a value hashes the same however it was produced
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only encoding
//     used for fingerprints
//   - IRNull exists for rows read back from the store; it is never emitted
//     as a predicate literal (IS NULL is its own backend node)
package ir
