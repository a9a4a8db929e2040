// Package catalog provides a SQLite-backed catalog of runtime fields.
//
// The catalog is a concrete discovery source: Discoverer adapts it to
// runtimefield.ResolverFunc so a resolution session can pull fields that a
// previous process registered. Every request served that way is appended to
// a discovery log.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Field names are unique under SQLite's NOCASE collation, which folds ASCII
// letters only.
package catalog
