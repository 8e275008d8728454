// Package storage owns the canonical relation. It opens the SQLite file
// through the pure Go modernc.org/sqlite driver and replaces the relation
// wholesale inside a single transaction, so readers see either the previous
// snapshot or the new one.
package storage
