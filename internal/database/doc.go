// Package database owns the SQLite connection and schema migration for the
// sync core. Entity-specific operations live in the per-entity repository
// subpackages (projects, syncprogress, monthly, synclog).
package database
