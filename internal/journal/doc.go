// Package journal records checkpoint operations in a SQLite database that
// lives next to the checkpoints it describes.
//
// Every mutating operation (init, create, restore, delete) appends one row
// with its outcome. Read-only operations are never journaled.
package journal
