// Package persist saves and restores named reactive values in SQLite.
//
// Values are stored as JSON using the reactive.Value codec, so opaque
// references cannot be persisted. Each save creates a new snapshot with a
// time-ordered id; loads and restores use the newest one.
package persist
