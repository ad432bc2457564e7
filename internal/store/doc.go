// Package store manages campaign persistence backed by SQLite: supporters,
// villages and precincts, voter registry snapshots, import batches, and
// engagement history. Text comparisons that identity checks rely on use
// NOCASE collation, and autoincrement ids preserve insertion order for
// earliest-record tie-breaking.
package store
