// Package ingest converts arbitrary tabular files from volunteers into staged
// supporter rows. Header position and column order are never assumed: a
// data-driven rule table detects the header row and claims columns in a fixed
// priority order, and every data row is normalized into a StagingRow carrying
// per-row issues for staff review. Nothing is stored until staff confirm a
// commit, which is atomic.
package ingest
