// Package registry loads voter-roll snapshots and reconciles supporters
// against them, assigning each one a verification outcome with a confidence
// tier.
package registry
