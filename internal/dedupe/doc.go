// Package dedupe finds supporters who appear to be the same person, flags
// the pair for staff triage, and applies the staff decision: dismiss the
// flag or merge the records.
package dedupe
