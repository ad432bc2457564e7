// Command canvass is the campaign supporter reconciliation CLI: it imports
// supporter sheets and voter-registry snapshots, flags duplicates, assigns
// precincts, and reconciles supporters against the registry.
package main
