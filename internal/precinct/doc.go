// Package precinct maps supporters onto voting precincts using the
// alphabetic surname sub-ranges each precinct declares.
package precinct
