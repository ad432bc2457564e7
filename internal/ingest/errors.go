package ingest

import "errors"

var (
	// ErrUnsupportedFormat indicates a file extension the pipeline cannot read.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoHeader indicates no row in the sheet produced a usable column mapping.
	ErrNoHeader = errors.New("no header row found")
	// ErrTooManyRows indicates the sheet exceeds the hard data-row cap.
	ErrTooManyRows = errors.New("too many rows")
)
