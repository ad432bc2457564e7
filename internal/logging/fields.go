package logging

import "log/slog"

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSupporterID is the standardized structured logging key for supporter identifiers.
	FieldSupporterID = "supporter_id"
	// FieldBatch is the standardized structured logging key for import batch tokens.
	FieldBatch = "batch"
	// FieldFile is the standardized structured logging key for source file names.
	FieldFile = "file"
)

// WithComponent tags a logger with the component emitting its lines.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}
