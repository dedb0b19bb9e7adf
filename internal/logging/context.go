package logging

import (
	"context"
	"log/slog"

	"fotoprotokoll/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized structured logging key for pipeline stage IDs.
	FieldStage = "stage"
	// FieldPhotoID is the standardized structured logging key for photo identifiers.
	FieldPhotoID = "photo_id"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType tags log lines with a machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint carries a suggested next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldInputHash is the standardized structured logging key for stage input digests.
	FieldInputHash = "input_hash"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if id, ok := services.PhotoIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPhotoID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
