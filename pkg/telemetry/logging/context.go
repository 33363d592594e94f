package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// SnapshotIDKey is the context key for snapshot IDs.
	SnapshotIDKey contextKey = "snapshot_id"

	// CategoryKey is the context key for metric category names.
	CategoryKey contextKey = "category"

	// OperationKey is the context key for the scheduled operation name.
	OperationKey contextKey = "operation"
)

// WithSnapshotID adds a snapshot ID to the context.
func WithSnapshotID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SnapshotIDKey, id)
}

// GetSnapshotID retrieves the snapshot ID from the context.
func GetSnapshotID(ctx context.Context) string {
	if id, ok := ctx.Value(SnapshotIDKey).(string); ok {
		return id
	}
	return ""
}

// WithCategory adds a metric category name to the context.
func WithCategory(ctx context.Context, category string) context.Context {
	return context.WithValue(ctx, CategoryKey, category)
}

// GetCategory retrieves the metric category name from the context.
func GetCategory(ctx context.Context) string {
	if category, ok := ctx.Value(CategoryKey).(string); ok {
		return category
	}
	return ""
}

// WithOperation adds a scheduled operation name to the context.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, OperationKey, op)
}

// GetOperation retrieves the scheduled operation name from the context.
func GetOperation(ctx context.Context) string {
	if op, ok := ctx.Value(OperationKey).(string); ok {
		return op
	}
	return ""
}

// extractContextFields extracts the known fields present in ctx.
func extractContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var fields []slog.Attr
	if id := GetSnapshotID(ctx); id != "" {
		fields = append(fields, slog.String(string(SnapshotIDKey), id))
	}
	if category := GetCategory(ctx); category != "" {
		fields = append(fields, slog.String(string(CategoryKey), category))
	}
	if op := GetOperation(ctx); op != "" {
		fields = append(fields, slog.String(string(OperationKey), op))
	}
	return fields
}
