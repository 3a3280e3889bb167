package logging

import (
	"context"
	"maps"
)

type contextKey string

const contextFieldsKey contextKey = "blog.logging.fields"

// ContextWithFields returns a context carrying structured logging fields.
// Fields already on the context are kept; new values win on key collisions.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, contextFieldsKey, merged)
}

// ContextFields extracts the logging fields annotated on ctx. The returned map
// is a copy.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, ok := ctx.Value(contextFieldsKey).(map[string]any)
	if !ok || len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}

// RequestFields is a shorthand for the fields the HTTP layer attaches to each
// request context.
func RequestFields(ctx context.Context, requestID, method, path string) context.Context {
	fields := map[string]any{}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	if method != "" {
		fields["method"] = method
	}
	if path != "" {
		fields["path"] = path
	}
	return ContextWithFields(ctx, fields)
}
