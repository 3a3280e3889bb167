package logging

import (
	"maps"
	"strings"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// WithFields attaches structured fields to a logger when the implementation
// supports the optional FieldsLogger extension.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(maps.Clone(fields))
	}

	return logger
}

// WithPostContext enriches logger with the post slug and source path. Empty
// values are ignored.
func WithPostContext(logger interfaces.Logger, slug, path string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(slug); trimmed != "" {
		fields[fieldPostSlug] = trimmed
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldPostPath] = trimmed
	}
	return WithFields(logger, fields)
}

// WithOperation tags logger with the operation name used by command handlers
// and batch jobs.
func WithOperation(logger interfaces.Logger, operation string) interfaces.Logger {
	if strings.TrimSpace(operation) == "" {
		return logger
	}
	return WithFields(logger, map[string]any{fieldOperation: operation})
}
