package zaplog

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-blog/internal/logging"
)

func TestProviderWritesNamedEntriesWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	provider := NewProviderFromLogger(zap.New(core))

	logger := logging.ModuleLogger(provider, logging.SearchModule)
	ctx := logging.ContextWithFields(context.Background(), map[string]any{"request_id": "abc"})
	logger.WithContext(ctx).Info("search.query.completed", "results", 3)
	logger.Trace("search.trace")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.LoggerName != logging.SearchModule {
		t.Fatalf("expected logger name %s, got %s", logging.SearchModule, first.LoggerName)
	}
	fields := first.ContextMap()
	if fields["module"] != logging.SearchModule {
		t.Fatalf("expected module field, got %v", fields)
	}
	if fields["request_id"] != "abc" {
		t.Fatalf("expected request_id from context, got %v", fields)
	}
	if fields["results"] != int64(3) {
		t.Fatalf("expected results field, got %#v", fields["results"])
	}
	if entries[1].Level != zapcore.DebugLevel {
		t.Fatalf("expected trace to map to debug, got %s", entries[1].Level)
	}
}

func TestNewProviderRejectsUnknownFormat(t *testing.T) {
	if _, err := NewProvider(Config{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewProviderHonoursLevel(t *testing.T) {
	provider, err := NewProvider(Config{Level: "warn", Format: "json"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if provider.root.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("expected info to be disabled at warn level")
	}
	_ = provider.Sync()
}
