package zaplog

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Config selects the zap encoder and level.
type Config struct {
	Level string
	// Format is "json" (production encoder) or "console" (development encoder).
	Format    string
	AddSource bool
}

// Provider hands out named zap loggers adapted to interfaces.Logger.
type Provider struct {
	root *zap.Logger
}

// NewProvider builds a zap logger from cfg.
func NewProvider(cfg Config) (*Provider, error) {
	var zcfg zap.Config
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		zcfg = zap.NewProductionConfig()
	case "console", "pretty":
		zcfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("logging: unsupported zap format %q", cfg.Format)
	}

	if level, ok := parseLevel(cfg.Level); ok {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	zcfg.DisableCaller = !cfg.AddSource

	root, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return &Provider{root: root}, nil
}

// NewProviderFromLogger adapts an existing zap logger.
func NewProviderFromLogger(root *zap.Logger) *Provider {
	return &Provider{root: root}
}

// GetLogger returns a child logger named after the module.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	logger := p.root
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		logger = logger.Named(trimmed)
	}
	return &adapter{sugar: logger.Sugar()}
}

// Sync flushes buffered entries.
func (p *Provider) Sync() error {
	if p == nil || p.root == nil {
		return nil
	}
	return p.root.Sync()
}

type adapter struct {
	sugar *zap.SugaredLogger
}

var (
	_ interfaces.Logger       = (*adapter)(nil)
	_ interfaces.FieldsLogger = (*adapter)(nil)
)

// zap has no trace level; trace entries are emitted at debug.
func (l *adapter) Trace(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *adapter) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *adapter) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *adapter) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *adapter) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
func (l *adapter) Fatal(msg string, args ...any) { l.sugar.Fatalw(msg, args...) }

func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	return &adapter{sugar: l.sugar.With(sortedPairs(fields)...)}
}

func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	fields := logging.ContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return &adapter{sugar: l.sugar.With(sortedPairs(fields)...)}
}

func sortedPairs(fields map[string]any) []any {
	keys := slices.Sorted(maps.Keys(fields))
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func parseLevel(level string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	case "fatal":
		return zapcore.FatalLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}
