package components

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Expander rewrites component tags in Markdown into HTML ahead of Markdown
// rendering. It implements interfaces.ComponentExpander.
type Expander struct {
	registry *Registry
	parser   *Parser
	renderer *Renderer
	logger   interfaces.Logger
}

var _ interfaces.ComponentExpander = (*Expander)(nil)

// ExpanderOption customises an Expander.
type ExpanderOption func(*expanderConfig)

type expanderConfig struct {
	registry *Registry
	logger   interfaces.Logger
	renderer []RendererOption
}

// WithRegistry replaces the built-in registry.
func WithRegistry(registry *Registry) ExpanderOption {
	return func(cfg *expanderConfig) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithLogger attaches a logger for rejected or malformed components.
func WithLogger(logger interfaces.Logger) ExpanderOption {
	return func(cfg *expanderConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithRendererOptions forwards options to the underlying Renderer.
func WithRendererOptions(opts ...RendererOption) ExpanderOption {
	return func(cfg *expanderConfig) {
		cfg.renderer = append(cfg.renderer, opts...)
	}
}

// NewExpander constructs an expander over the built-in components unless a
// registry is supplied.
func NewExpander(opts ...ExpanderOption) *Expander {
	cfg := expanderConfig{logger: logging.NoOp()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = NewBuiltInRegistry()
	}
	return &Expander{
		registry: cfg.registry,
		parser:   NewParser(cfg.registry.Has),
		renderer: NewRenderer(cfg.registry, cfg.renderer...),
		logger:   cfg.logger,
	}
}

// Registry exposes the component registry.
func (e *Expander) Registry() *Registry {
	return e.registry
}

// Expand replaces known component tags with their HTML. Malformed nesting
// leaves the source unchanged. A component that fails validation renders as
// an HTML comment so the rest of the post still renders.
func (e *Expander) Expand(ctx context.Context, source []byte) ([]byte, error) {
	if !bytes.Contains(source, []byte("<")) {
		return source, nil
	}

	logger := logging.WithOperation(e.logger.WithContext(ctx), "components.expand")

	transformed, parsed, err := e.parser.Extract(string(source))
	if err != nil {
		logger.Warn("components.expand.parse_failed", "error", err)
		return source, nil
	}
	if len(parsed) == 0 {
		return source, nil
	}

	rendered := make([]string, len(parsed))
	for idx, component := range parsed {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		inner := substitute(component.Inner, rendered[:idx])
		output, err := e.renderer.Render(ctx, component.Name, component.Attrs, inner)
		if err != nil {
			logging.WithFields(logger, map[string]any{
				"component": component.Name,
				"index":     idx,
				"error":     err,
			}).Warn("components.render.rejected")
			output = fmt.Sprintf("<!-- %s component rejected -->", component.Name)
		}
		rendered[idx] = output
	}

	logger.Debug("components.expand.completed", "components", len(parsed))
	return []byte(substitute(transformed, rendered)), nil
}

func substitute(content string, rendered []string) string {
	if !strings.Contains(content, "<!--component:") {
		return content
	}
	pairs := make([]string, 0, len(rendered)*2)
	for idx, html := range rendered {
		pairs = append(pairs, fmt.Sprintf(placeholderFormat, idx), html)
	}
	return strings.NewReplacer(pairs...).Replace(content)
}
