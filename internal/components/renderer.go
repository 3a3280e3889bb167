package components

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"sync"
)

// InnerRenderer converts the Markdown children of a block component into HTML.
type InnerRenderer func(ctx context.Context, markdown []byte) ([]byte, error)

// Renderer executes component templates and produces sanitized HTML.
type Renderer struct {
	registry  *Registry
	sanitizer *Sanitizer
	inner     InnerRenderer
	templates sync.Map
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithSanitizer overrides the default sanitizer.
func WithSanitizer(s *Sanitizer) RendererOption {
	return func(r *Renderer) {
		if s != nil {
			r.sanitizer = s
		}
	}
}

// WithInnerRenderer sets the Markdown renderer used for component children.
// Without one children are HTML escaped.
func WithInnerRenderer(inner InnerRenderer) RendererOption {
	return func(r *Renderer) {
		r.inner = inner
	}
}

// NewRenderer constructs a renderer over registry.
func NewRenderer(registry *Registry, opts ...RendererOption) *Renderer {
	r := &Renderer{
		registry:  registry,
		sanitizer: NewSanitizer(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	blankLines    = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
	preBlock      = regexp.MustCompile(`(?is)<pre[\s>].*?</pre>`)
	preBlankLines = regexp.MustCompile(`\n([ \t]*)\n`)
)

// Render executes the named component. The output never contains blank lines
// so Markdown treats it as a single HTML block. Blank lines inside <pre> keep
// their text as a &#10; reference.
func (r *Renderer) Render(ctx context.Context, name string, attrs map[string]string, inner string) (string, error) {
	def, ok := r.registry.Get(name)
	if !ok {
		return "", fmt.Errorf("components: unknown %s", name)
	}
	if err := r.sanitizer.ValidateAttributes(attrs); err != nil {
		return "", err
	}

	values, err := CoerceAttributes(def, attrs)
	if err != nil {
		return "", err
	}
	for _, attr := range def.Attributes {
		if attr.Kind != AttributeURL {
			continue
		}
		if raw, ok := values[attr.Name].(string); ok {
			if err := r.sanitizer.ValidateURL(raw); err != nil {
				return "", fmt.Errorf("%s.%s: %w", name, attr.Name, err)
			}
		}
	}

	data := make(map[string]any, len(values)+1)
	for key, value := range values {
		data[key] = value
	}
	if def.AllowInner {
		innerHTML, err := r.renderInner(ctx, inner)
		if err != nil {
			return "", err
		}
		data["Inner"] = innerHTML
	}

	tmpl, err := r.template(def)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("components: render %s: %w", name, err)
	}

	output, err := r.sanitizer.Sanitize(buf.String())
	if err != nil {
		return "", err
	}
	return collapseBlankLines(output), nil
}

func collapseBlankLines(output string) string {
	var (
		out      strings.Builder
		position int
	)
	for _, loc := range preBlock.FindAllStringIndex(output, -1) {
		out.WriteString(blankLines.ReplaceAllString(output[position:loc[0]], "\n"))
		out.WriteString(encodePreBlankLines(output[loc[0]:loc[1]]))
		position = loc[1]
	}
	out.WriteString(blankLines.ReplaceAllString(output[position:], "\n"))
	return out.String()
}

func encodePreBlankLines(pre string) string {
	for preBlankLines.MatchString(pre) {
		pre = preBlankLines.ReplaceAllString(pre, "\n$1&#10;")
	}
	return pre
}

func (r *Renderer) renderInner(ctx context.Context, inner string) (template.HTML, error) {
	if r.inner == nil {
		return template.HTML(template.HTMLEscapeString(inner)), nil
	}
	rendered, err := r.inner(ctx, []byte(inner))
	if err != nil {
		return "", fmt.Errorf("components: render children: %w", err)
	}
	return template.HTML(bytes.TrimSpace(rendered)), nil
}

func (r *Renderer) template(def Definition) (*template.Template, error) {
	if cached, ok := r.templates.Load(def.Name); ok {
		return cached.(*template.Template), nil
	}
	tmpl, err := template.New(def.Name).Parse(def.Template)
	if err != nil {
		return nil, fmt.Errorf("%w: %s template: %v", ErrInvalidDefinition, def.Name, err)
	}
	actual, _ := r.templates.LoadOrStore(def.Name, tmpl)
	return actual.(*template.Template), nil
}
