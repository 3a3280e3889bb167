package components

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AttributeKind enumerates the supported attribute coercions.
type AttributeKind string

const (
	AttributeString AttributeKind = "string"
	AttributeInt    AttributeKind = "int"
	AttributeBool   AttributeKind = "bool"
	AttributeURL    AttributeKind = "url"
)

// Attribute describes one attribute accepted by a component tag.
type Attribute struct {
	Name     string
	Kind     AttributeKind
	Required bool
	Default  any
	// Validate runs after coercion.
	Validate func(value any) error
}

// Definition describes a component tag such as <YouTube id="..."/>.
type Definition struct {
	// Name is the tag name as written in content. Matching is exact.
	Name        string
	Description string
	// AllowInner marks block components whose children are rendered as
	// Markdown and exposed to the template as .Inner.
	AllowInner bool
	Attributes []Attribute
	Template   string
}

var componentNamePattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)

// ValidateDefinition checks that def has a component style name, a template
// and well formed attributes.
func ValidateDefinition(def Definition) error {
	if !componentNamePattern.MatchString(def.Name) {
		return fmt.Errorf("%w: name %q must start with an uppercase letter", ErrInvalidDefinition, def.Name)
	}
	if strings.TrimSpace(def.Template) == "" {
		return fmt.Errorf("%w: %s has no template", ErrInvalidDefinition, def.Name)
	}
	seen := make(map[string]struct{}, len(def.Attributes))
	for _, attr := range def.Attributes {
		name := strings.TrimSpace(attr.Name)
		if name == "" {
			return fmt.Errorf("%w: %s attribute name required", ErrInvalidDefinition, def.Name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s duplicate attribute %q", ErrInvalidDefinition, def.Name, name)
		}
		seen[name] = struct{}{}
		switch attr.Kind {
		case AttributeString, AttributeInt, AttributeBool, AttributeURL:
		default:
			return fmt.Errorf("%w: %s attribute %q unknown kind %q", ErrInvalidDefinition, def.Name, name, attr.Kind)
		}
	}
	return nil
}

// CoerceAttributes validates supplied attributes against def and returns the
// values the template sees, defaults included.
func CoerceAttributes(def Definition, supplied map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(def.Attributes))
	allowed := make(map[string]Attribute, len(def.Attributes))
	for _, attr := range def.Attributes {
		allowed[attr.Name] = attr
		if attr.Default != nil {
			out[attr.Name] = attr.Default
		}
	}

	for key, raw := range supplied {
		attr, ok := allowed[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, def.Name, key)
		}
		value, err := coerce(attr.Kind, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s %v", ErrAttributeType, def.Name, key, err)
		}
		if attr.Validate != nil {
			if err := attr.Validate(value); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", def.Name, key, err)
			}
		}
		out[key] = value
	}

	for _, attr := range def.Attributes {
		if !attr.Required {
			continue
		}
		value, ok := out[attr.Name]
		if !ok || value == "" {
			return nil, fmt.Errorf("%w: %s.%s", ErrMissingAttribute, def.Name, attr.Name)
		}
	}
	return out, nil
}

func coerce(kind AttributeKind, raw string) (any, error) {
	switch kind {
	case AttributeString, AttributeURL:
		return strings.TrimSpace(raw), nil
	case AttributeInt:
		return strconv.Atoi(strings.TrimSpace(raw))
	case AttributeBool:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "", "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off":
			return false, nil
		default:
			return nil, fmt.Errorf("cannot convert %q to bool", raw)
		}
	default:
		return nil, fmt.Errorf("unsupported kind %q", kind)
	}
}
