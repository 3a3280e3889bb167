package components

import "errors"

var (
	// ErrDuplicateDefinition indicates an attempt to register a component name twice.
	ErrDuplicateDefinition = errors.New("components: duplicate definition")
	// ErrInvalidDefinition occurs when a definition is missing a name, a template or has bad attributes.
	ErrInvalidDefinition = errors.New("components: invalid definition")
	// ErrUnknownAttribute indicates the tag carried an attribute the definition does not declare.
	ErrUnknownAttribute = errors.New("components: unknown attribute")
	// ErrMissingAttribute indicates a required attribute was not provided.
	ErrMissingAttribute = errors.New("components: missing required attribute")
	// ErrAttributeType indicates an attribute could not be coerced to its declared kind.
	ErrAttributeType = errors.New("components: attribute type mismatch")
	// ErrUnsafeContent is returned by the sanitizer when output or input is rejected.
	ErrUnsafeContent = errors.New("components: unsafe content")
)
