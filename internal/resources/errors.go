package resources

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// CodeInvalidResources is the text code carried by invalid document errors.
const CodeInvalidResources = "INVALID_RESOURCES"

var (
	// ErrCategoryNotFound is returned when no resource category matches a slug.
	ErrCategoryNotFound = errors.New("resources: category not found")
	// ErrInvalidDocument wraps schema and slug failures raised by Load.
	ErrInvalidDocument = errors.New("resources: invalid document")
	// ErrDocumentMissing is returned when the resources file does not exist.
	ErrDocumentMissing = errors.New("resources: document missing")
)

func invalidDocument(cause error) error {
	return goerrors.Wrap(fmt.Errorf("%w: %w", ErrInvalidDocument, cause), goerrors.CategoryValidation, "resources document is invalid").
		WithTextCode(CodeInvalidResources)
}
