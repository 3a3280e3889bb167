package components

import (
	"fmt"
	"net/url"
	"strings"
)

// Sanitizer is a conservative policy that rejects inline scripts, event
// handler attributes and URLs outside an allowed scheme list.
type Sanitizer struct {
	allowedSchemes map[string]struct{}
}

// NewSanitizer returns a sanitizer allowing http, https and relative URLs.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		allowedSchemes: map[string]struct{}{
			"http":  {},
			"https": {},
			"":      {},
		},
	}
}

// Sanitize rejects rendered output that carries a script tag.
func (s *Sanitizer) Sanitize(html string) (string, error) {
	if strings.Contains(strings.ToLower(html), "<script") {
		return "", fmt.Errorf("%w: script tags are not allowed", ErrUnsafeContent)
	}
	return html, nil
}

// ValidateURL ensures raw has an allowed scheme. Empty values pass.
func (s *Sanitizer) ValidateURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeContent, err)
	}
	if _, ok := s.allowedSchemes[strings.ToLower(parsed.Scheme)]; !ok {
		return fmt.Errorf("%w: url scheme %q not permitted", ErrUnsafeContent, parsed.Scheme)
	}
	return nil
}

// ValidateAttributes rejects inline event handlers like onload and values
// smuggling script.
func (s *Sanitizer) ValidateAttributes(attrs map[string]string) error {
	for key, value := range attrs {
		if strings.HasPrefix(strings.ToLower(key), "on") {
			return fmt.Errorf("%w: attribute %q not permitted", ErrUnsafeContent, key)
		}
		lower := strings.ToLower(value)
		if strings.Contains(lower, "<script") || strings.Contains(strings.ReplaceAll(lower, " ", ""), "javascript:") {
			return fmt.Errorf("%w: attribute %q carries script", ErrUnsafeContent, key)
		}
	}
	return nil
}
