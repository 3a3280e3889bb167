package runtimeconfig

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

const (
	EnvBaseURL = "BLOG_BASE_URL"
	EnvHost    = "BLOG_HOST"
	EnvConfig  = "BLOG_ENV"
)

// ResolveBaseURL picks the public site origin. An explicit BLOG_BASE_URL wins,
// then a bare BLOG_HOST served over https, then the local dev server in
// development, then Site.BaseURL, then DefaultBaseURL. A nil getenv reads
// the process environment.
func ResolveBaseURL(cfg Config, getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if explicit := strings.TrimSpace(getenv(EnvBaseURL)); explicit != "" {
		return NormalizeBaseURL(explicit)
	}
	if host := strings.TrimSpace(getenv(EnvHost)); host != "" {
		return NormalizeBaseURL("https://" + strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://"))
	}
	if cfg.IsDevelopment() || normalize(getenv(EnvConfig)) == EnvironmentDevelopment {
		return DevelopmentBaseURL, nil
	}
	if configured := strings.TrimSpace(cfg.Site.BaseURL); configured != "" {
		return NormalizeBaseURL(configured)
	}
	return DefaultBaseURL, nil
}

// NormalizeBaseURL trims whitespace and trailing slashes and checks the value
// is an absolute http(s) origin.
func NormalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBaseURLInvalid, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrBaseURLInvalid, raw)
	}
	return trimmed, nil
}
