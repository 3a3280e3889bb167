package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrContentDirRequired = errors.New("blog config: content directory is required")
var ErrContentExtensionsRequired = errors.New("blog config: at least one content extension is required")
var ErrContentExtensionInvalid = errors.New("blog config: content extension must start with a dot")
var ErrWordsPerMinuteInvalid = errors.New("blog config: words per minute must be positive")
var ErrGeneratorOutputDirRequired = errors.New("blog config: generator output directory is required")
var ErrGeneratorWorkersInvalid = errors.New("blog config: generator workers must be zero or positive")
var ErrMaxFeedItemsInvalid = errors.New("blog config: max feed items must be zero or positive")
var ErrEnvironmentInvalid = errors.New("blog config: environment must be production or development")
var ErrBaseURLInvalid = errors.New("blog config: base url must be an absolute http(s) url")
var ErrIndexDriverUnknown = errors.New("blog config: index driver is invalid")
var ErrIndexDSNRequired = errors.New("blog config: index dsn is required when the index is enabled")
var ErrIndexSyncIntervalInvalid = errors.New("blog config: index sync interval must be zero or positive")
var ErrServerAddrRequired = errors.New("blog config: server address is required")
var ErrLoggingProviderRequired = errors.New("blog config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("blog config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("blog config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("blog config: logging format is invalid")
var ErrCategorySlugRequired = errors.New("blog config: category slug is required")
var ErrCategoryDuplicate = errors.New("blog config: category slug is duplicated")
var ErrSitemapPriorityInvalid = errors.New("blog config: sitemap priority must be between 0 and 1")

const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"

	DefaultBaseURL     = "https://kaivlya.com"
	DevelopmentBaseURL = "http://localhost:3000"
)

// Config aggregates every runtime setting of the blog module. Fields use
// plain types so YAML files map onto them directly.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Content    ContentConfig    `yaml:"content"`
	Markdown   MarkdownConfig   `yaml:"markdown"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Sitemap    SitemapConfig    `yaml:"sitemap"`
	Robots     RobotsConfig     `yaml:"robots"`
	Index      IndexConfig      `yaml:"index"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Categories []CategoryConfig `yaml:"categories"`
}

// SiteConfig describes the site identity used by feeds and URLs.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	Author      string `yaml:"author"`
	BaseURL     string `yaml:"base_url"`
	Environment string `yaml:"environment"`
}

// ContentConfig locates posts and the resources document on disk.
type ContentConfig struct {
	Dir string `yaml:"dir"`
	// Extensions are tried in order; the first match wins when two files share
	// a slug.
	Extensions     []string `yaml:"extensions"`
	ResourcesFile  string   `yaml:"resources_file"`
	WordsPerMinute int      `yaml:"words_per_minute"`
}

// MarkdownConfig mirrors interfaces.ParseOptions plus component toggles.
// Raw HTML passes through unless SafeMode is set. Footnotes enables the
// goldmark footnote extension; naming "footnote" in Extensions does the same.
type MarkdownConfig struct {
	Extensions  []string `yaml:"extensions"`
	HardWraps   bool     `yaml:"hard_wraps"`
	SafeMode    bool     `yaml:"safe_mode"`
	Footnotes   bool     `yaml:"footnotes"`
	Typographer bool     `yaml:"typographer"`
	Components  bool     `yaml:"components"`
}

// ParseExtensions returns Extensions with "footnote" appended when Footnotes
// is set and the list does not already name it.
func (m MarkdownConfig) ParseExtensions() []string {
	out := append([]string(nil), m.Extensions...)
	if !m.Footnotes {
		return out
	}
	for _, name := range out {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "footnote", "footnotes":
			return out
		}
	}
	return append(out, "footnote")
}

// GeneratorConfig captures behaviour for the static build.
type GeneratorConfig struct {
	OutputDir        string `yaml:"output_dir"`
	Workers          int    `yaml:"workers"`
	MaxFeedItems     int    `yaml:"max_feed_items"`
	FeedCacheControl string `yaml:"feed_cache_control"`
	WriteHTML        bool   `yaml:"write_html"`
}

// SitemapRoute is a static sitemap entry.
type SitemapRoute struct {
	Path       string  `yaml:"path"`
	ChangeFreq string  `yaml:"change_freq"`
	Priority   float64 `yaml:"priority"`
}

// SitemapConfig lists static routes and the defaults applied to posts.
type SitemapConfig struct {
	Routes         []SitemapRoute `yaml:"routes"`
	PostChangeFreq string         `yaml:"post_change_freq"`
	PostPriority   float64        `yaml:"post_priority"`
}

// RobotsConfig drives robots.txt output.
type RobotsConfig struct {
	UserAgent string   `yaml:"user_agent"`
	Allow     []string `yaml:"allow"`
	Disallow  []string `yaml:"disallow"`
}

// IndexConfig configures the persistent post index.
type IndexConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Driver   string        `yaml:"driver"`
	DSN      string        `yaml:"dsn"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// SyncInterval re-syncs the index while serving. Zero disables it.
	SyncInterval time.Duration `yaml:"sync_interval"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	Watch           bool          `yaml:"watch"`
	WatchDebounce   time.Duration `yaml:"watch_debounce"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// CategoryConfig declares a themed post category.
type CategoryConfig struct {
	Slug        string `yaml:"slug" json:"slug"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// DefaultConfig returns the settings the site ships with.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			Title:       "Kaivlya's Blog",
			Description: "Thoughts, ideas, and reflections on various topics",
			Language:    "en",
			Author:      "Kaivlya",
			Environment: EnvironmentProduction,
		},
		Content: ContentConfig{
			Dir:            "content/blog",
			Extensions:     []string{".mdx", ".md"},
			ResourcesFile:  "content/resources.json",
			WordsPerMinute: 175,
		},
		Markdown: MarkdownConfig{
			Extensions: []string{"gfm"},
			Footnotes:  true,
			Components: true,
		},
		Generator: GeneratorConfig{
			OutputDir:        "dist",
			FeedCacheControl: "public, max-age=3600, s-maxage=3600",
			WriteHTML:        true,
		},
		Sitemap: SitemapConfig{
			Routes: []SitemapRoute{
				{Path: "/", ChangeFreq: "monthly", Priority: 1},
				{Path: "/blog", ChangeFreq: "weekly", Priority: 0.8},
				{Path: "/about", ChangeFreq: "monthly", Priority: 0.5},
			},
			PostChangeFreq: "monthly",
			PostPriority:   0.7,
		},
		Robots: RobotsConfig{
			UserAgent: "*",
			Allow:     []string{"/"},
			Disallow:  []string{"/api/", "/_next/", "/static/"},
		},
		Index: IndexConfig{
			Driver:   "sqlite3",
			DSN:      "file:blog.db?cache=shared",
			CacheTTL: time.Minute,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			WatchDebounce:   250 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Categories: DefaultCategories(),
	}
}

// DefaultCategories returns the themed categories in display order.
func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{Slug: "tech", Title: "Tech & Software Engineering", Description: "Technology, software engineering, and development."},
		{Slug: "travel", Title: "Travel", Description: "Travel guides, destinations, and adventure stories"},
		{Slug: "spiritual", Title: "Spiritual", Description: "Spiritual insights, personal growth, and mindfulness"},
		{Slug: "personal", Title: "Personal", Description: "Personal stories, life lessons, and reflections"},
		{Slug: "money", Title: "Money Matters", Description: "Personal finance, investing, and financial literacy"},
		{Slug: "tooling", Title: "Tooling", Description: "Tools, utilities, and productivity enhancements."},
		{Slug: "health", Title: "Health & Wellness", Description: "Physical health, mental wellness, and lifestyle optimization insights and tips."},
	}
}

// Validate performs consistency checks across sections.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Content.Dir) == "" {
		return ErrContentDirRequired
	}
	if len(cfg.Content.Extensions) == 0 {
		return ErrContentExtensionsRequired
	}
	for _, ext := range cfg.Content.Extensions {
		if !strings.HasPrefix(strings.TrimSpace(ext), ".") {
			return fmt.Errorf("%w: %q", ErrContentExtensionInvalid, ext)
		}
	}
	if cfg.Content.WordsPerMinute <= 0 {
		return ErrWordsPerMinuteInvalid
	}
	if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
		return ErrGeneratorOutputDirRequired
	}
	if cfg.Generator.Workers < 0 {
		return ErrGeneratorWorkersInvalid
	}
	if cfg.Generator.MaxFeedItems < 0 {
		return ErrMaxFeedItemsInvalid
	}
	switch normalize(cfg.Site.Environment) {
	case "", EnvironmentProduction, EnvironmentDevelopment:
	default:
		return fmt.Errorf("%w: %s", ErrEnvironmentInvalid, cfg.Site.Environment)
	}
	if base := strings.TrimSpace(cfg.Site.BaseURL); base != "" {
		if _, err := NormalizeBaseURL(base); err != nil {
			return err
		}
	}
	for _, route := range cfg.Sitemap.Routes {
		if route.Priority < 0 || route.Priority > 1 {
			return fmt.Errorf("%w: %s", ErrSitemapPriorityInvalid, route.Path)
		}
	}
	if cfg.Sitemap.PostPriority < 0 || cfg.Sitemap.PostPriority > 1 {
		return fmt.Errorf("%w: posts", ErrSitemapPriorityInvalid)
	}
	if err := validateCategories(cfg.Categories); err != nil {
		return err
	}
	if cfg.Index.Enabled {
		if !isSupportedDriver(cfg.Index.Driver) {
			return fmt.Errorf("%w: %s", ErrIndexDriverUnknown, cfg.Index.Driver)
		}
		if strings.TrimSpace(cfg.Index.DSN) == "" {
			return ErrIndexDSNRequired
		}
	}
	if cfg.Index.SyncInterval < 0 {
		return ErrIndexSyncIntervalInvalid
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return ErrServerAddrRequired
	}
	return cfg.Logging.validate()
}

func (cfg LoggingConfig) validate() error {
	provider := normalize(cfg.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider != "console" {
		if format := strings.TrimSpace(cfg.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func validateCategories(categories []CategoryConfig) error {
	seen := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		slug := normalize(category.Slug)
		if slug == "" {
			return ErrCategorySlugRequired
		}
		if _, ok := seen[slug]; ok {
			return fmt.Errorf("%w: %s", ErrCategoryDuplicate, slug)
		}
		seen[slug] = struct{}{}
	}
	return nil
}

// IsDevelopment reports whether the site runs in development mode.
func (cfg Config) IsDevelopment() bool {
	return normalize(cfg.Site.Environment) == EnvironmentDevelopment
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedDriver(driver string) bool {
	switch normalize(driver) {
	case "sqlite3", "sqlite", "postgres":
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger", "zap":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
