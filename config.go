package blog

import "github.com/goliatone/go-blog/internal/runtimeconfig"

var (
	ErrContentDirRequired         = runtimeconfig.ErrContentDirRequired
	ErrContentExtensionsRequired  = runtimeconfig.ErrContentExtensionsRequired
	ErrContentExtensionInvalid    = runtimeconfig.ErrContentExtensionInvalid
	ErrWordsPerMinuteInvalid      = runtimeconfig.ErrWordsPerMinuteInvalid
	ErrGeneratorOutputDirRequired = runtimeconfig.ErrGeneratorOutputDirRequired
	ErrGeneratorWorkersInvalid    = runtimeconfig.ErrGeneratorWorkersInvalid
	ErrMaxFeedItemsInvalid        = runtimeconfig.ErrMaxFeedItemsInvalid
	ErrEnvironmentInvalid         = runtimeconfig.ErrEnvironmentInvalid
	ErrBaseURLInvalid             = runtimeconfig.ErrBaseURLInvalid
	ErrIndexDriverUnknown         = runtimeconfig.ErrIndexDriverUnknown
	ErrIndexDSNRequired           = runtimeconfig.ErrIndexDSNRequired
	ErrServerAddrRequired         = runtimeconfig.ErrServerAddrRequired
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
	ErrCategorySlugRequired       = runtimeconfig.ErrCategorySlugRequired
	ErrCategoryDuplicate          = runtimeconfig.ErrCategoryDuplicate
	ErrSitemapPriorityInvalid     = runtimeconfig.ErrSitemapPriorityInvalid
)

type (
	Config          = runtimeconfig.Config
	SiteConfig      = runtimeconfig.SiteConfig
	ContentConfig   = runtimeconfig.ContentConfig
	MarkdownConfig  = runtimeconfig.MarkdownConfig
	GeneratorConfig = runtimeconfig.GeneratorConfig
	SitemapConfig   = runtimeconfig.SitemapConfig
	SitemapRoute    = runtimeconfig.SitemapRoute
	RobotsConfig    = runtimeconfig.RobotsConfig
	IndexConfig     = runtimeconfig.IndexConfig
	ServerConfig    = runtimeconfig.ServerConfig
	LoggingConfig   = runtimeconfig.LoggingConfig
	CategoryConfig  = runtimeconfig.CategoryConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML file over DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}

// ResolveBaseURL picks the public origin from the environment and cfg.
func ResolveBaseURL(cfg Config, getenv func(string) string) (string, error) {
	return runtimeconfig.ResolveBaseURL(cfg, getenv)
}
