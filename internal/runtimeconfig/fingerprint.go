package runtimeconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// RenderFingerprint hashes the settings that change how a post renders:
// Markdown options, component expansion, accepted extensions, reading speed
// and the category list. Two configs with equal fingerprints render the same
// source to the same post.
func (cfg Config) RenderFingerprint() string {
	settings := struct {
		Markdown       MarkdownConfig   `json:"markdown"`
		ParseExts      []string         `json:"parse_extensions"`
		Extensions     []string         `json:"extensions"`
		WordsPerMinute int              `json:"words_per_minute"`
		Categories     []CategoryConfig `json:"categories"`
	}{
		Markdown:       cfg.Markdown,
		ParseExts:      cfg.Markdown.ParseExtensions(),
		Extensions:     cfg.Content.Extensions,
		WordsPerMinute: cfg.Content.WordsPerMinute,
		Categories:     cfg.Categories,
	}
	data, _ := json.Marshal(settings)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
