package generator

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"time"
)

const (
	manifestFileName    = ".build-manifest.json"
	manifestFileVersion = 1
)

// buildManifest records the checksum each post was last rendered from so
// unchanged posts can be skipped on the next build. Fingerprint covers the
// settings that shape per-post output; a different value invalidates every
// entry.
type buildManifest struct {
	Version     int                     `json:"version"`
	GeneratedAt time.Time               `json:"generated_at"`
	Fingerprint string                  `json:"fingerprint,omitempty"`
	Posts       map[string]manifestPost `json:"-"`
}

type manifestPost struct {
	Slug       string    `json:"slug"`
	Checksum   string    `json:"checksum"`
	Outputs    []string  `json:"outputs"`
	RenderedAt time.Time `json:"rendered_at"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version: manifestFileVersion,
		Posts:   map[string]manifestPost{},
	}
}

type manifestFile struct {
	Version     int            `json:"version"`
	GeneratedAt time.Time      `json:"generated_at"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Posts       []manifestPost `json:"posts"`
}

func parseManifest(data []byte) (*buildManifest, error) {
	manifest := newBuildManifest()
	if len(data) == 0 {
		return manifest, nil
	}
	var file manifestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	if file.Version != 0 {
		manifest.Version = file.Version
	}
	manifest.GeneratedAt = file.GeneratedAt
	manifest.Fingerprint = file.Fingerprint
	for _, entry := range file.Posts {
		if entry.Slug != "" {
			manifest.Posts[entry.Slug] = entry
		}
	}
	return manifest, nil
}

// marshal writes posts sorted by slug so repeated builds produce identical
// files.
func (m *buildManifest) marshal() ([]byte, error) {
	file := manifestFile{
		Version:     m.Version,
		GeneratedAt: m.GeneratedAt,
		Fingerprint: m.Fingerprint,
		Posts:       make([]manifestPost, 0, len(m.Posts)),
	}
	if file.Version == 0 {
		file.Version = manifestFileVersion
	}
	for _, entry := range m.Posts {
		file.Posts = append(file.Posts, entry)
	}
	sort.Slice(file.Posts, func(i, j int) bool {
		return file.Posts[i].Slug < file.Posts[j].Slug
	})
	return json.MarshalIndent(file, "", "  ")
}

func (m *buildManifest) shouldSkip(slug, checksum string) bool {
	if m == nil || checksum == "" {
		return false
	}
	entry, ok := m.Posts[slug]
	return ok && entry.Checksum == checksum
}

// orphaned lists outputs recorded for slug that are not in current.
func (m *buildManifest) orphaned(slug string, current []string) []string {
	if m == nil {
		return nil
	}
	entry, ok := m.Posts[slug]
	if !ok {
		return nil
	}
	var out []string
	for _, output := range entry.Outputs {
		if !slices.Contains(current, output) {
			out = append(out, output)
		}
	}
	return out
}

// stale returns the entries whose slug is not in live.
func (m *buildManifest) stale(live map[string]struct{}) []manifestPost {
	if m == nil {
		return nil
	}
	var out []manifestPost
	for slug, entry := range m.Posts {
		if _, ok := live[slug]; !ok {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Slug < out[j].Slug
	})
	return out
}
