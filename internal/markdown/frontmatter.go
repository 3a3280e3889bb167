package markdown

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// CodeInvalidFrontMatter is the text code carried by frontmatter parse errors.
const CodeInvalidFrontMatter = "INVALID_FRONTMATTER"

const (
	DefaultTitle          = "Untitled"
	DefaultWordsPerMinute = 175
)

// Tier values recognised on posts. Other values are preserved verbatim.
const (
	TierReference = "reference"
	TierRevisit   = "revisit"
	TierRead      = "read"
)

var knownKeys = map[string]struct{}{
	"title":       {},
	"date":        {},
	"description": {},
	"tags":        {},
	"readTime":    {},
	"clientSide":  {},
	"category":    {},
	"tier":        {},
	"image":       {},
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// FrontMatterOptions supplies the values defaults are derived from.
type FrontMatterOptions struct {
	// ModTime backs the date when the frontmatter omits it.
	ModTime        time.Time
	WordsPerMinute int
}

// ParseFrontMatter extracts metadata and the Markdown body from source and
// applies the post defaults. Files without a frontmatter block are accepted
// and receive defaults only.
func ParseFrontMatter(source []byte, opts FrontMatterOptions) (interfaces.FrontMatter, []byte, error) {
	raw := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(source), &raw)
	if err != nil {
		return interfaces.FrontMatter{}, nil, goerrors.Wrap(err, goerrors.CategoryValidation, "parse frontmatter").
			WithTextCode(CodeInvalidFrontMatter)
	}
	return buildFrontMatter(raw, body, opts), body, nil
}

func buildFrontMatter(raw map[string]any, body []byte, opts FrontMatterOptions) interfaces.FrontMatter {
	fm := interfaces.FrontMatter{
		Keys:   sortedKeys(raw),
		Custom: map[string]any{},
	}

	fm.Title = stringValue(raw["title"])
	if fm.Title == "" {
		fm.Title = DefaultTitle
	}

	fm.Date = dateValue(raw["date"])
	if fm.Date == "" {
		modified := opts.ModTime
		if modified.IsZero() {
			modified = time.Now()
		}
		fm.Date = modified.UTC().Format(time.RFC3339)
	}
	fm.PublishedAt = ParseDate(fm.Date)

	fm.Description = stringValue(raw["description"])
	fm.Tags = NormalizeTags(raw["tags"])

	fm.ReadTime = stringValue(raw["readTime"])
	if fm.ReadTime == "" {
		fm.ReadTime = ReadTime(body, opts.WordsPerMinute)
	}

	fm.ClientSide = boolValue(raw["clientSide"])
	fm.Category = NormalizeCategory(stringValue(raw["category"]))
	fm.Tier = strings.ToLower(stringValue(raw["tier"]))
	fm.Image = stringValue(raw["image"])

	for key, value := range raw {
		if _, ok := knownKeys[key]; ok {
			continue
		}
		fm.Custom[key] = normalizeValue(value)
	}
	return fm
}

// NormalizeTags accepts a YAML list, a bracketed string such as "[a, b]" or a
// comma separated string. Any other value yields an empty list.
func NormalizeTags(value any) []string {
	tags := []string{}
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if tag := stringValue(item); tag != "" {
				tags = append(tags, tag)
			}
		}
	case []string:
		for _, item := range v {
			if tag := strings.TrimSpace(item); tag != "" {
				tags = append(tags, tag)
			}
		}
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			trimmed = trimmed[1 : len(trimmed)-1]
		}
		for _, part := range strings.Split(trimmed, ",") {
			part = strings.Trim(strings.TrimSpace(part), `"'`)
			if part != "" {
				tags = append(tags, part)
			}
		}
	}
	return tags
}

// NormalizeCategory lowercases and trims a category name. Empty input
// means the post is uncategorized.
func NormalizeCategory(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// ReadTime estimates reading time as whole minutes rounded up. The estimate
// never drops below one minute.
func ReadTime(body []byte, wordsPerMinute int) string {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	words := len(strings.Fields(string(body)))
	minutes := int(math.Ceil(float64(words) / float64(wordsPerMinute)))
	if minutes < 1 {
		minutes = 1
	}
	return strconv.Itoa(minutes) + " min read"
}

// ParseDate interprets a frontmatter date. Unparseable values give the zero
// time.
func ParseDate(value string) time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func dateValue(value any) string {
	if t, ok := value.(time.Time); ok {
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.UTC().Format(time.RFC3339)
	}
	return stringValue(value)
}

func boolValue(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed
	default:
		return false
	}
}

// normalizeValue converts YAML maps keyed by any into string keyed maps so the
// value survives JSON encoding.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func sortedKeys(raw map[string]any) []string {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// HasKey reports whether the frontmatter block declared key.
func HasKey(fm interfaces.FrontMatter, key string) bool {
	_, found := slices.BinarySearch(fm.Keys, key)
	return found
}
