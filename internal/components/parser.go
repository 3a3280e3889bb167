package components

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// placeholderFormat is the marker emitted in place of an extracted component.
const placeholderFormat = "<!--component:%d-->"

var (
	tagPattern  = regexp.MustCompile(`<(/?)([A-Z][A-Za-z0-9]*)((?:\s+(?:[^<>"'{}/]|"[^"]*"|'[^']*'|\{[^{}]*\})*)?)\s*(/?)>`)
	attrPattern = regexp.MustCompile(`([A-Za-z_][\w:.-]*)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|\{\s*(?:"([^"]*)"|'([^']*)'|([^{}]*?))\s*\}))?`)
)

// Parsed is one component invocation found in content.
type Parsed struct {
	Name  string
	Attrs map[string]string
	// Inner holds the raw children of a block component. Nested components
	// appear as placeholders.
	Inner string
}

// Parser extracts JSX style component tags from Markdown. Only names accepted
// by the known func are extracted; anything else, and anything inside fenced
// code blocks, is left untouched.
type Parser struct {
	known func(name string) bool
}

// NewParser constructs a parser recognising the names known reports.
func NewParser(known func(name string) bool) *Parser {
	if known == nil {
		known = func(string) bool { return false }
	}
	return &Parser{known: known}
}

// Extract replaces components with placeholders and returns the transformed
// content along with the invocations in the order they close. Children always
// close before their parent, so a parent's Inner only references earlier
// indexes. Tags inside fenced code are ignored, but a block component may wrap
// fenced code.
func (p *Parser) Extract(content string) (string, []Parsed, error) {
	type stackEntry struct {
		name   string
		start  int
		attrs  map[string]string
		offset int
	}

	var (
		result   []byte
		parsed   []Parsed
		stack    []stackEntry
		position int
	)

	// Matching runs on a masked copy so offsets line up with content.
	masked := maskFences(content)
	for _, loc := range tagPattern.FindAllStringSubmatchIndex(masked, -1) {
		closing := loc[3] > loc[2]
		name := content[loc[4]:loc[5]]
		if !p.known(name) {
			continue
		}

		result = append(result, content[position:loc[0]]...)
		position = loc[1]

		if closing {
			if len(stack) == 0 {
				return "", nil, fmt.Errorf("unexpected closing component %s at offset %d", name, loc[0])
			}
			entry := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if entry.name != name {
				return "", nil, fmt.Errorf("mismatched closing component %s, expected %s", name, entry.name)
			}
			inner := string(result[entry.start:])
			result = result[:entry.start]
			result = append(result, fmt.Sprintf(placeholderFormat, len(parsed))...)
			parsed = append(parsed, Parsed{Name: name, Attrs: entry.attrs, Inner: inner})
			continue
		}

		attrs := parseAttributes(content[loc[6]:loc[7]])
		selfClosing := loc[9] > loc[8]
		if selfClosing {
			result = append(result, fmt.Sprintf(placeholderFormat, len(parsed))...)
			parsed = append(parsed, Parsed{Name: name, Attrs: attrs})
			continue
		}
		stack = append(stack, stackEntry{name: name, start: len(result), attrs: attrs, offset: loc[0]})
	}

	if len(stack) > 0 {
		entry := stack[len(stack)-1]
		return "", nil, fmt.Errorf("unterminated component %s at offset %d", entry.name, entry.offset)
	}

	result = append(result, content[position:]...)
	return string(result), parsed, nil
}

// maskFences blanks every byte of fenced code except newlines, keeping the
// length of content unchanged.
func maskFences(content string) string {
	var out strings.Builder
	out.Grow(len(content))
	for _, seg := range splitFences(content) {
		if !seg.code {
			out.WriteString(seg.text)
			continue
		}
		for i := 0; i < len(seg.text); i++ {
			if seg.text[i] == '\n' {
				out.WriteByte('\n')
			} else {
				out.WriteByte(' ')
			}
		}
	}
	return out.String()
}

func parseAttributes(raw string) map[string]string {
	attrs := map[string]string{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return attrs
	}
	for _, match := range attrPattern.FindAllStringSubmatch(raw, -1) {
		value := ""
		for _, candidate := range match[2:] {
			if candidate != "" {
				value = candidate
				break
			}
		}
		attrs[match[1]] = html.UnescapeString(strings.TrimSpace(value))
	}
	return attrs
}

type segment struct {
	text string
	code bool
}

// splitFences separates fenced code blocks from prose. An unclosed fence
// runs to the end of the content.
func splitFences(content string) []segment {
	var (
		segments []segment
		current  strings.Builder
		fence    string
	)
	flush := func(code bool) {
		if current.Len() > 0 {
			segments = append(segments, segment{text: current.String(), code: code})
			current.Reset()
		}
	}

	lines := strings.SplitAfter(content, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case fence == "" && (strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")):
			flush(false)
			fence = trimmed[:3]
			current.WriteString(line)
		case fence != "" && strings.HasPrefix(trimmed, fence):
			current.WriteString(line)
			flush(true)
			fence = ""
		default:
			current.WriteString(line)
		}
	}
	flush(fence != "")
	return segments
}
