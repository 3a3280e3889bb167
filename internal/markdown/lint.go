package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
)

// Lint rule identifiers.
const (
	RuleFrontMatter   = "frontmatter"
	RuleRequiredField = "required-field"
	RuleUnclosedFence = "unclosed-code-block"
	RuleTrailingFence = "trailing-code-fence"
)

const codeFence = "```"

// RequiredFields must be present and non-empty in every post.
var RequiredFields = []string{"title", "date", "description"}

// Finding is a single lint failure.
type Finding struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// LintReport lists the findings for one file.
type LintReport struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings,omitempty"`
}

// OK reports whether the file passed every rule.
func (r LintReport) OK() bool {
	return len(r.Findings) == 0
}

// LintSource checks a post source for missing required frontmatter and
// broken code fences.
func LintSource(name string, source []byte) LintReport {
	report := LintReport{Path: name}

	raw := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(source), &raw)
	if err != nil {
		report.Findings = append(report.Findings, Finding{
			Rule:    RuleFrontMatter,
			Message: fmt.Sprintf("invalid frontmatter: %v", err),
		})
		return report
	}

	var missing []string
	for _, field := range RequiredFields {
		if stringValue(raw[field]) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		report.Findings = append(report.Findings, Finding{
			Rule:    RuleRequiredField,
			Message: "missing required frontmatter fields: " + strings.Join(missing, ", "),
		})
	}

	if countFenceLines(body)%2 != 0 {
		report.Findings = append(report.Findings, Finding{
			Rule:    RuleUnclosedFence,
			Message: "unclosed code block: uneven number of code fences",
		})
	}

	if endsWithFence(body) {
		report.Findings = append(report.Findings, Finding{
			Rule:    RuleTrailingFence,
			Message: "file ends with a code fence",
		})
	}

	return report
}

func countFenceLines(body []byte) int {
	count := 0
	for _, line := range strings.Split(string(body), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), codeFence) {
			count++
		}
	}
	return count
}

func endsWithFence(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return false
	}
	last := trimmed[strings.LastIndex(trimmed, "\n")+1:]
	return strings.HasPrefix(strings.TrimSpace(last), codeFence)
}

// LintDirectory lints every file with one of extensions at the top level of
// filesystem. Reports are sorted by path. The error is non-nil only when the
// directory cannot be read.
func LintDirectory(ctx context.Context, filesystem fs.FS, extensions []string) ([]LintReport, error) {
	entries, err := fs.ReadDir(filesystem, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrContentDirMissing
		}
		return nil, fmt.Errorf("markdown lint read dir: %w", err)
	}

	loader := NewLoader(filesystem, LoaderConfig{Extensions: extensions})
	var reports []LintReport
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || loader.rank(entry.Name()) < 0 {
			continue
		}
		source, err := fs.ReadFile(filesystem, entry.Name())
		if err != nil {
			reports = append(reports, LintReport{
				Path:     entry.Name(),
				Findings: []Finding{{Rule: RuleFrontMatter, Message: err.Error()}},
			})
			continue
		}
		reports = append(reports, LintSource(path.Clean(entry.Name()), source))
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Path < reports[j].Path
	})
	return reports, nil
}

// Failed returns the reports with at least one finding.
func Failed(reports []LintReport) []LintReport {
	var failed []LintReport
	for _, report := range reports {
		if !report.OK() {
			failed = append(failed, report)
		}
	}
	return failed
}
