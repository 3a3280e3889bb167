package search

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Mode selects which stages a query runs through.
type Mode int

const (
	// ModeCascade runs exact, partial and then fuzzy matching. The main blog
	// listing uses it.
	ModeCascade Mode = iota
	// ModeFuzzy runs fuzzy matching only. Category listings use it.
	ModeFuzzy
	// ModeExact runs whole word matching only.
	ModeExact
	// ModePartial runs substring matching only, at any query length.
	ModePartial
)

// ParseMode maps "exact", "partial" and "fuzzy", ignoring case, to their
// modes. Anything else is ModeCascade.
func ParseMode(value string) Mode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "exact":
		return ModeExact
	case "partial":
		return ModePartial
	case "fuzzy":
		return ModeFuzzy
	default:
		return ModeCascade
	}
}

func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModePartial:
		return "partial"
	case ModeFuzzy:
		return "fuzzy"
	default:
		return "cascade"
	}
}

// Stage names the stage that produced a result.
type Stage string

const (
	StageNone    Stage = "none"
	StageExact   Stage = "exact"
	StagePartial Stage = "partial"
	StageFuzzy   Stage = "fuzzy"
)

const (
	DefaultThreshold = 0.4
	DefaultMaxScore  = 0.65
	// MinPartialLength is the shortest query that falls back to substring
	// matching.
	MinPartialLength = 3
)

// Query describes a search over a list of posts.
type Query struct {
	Text string
	// Tags must all be present on a post for it to match.
	Tags []string
	Mode Mode
}

// Result carries the matched posts and the stage that produced them.
type Result struct {
	Posts []*interfaces.Post
	Stage Stage
}

// Option customises a Searcher.
type Option func(*Searcher)

// WithThreshold overrides the fuzzy acceptance threshold.
func WithThreshold(threshold float64) Option {
	return func(s *Searcher) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

// WithMaxScore overrides the fuzzy score ceiling.
func WithMaxScore(maxScore float64) Option {
	return func(s *Searcher) {
		if maxScore > 0 {
			s.maxScore = maxScore
		}
	}
}

// WithLogger sets the searcher logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Searcher runs queries over posts. It holds no per-query state and is safe
// for concurrent use.
type Searcher struct {
	threshold float64
	maxScore  float64
	logger    interfaces.Logger
}

// New constructs a Searcher with the default fuzzy limits.
func New(opts ...Option) *Searcher {
	s := &Searcher{
		threshold: DefaultThreshold,
		maxScore:  DefaultMaxScore,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSearcher = New()

// Search runs q over posts with the default searcher.
func Search(posts []*interfaces.Post, q Query) []*interfaces.Post {
	return defaultSearcher.Search(posts, q).Posts
}

// Search filters posts by tags and then matches the query text. The input
// slice is never modified.
func (s *Searcher) Search(posts []*interfaces.Post, q Query) Result {
	filtered := FilterTags(posts, q.Tags)
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return Result{Posts: filtered, Stage: StageNone}
	}

	var result Result
	switch q.Mode {
	case ModeFuzzy:
		result = Result{Posts: s.fuzzyMatches(filtered, text), Stage: StageFuzzy}
	case ModeExact:
		result = Result{Posts: ExactMatches(filtered, text), Stage: StageExact}
	case ModePartial:
		result = Result{Posts: PartialMatches(filtered, text), Stage: StagePartial}
	default:
		result = s.cascade(filtered, text)
	}

	s.logger.Debug("search.query.completed",
		"mode", q.Mode.String(),
		"stage", string(result.Stage),
		"candidates", len(filtered),
		"results", len(result.Posts),
	)
	return result
}

func (s *Searcher) cascade(posts []*interfaces.Post, text string) Result {
	if exact := ExactMatches(posts, text); len(exact) > 0 {
		return Result{Posts: exact, Stage: StageExact}
	}
	if utf8.RuneCountInString(text) >= MinPartialLength {
		if partial := PartialMatches(posts, text); len(partial) > 0 {
			return Result{Posts: partial, Stage: StagePartial}
		}
	}
	return Result{Posts: s.fuzzyMatches(posts, text), Stage: StageFuzzy}
}

// FilterTags keeps posts carrying every tag in tags. Tags are trimmed and
// compared exactly. No tags returns posts unchanged.
func FilterTags(posts []*interfaces.Post, tags []string) []*interfaces.Post {
	wanted := make([]string, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			wanted = append(wanted, trimmed)
		}
	}
	if len(wanted) == 0 {
		return posts
	}

	filtered := make([]*interfaces.Post, 0, len(posts))
	for _, post := range posts {
		if hasAllTags(post.FrontMatter.Tags, wanted) {
			filtered = append(filtered, post)
		}
	}
	return filtered
}

func hasAllTags(have, wanted []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, tag := range have {
		set[strings.TrimSpace(tag)] = struct{}{}
	}
	for _, tag := range wanted {
		if _, ok := set[tag]; !ok {
			return false
		}
	}
	return true
}

// ExactMatches returns posts where text appears as a whole word, ignoring
// case, in the body, title, description or tags.
func ExactMatches(posts []*interfaces.Post, text string) []*interfaces.Post {
	pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(text) + `\b`)
	if err != nil {
		return nil
	}
	return matchFields(posts, pattern.MatchString)
}

// PartialMatches returns posts where text appears anywhere, ignoring case,
// in the body, title, description or tags.
func PartialMatches(posts []*interfaces.Post, text string) []*interfaces.Post {
	needle := strings.ToLower(text)
	return matchFields(posts, func(field string) bool {
		return strings.Contains(strings.ToLower(field), needle)
	})
}

func matchFields(posts []*interfaces.Post, match func(string) bool) []*interfaces.Post {
	matched := []*interfaces.Post{}
	for _, post := range posts {
		for _, field := range fields(post) {
			if field != "" && match(field) {
				matched = append(matched, post)
				break
			}
		}
	}
	return matched
}

// fields lists the searchable text of a post: body, title, description and
// space joined tags.
func fields(post *interfaces.Post) []string {
	body := post.Plain
	if body == "" {
		body = post.Body
	}
	return []string{
		body,
		post.FrontMatter.Title,
		post.FrontMatter.Description,
		strings.Join(post.FrontMatter.Tags, " "),
	}
}
