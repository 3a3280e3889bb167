package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

type scored struct {
	post  *interfaces.Post
	score float64
}

// fuzzyMatches keeps posts whose best field score is within the threshold, ordered
// from best to worst. Equal scores keep input order.
func (s *Searcher) fuzzyMatches(posts []*interfaces.Post, text string) []*interfaces.Post {
	pattern := strings.ToLower(text)
	candidates := make([]scored, 0, len(posts))
	for _, post := range posts {
		score := PostScore(post, pattern)
		if score <= s.threshold && score < s.maxScore {
			candidates = append(candidates, scored{post: post, score: score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	results := make([]*interfaces.Post, len(candidates))
	for i, candidate := range candidates {
		results[i] = candidate.post
	}
	return results
}

// PostScore returns the best fuzzy score of pattern over the searchable
// fields of post. Fields are scored title first, then description, tags and
// body. Zero is a perfect match and one means no match.
func PostScore(post *interfaces.Post, pattern string) float64 {
	f := fields(post)
	best := 1.0
	for _, field := range []string{f[1], f[2], f[3], f[0]} {
		if score := FieldScore(field, pattern); score < best {
			best = score
			if best == 0 {
				break
			}
		}
	}
	return best
}

// FieldScore scores a single field as one minus the pattern length over the
// length of the matched span. Matching ignores case.
func FieldScore(field, pattern string) float64 {
	pattern = strings.ToLower(pattern)
	field = strings.ToLower(field)
	if pattern == "" || field == "" {
		return 1
	}
	matches := fuzzy.Find(pattern, []string{field})
	if len(matches) == 0 || len(matches[0].MatchedIndexes) == 0 {
		return 1
	}

	indexes := matches[0].MatchedIndexes
	first, last := indexes[0], indexes[len(indexes)-1]
	_, size := utf8.DecodeRuneInString(field[last:])
	span := utf8.RuneCountInString(field[first : last+size])
	if span <= 0 {
		return 1
	}

	score := 1 - float64(utf8.RuneCountInString(pattern))/float64(span)
	if score < 0 {
		return 0
	}
	return score
}
