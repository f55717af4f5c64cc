package rewriter

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/astrw/internal/visitor"
)

// DefaultSuggestThreshold is the minimum Jaro-Winkler similarity for a suggestion
const DefaultSuggestThreshold = 0.8

// Suggestion is a registered key close to a looked-up one
type Suggestion struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// Suggest returns registered keys of a space that resemble key, best first. It helps
// spot registrations that never fire because of a typo or a leading separator.
func (r *Rewriter) Suggest(space visitor.Space, key string, limit int) []Suggestion {
	needle := normalizeKey(key)
	var out []Suggestion
	for _, candidate := range r.registry.Keys(space) {
		score := similarity(needle, normalizeKey(candidate))
		if score >= DefaultSuggestThreshold {
			out = append(out, Suggestion{Key: candidate, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// normalizeKey drops the leading separator and case, which PHP ignores for functions
// and classes
func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, `\`))
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0.0
	}
	return float64(score)
}
