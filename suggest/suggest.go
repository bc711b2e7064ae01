// Package suggest ranks "did you mean" candidates for a substance name that
// matched nothing. Prefix hits rank first, then substring hits, then a
// character-bigram similarity fallback.
package suggest

import (
	"slices"
	"strings"
)

// MinBigramScore is the exclusive lower bound a bigram score must clear.
const MinBigramScore = 0.3

// Suggest returns at most max candidates for query, best first. Candidate
// order is preserved inside each group.
func Suggest(query string, candidates []string, max int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(candidates) == 0 || max <= 0 {
		return []string{}
	}

	lowered := make([]string, len(candidates))
	for i, c := range candidates {
		lowered[i] = strings.ToLower(c)
	}

	var startsWith, includes []string
	taken := make([]bool, len(candidates))

	for i, c := range lowered {
		if strings.HasPrefix(c, q) {
			startsWith = append(startsWith, candidates[i])
			taken[i] = true
		}
	}
	for i, c := range lowered {
		if !taken[i] && strings.Contains(c, q) {
			includes = append(includes, candidates[i])
			taken[i] = true
		}
	}

	result := make([]string, 0, max)
	result = append(result, startsWith...)
	result = append(result, includes...)
	if len(result) >= max {
		return result[:max]
	}

	queryBigrams := bigrams(q)
	denominator := max1(len(queryBigrams))

	type scored struct {
		name  string
		score float64
	}
	var ranked []scored

	for i, c := range lowered {
		if taken[i] {
			continue
		}
		candidateBigrams := bigrams(c)
		overlap := 0
		for bg := range queryBigrams {
			if _, ok := candidateBigrams[bg]; ok {
				overlap++
			}
		}
		score := float64(overlap) / float64(denominator)
		if score > MinBigramScore {
			ranked = append(ranked, scored{candidates[i], score})
		}
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	for _, r := range ranked {
		if len(result) == max {
			break
		}
		result = append(result, r.name)
	}

	return result
}

// bigrams returns the set of overlapping two-rune windows of s.
func bigrams(s string) map[string]struct{} {
	r := []rune(s)
	set := make(map[string]struct{}, len(r))
	for i := 0; i+1 < len(r); i++ {
		set[string(r[i:i+2])] = struct{}{}
	}
	return set
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
