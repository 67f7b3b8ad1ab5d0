// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"sort"
	"strings"
)

// =============================================================================
// RESOLUTION
// =============================================================================

// MatchKind classifies the outcome of resolving a typed token against the
// registry's command names.
type MatchKind int

const (
	// MatchExact means the token equals a command name.
	MatchExact MatchKind = iota
	// MatchFuzzy means a single command clearly won the scoring.
	MatchFuzzy
	// MatchAmbiguous means several commands scored too close to pick one.
	MatchAmbiguous
	// MatchNone means nothing scored above the acceptance threshold.
	MatchNone
)

// Match is the result of Resolve. Name is set for Exact and Fuzzy matches;
// Candidates carries the competing names for Ambiguous, sorted best first.
type Match struct {
	Kind       MatchKind
	Name       string
	Candidates []string
}

// Scoring rule, fixed for determinism:
//
//	exact match          always wins, no scoring
//	prefix match         1 + len(token)/len(key)      (always > 1)
//	subsequence match    len(token)^2 / (span * len(key))
//	                     where span is the distance from the first to the
//	                     last matched rune in the key, inclusive
//	otherwise            0
//
// A candidate must score above scoreThreshold to count. If the runner-up is
// within ambiguityMargin of the best score, the match is ambiguous and all
// candidates inside the margin are reported.
const (
	scoreThreshold  = 0.2
	ambiguityMargin = 0.1
)

type scored struct {
	name  string
	score float64
}

// Resolve matches a typed token against the given command names.
// It is a pure function: same token and keys, same answer.
func Resolve(token string, keys []string) Match {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return Match{Kind: MatchNone}
	}

	for _, key := range keys {
		if strings.ToLower(key) == token {
			return Match{Kind: MatchExact, Name: key}
		}
	}

	var candidates []scored
	for _, key := range keys {
		if s := score(token, strings.ToLower(key)); s > scoreThreshold {
			candidates = append(candidates, scored{name: key, score: s})
		}
	}

	if len(candidates) == 0 {
		return Match{Kind: MatchNone}
	}

	// Score descending, then name ascending.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].name < candidates[j].name
	})

	if len(candidates) == 1 {
		return Match{Kind: MatchFuzzy, Name: candidates[0].name}
	}

	best := candidates[0].score
	within := []string{candidates[0].name}
	for _, c := range candidates[1:] {
		if best-c.score < ambiguityMargin {
			within = append(within, c.name)
		}
	}

	if len(within) == 1 {
		return Match{Kind: MatchFuzzy, Name: candidates[0].name}
	}
	return Match{Kind: MatchAmbiguous, Candidates: within}
}

// score rates how well token matches key. Both arguments are lowercase.
func score(token, key string) float64 {
	if strings.HasPrefix(key, token) {
		return 1 + float64(len(token))/float64(len(key))
	}

	first, last, ok := subsequenceSpan(token, key)
	if !ok {
		return 0
	}
	span := float64(last - first + 1)
	n := float64(len([]rune(token)))
	return n * n / (span * float64(len([]rune(key))))
}

// subsequenceSpan reports whether token's runes appear in order within key,
// and the rune positions of the first and last match.
func subsequenceSpan(token, key string) (first, last int, ok bool) {
	tr := []rune(token)
	ti := 0
	first = -1
	for i, r := range []rune(key) {
		if ti < len(tr) && r == tr[ti] {
			if first == -1 {
				first = i
			}
			last = i
			ti++
		}
	}
	return first, last, ti == len(tr)
}
