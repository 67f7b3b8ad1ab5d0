// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultKeys() []string {
	return []string{"translate", "polish", "rewrite", "summarize"}
}

func TestResolveExact(t *testing.T) {
	m := Resolve("translate", defaultKeys())
	assert.Equal(t, MatchExact, m.Kind)
	assert.Equal(t, "translate", m.Name)
}

func TestResolveExactDominatesFuzzy(t *testing.T) {
	// "trans" is both an exact key and a prefix of "translate".
	keys := []string{"trans", "translate"}
	m := Resolve("trans", keys)
	assert.Equal(t, MatchExact, m.Kind)
	assert.Equal(t, "trans", m.Name)
}

func TestResolvePrefix(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"trans", "translate"},
		{"po", "polish"},
		{"summ", "summarize"},
		{"r", "rewrite"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			m := Resolve(tt.token, defaultKeys())
			assert.Equal(t, MatchFuzzy, m.Kind)
			assert.Equal(t, tt.want, m.Name)
		})
	}
}

func TestResolveSubsequence(t *testing.T) {
	// Not a prefix of anything, but t-r-s-l appears in order in "translate".
	m := Resolve("trsl", defaultKeys())
	assert.Equal(t, MatchFuzzy, m.Kind)
	assert.Equal(t, "translate", m.Name)
}

func TestResolveNoMatch(t *testing.T) {
	m := Resolve("xyz", defaultKeys())
	assert.Equal(t, MatchNone, m.Kind)

	// Single-character subsequence deep inside a long key scores below
	// the acceptance threshold.
	m = Resolve("e", []string{"translate"})
	assert.Equal(t, MatchNone, m.Kind)
}

func TestResolveEmptyToken(t *testing.T) {
	m := Resolve("", defaultKeys())
	assert.Equal(t, MatchNone, m.Kind)

	m = Resolve("   ", defaultKeys())
	assert.Equal(t, MatchNone, m.Kind)
}

func TestResolveAmbiguous(t *testing.T) {
	keys := []string{"reword", "rewrite"}
	m := Resolve("rew", keys)
	assert.Equal(t, MatchAmbiguous, m.Kind)
	assert.Equal(t, []string{"reword", "rewrite"}, m.Candidates)
}

func TestResolveClearWinnerAmongPrefixes(t *testing.T) {
	// Both are prefix matches, but the short key's score dominates the
	// long key's by more than the ambiguity margin.
	keys := []string{"poll", "polishing-service"}
	m := Resolve("pol", keys)
	assert.Equal(t, MatchFuzzy, m.Kind)
	assert.Equal(t, "poll", m.Name)
}

func TestResolveCaseInsensitive(t *testing.T) {
	m := Resolve("TRANS", defaultKeys())
	assert.Equal(t, MatchFuzzy, m.Kind)
	assert.Equal(t, "translate", m.Name)

	m = Resolve("Polish", defaultKeys())
	assert.Equal(t, MatchExact, m.Kind)
	assert.Equal(t, "polish", m.Name)
}

func TestResolveDeterministicOrdering(t *testing.T) {
	// Equal scores fall back to lexical order.
	keys := []string{"aba", "abb"}
	m := Resolve("ab", keys)
	assert.Equal(t, MatchAmbiguous, m.Kind)
	assert.Equal(t, []string{"aba", "abb"}, m.Candidates)

	// Same keys in reverse registration order give the same answer.
	m2 := Resolve("ab", []string{"abb", "aba"})
	assert.Equal(t, m.Candidates, m2.Candidates)
}
