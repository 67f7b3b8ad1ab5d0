// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store keeps small user secrets in stores.toml, tagged and
// retrieved with model assistance. Secrets never leave the machine: tagging
// sees only the note, and search sees masked entries with placeholders in
// place of secret values.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/jeranaias/xa/internal/config"
	"github.com/jeranaias/xa/internal/util"
)

// =============================================================================
// TYPES
// =============================================================================

// Entry is one stored secret.
type Entry struct {
	ID        string `toml:"id"`
	Tag       string `toml:"tag"`
	Note      string `toml:"note"`
	Secret    string `toml:"secret"`
	CreatedAt string `toml:"created_at"`
}

// Store is the full stores.toml contents.
type Store struct {
	Entries []Entry `toml:"entries"`
}

// Completer issues one completion request. Satisfied by *llm.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrEmptySecret rejects blank secret values.
	ErrEmptySecret = errors.New("secret cannot be empty")

	// ErrEmptyNote rejects blank notes: the note is all the tagger and
	// search ever see, so it must carry the meaning.
	ErrEmptyNote = errors.New("note cannot be empty")
)

// =============================================================================
// PERSISTENCE
// =============================================================================

// FilePath returns the location of stores.toml.
func FilePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "stores.toml"), nil
}

// Load reads the store, returning an empty one when the file is missing. A
// corrupted file is backed up to stores.toml.backup and replaced.
func Load() (*Store, error) {
	path, err := FilePath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load against an explicit path.
func LoadFromPath(path string) (*Store, error) {
	st := &Store{}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, fmt.Errorf("reading store file: %w", err)
	}

	if _, err := toml.DecodeFile(path, st); err != nil {
		backup := path + ".backup"
		if rerr := os.Rename(path, backup); rerr != nil {
			return nil, fmt.Errorf("backing up corrupted store file: %w", rerr)
		}
		fmt.Fprintf(os.Stderr, "warning: corrupted store file backed up to %s\n", backup)
		return &Store{}, nil
	}

	return st, nil
}

// Save writes the store to the default location.
func Save(st *Store) error {
	path, err := FilePath()
	if err != nil {
		return err
	}
	return SaveToPath(st, path)
}

// SaveToPath writes the store atomically with owner-only permissions.
func SaveToPath(st *Store, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var sb strings.Builder
	enc := toml.NewEncoder(&sb)
	if err := enc.Encode(st); err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("writing store file: %w", err)
	}
	return nil
}

// =============================================================================
// TAGGING
// =============================================================================

type tagResponse struct {
	Tag    string `json:"tag"`
	Reason string `json:"reason"`
}

// Add inserts a secret, asking the model for a short memorable tag derived
// from the note. Falls back to a note-derived tag when the model response is
// unusable. Returns the chosen tag.
func (st *Store) Add(ctx context.Context, c Completer, secret, note string) (string, error) {
	secret = strings.TrimSpace(secret)
	note = strings.TrimSpace(note)
	if secret == "" {
		return "", ErrEmptySecret
	}
	if note == "" {
		return "", ErrEmptyNote
	}

	existing := st.tagSet()

	tag := ""
	if resp, err := c.Complete(ctx, tagPrompt(note, existing)); err == nil {
		var parsed tagResponse
		if decodeJSON(resp, &parsed) {
			tag = parsed.Tag
		}
	}

	tag = sanitizeTag(tag)
	if tag == "" {
		tag = fallbackTag(note)
	}
	tag = uniqueTag(tag, existing)

	st.Entries = append(st.Entries, Entry{
		ID:        uuid.NewString(),
		Tag:       tag,
		Note:      note,
		Secret:    secret,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return tag, nil
}

func (st *Store) tagSet() map[string]bool {
	set := make(map[string]bool, len(st.Entries))
	for _, e := range st.Entries {
		set[strings.ToLower(e.Tag)] = true
	}
	return set
}

func tagPrompt(note string, existing map[string]bool) string {
	tags := make([]string, 0, len(existing))
	for t := range existing {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	return fmt.Sprintf(`You generate short, memorable tags for secret notes.

Rules:
- Return JSON only.
- JSON schema: {"tag": string, "reason": string}.
- tag must be 2-4 words max, lowercase, use hyphens instead of spaces.
- tag must not include any sensitive data (only use the note).
- tag must not duplicate existing tags.

Existing tags: %s

Note: %s

Return JSON only.`, strings.Join(tags, ", "), note)
}

// sanitizeTag lowercases, keeps alphanumerics, and collapses runs of
// whitespace or hyphens into single hyphens.
func sanitizeTag(tag string) string {
	var sb strings.Builder
	lastDash := false
	for _, ch := range tag {
		switch {
		case ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9':
			sb.WriteRune(ch)
			lastDash = false
		case ch >= 'A' && ch <= 'Z':
			sb.WriteRune(ch + ('a' - 'A'))
			lastDash = false
		case ch == '-' || ch == ' ' || ch == '\t' || ch == '\n':
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}

// fallbackTag derives a tag from the first words of the note.
func fallbackTag(note string) string {
	words := strings.Fields(note)
	if len(words) > 4 {
		words = words[:4]
	}
	if len(words) == 0 {
		return "untagged"
	}
	tag := sanitizeTag(strings.ToLower(strings.Join(words, "-")))
	if tag == "" {
		return "untagged"
	}
	return tag
}

// uniqueTag appends a numeric suffix until the tag is unused.
func uniqueTag(tag string, existing map[string]bool) string {
	if !existing[strings.ToLower(tag)] {
		return tag
	}
	for i := 2; i <= 99; i++ {
		candidate := fmt.Sprintf("%s-%d", tag, i)
		if !existing[strings.ToLower(candidate)] {
			return candidate
		}
	}
	return fmt.Sprintf("%s-%d", tag, time.Now().UnixMilli())
}

// =============================================================================
// SEARCH
// =============================================================================

type searchResponse struct {
	Found  bool   `json:"found"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// maskedEntry is what the search model sees: everything except the secret.
type maskedEntry struct {
	ID                string `json:"id"`
	Tag               string `json:"tag"`
	Note              string `json:"note"`
	CreatedAt         string `json:"created_at"`
	SecretPlaceholder string `json:"secret_placeholder"`
}

// Search asks the model to pick the entry best matching the query and
// returns its secret. The second return is false when nothing matched.
func (st *Store) Search(ctx context.Context, c Completer, query string) (string, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false, errors.New("query cannot be empty")
	}
	if len(st.Entries) == 0 {
		return "", false, nil
	}

	resp, err := c.Complete(ctx, searchPrompt(query, st.masked()))
	if err != nil {
		return "", false, err
	}

	var parsed searchResponse
	if !decodeJSON(resp, &parsed) || !parsed.Found || parsed.ID == "" {
		return "", false, nil
	}

	for _, e := range st.Entries {
		if e.ID == parsed.ID {
			return e.Secret, true, nil
		}
	}
	return "", false, nil
}

func (st *Store) masked() []maskedEntry {
	masked := make([]maskedEntry, 0, len(st.Entries))
	for _, e := range st.Entries {
		masked = append(masked, maskedEntry{
			ID:                e.ID,
			Tag:               e.Tag,
			Note:              e.Note,
			CreatedAt:         e.CreatedAt,
			SecretPlaceholder: "SECRET_" + e.ID,
		})
	}
	return masked
}

func searchPrompt(query string, entries []maskedEntry) string {
	entriesJSON, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		entriesJSON = []byte("[]")
	}

	return fmt.Sprintf(`You are a secret locator. Given a user query and a list of entries, find the best matching entry.

Rules:
- Return JSON only.
- JSON schema: {"found": boolean, "id": string|null, "reason": string}.
- If nothing matches well, set found=false and id=null.
- Do not invent ids.

Entries (secret is placeholder only):
%s

Query: %s

Return JSON only.`, entriesJSON, query)
}

// decodeJSON parses a model response as JSON, tolerating prose around the
// JSON object by retrying on the outermost brace span.
func decodeJSON(input string, out any) bool {
	if json.Unmarshal([]byte(input), out) == nil {
		return true
	}
	start := strings.Index(input, "{")
	end := strings.LastIndex(input, "}")
	if start < 0 || end <= start {
		return false
	}
	return json.Unmarshal([]byte(input[start:end+1]), out) == nil
}
