// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt manages the prompt command registry: named templates
// loaded from prompts.toml, command resolution, and template rendering.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/xa/internal/config"
	"github.com/jeranaias/xa/internal/util"
)

// =============================================================================
// TYPES
// =============================================================================

// Arg is a named template argument with a default value.
type Arg struct {
	Name        string `toml:"name"`
	Default     string `toml:"default_value"`
	Description string `toml:"description,omitempty"`
}

// Command is a single prompt command: a template plus metadata.
type Command struct {
	Template    string `toml:"template"`
	Description string `toml:"description,omitempty"`
	Args        []Arg  `toml:"args,omitempty"`
}

// Registry holds the full set of prompt commands keyed by name.
type Registry struct {
	Prompts map[string]Command `toml:"prompts"`
}

// =============================================================================
// LOCATION
// =============================================================================

// FilePath returns the location of prompts.toml in the config directory.
func FilePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompts.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the registry from the default location, creating it with the
// built-in commands when missing. A file that fails to parse is backed up
// to prompts.toml.backup and replaced with the defaults rather than
// aborting the run. Built-in commands that were removed from the file are
// merged back in so they are always resolvable.
func Load() (*Registry, error) {
	path, err := FilePath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load against an explicit file path.
func LoadFromPath(path string) (*Registry, error) {
	reg := &Registry{Prompts: map[string]Command{}}

	if _, err := os.Stat(path); err == nil {
		if _, derr := toml.DecodeFile(path, reg); derr != nil {
			backup := path + ".backup"
			if rerr := os.Rename(path, backup); rerr != nil {
				return nil, fmt.Errorf("backing up corrupted prompts file: %w", rerr)
			}
			fmt.Fprintf(os.Stderr, "warning: corrupted prompts file backed up to %s, recreating defaults\n", backup)
			reg = &Registry{Prompts: map[string]Command{}}
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}

	if reg.Prompts == nil {
		reg.Prompts = map[string]Command{}
	}

	// Defaults always resolvable, even if edited out of the file.
	changed := false
	for name, cmd := range Defaults() {
		if _, ok := reg.Prompts[name]; !ok {
			reg.Prompts[name] = cmd
			changed = true
		}
	}

	if changed {
		if err := SaveToPath(reg, path); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// Save writes the registry to the default location.
func Save(reg *Registry) error {
	path, err := FilePath()
	if err != nil {
		return err
	}
	return SaveToPath(reg, path)
}

// SaveToPath writes the registry atomically to an explicit path.
func SaveToPath(reg *Registry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# xa prompt commands\n")
	sb.WriteString("# Edit this file to add or change commands. The {input} placeholder\n")
	sb.WriteString("# is replaced with the text you pass on the command line.\n\n")

	enc := toml.NewEncoder(&sb)
	if err := enc.Encode(reg); err != nil {
		return fmt.Errorf("encoding prompts: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("writing prompts file: %w", err)
	}
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Get returns the command for an exact name, if present.
func (r *Registry) Get(name string) (Command, bool) {
	cmd, ok := r.Prompts[name]
	return cmd, ok
}

// Names returns all command names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Prompts))
	for name := range r.Prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add inserts or replaces a command. Empty names are rejected.
func (r *Registry) Add(name string, cmd Command) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if strings.TrimSpace(cmd.Template) == "" {
		return fmt.Errorf("command template cannot be empty")
	}
	r.Prompts[name] = cmd
	return nil
}

// Remove deletes a command by exact name.
func (r *Registry) Remove(name string) error {
	if _, ok := r.Prompts[name]; !ok {
		return fmt.Errorf("command %q does not exist", name)
	}
	delete(r.Prompts, name)
	return nil
}
