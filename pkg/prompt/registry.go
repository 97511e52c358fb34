package prompt

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds every prompt version loaded from a directory of YAML
// files at startup. It is read-only after construction; no locking is
// needed for lookups (spec.md §5).
type Registry struct {
	store map[string]*Entry
}

// Load reads every *.yml/*.yaml file directly under dir and compiles its
// template(s). A file that fails to parse is logged and skipped rather
// than aborting the whole load, matching registry.py's per-file try/except.
func Load(dir string) (*Registry, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(de.Name()))
		if ext == ".yml" || ext == ".yaml" {
			files = append(files, filepath.Join(dir, de.Name()))
		}
	}
	sort.Strings(files)

	r := &Registry{store: make(map[string]*Entry)}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("read prompt file", "path", path, "error", err)
			continue
		}

		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			slog.Error("parse prompt file", "path", path, "error", err)
			continue
		}

		var parsed rawEntry
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			slog.Error("parse prompt file", "path", path, "error", err)
			continue
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		entry, err := newEntry(raw, parsed, stem)
		if err != nil {
			slog.Error("compile prompt template", "path", path, "error", err)
			continue
		}

		key := entry.Key()
		if _, exists := r.store[key]; exists {
			slog.Warn("duplicate prompt key, overwriting", "key", key, "path", path)
		}
		r.store[key] = entry
	}

	slog.Info("loaded prompt templates", "count", len(r.store))

	return r, nil
}

// NewFromEntries builds a Registry directly from already-compiled entries,
// useful for tests that don't want to touch the filesystem.
func NewFromEntries(entries ...*Entry) *Registry {
	r := &Registry{store: make(map[string]*Entry)}
	for _, e := range entries {
		r.store[e.Key()] = e
	}
	return r
}

// List returns every id@version key in sorted order.
func (r *Registry) List() []string {
	keys := make([]string, 0, len(r.store))
	for k := range r.store {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetEntry looks up an exact id@version if version is non-empty, otherwise
// returns the highest-versioned entry for id (lexicographic descending).
func (r *Registry) GetEntry(id, version string) (*Entry, error) {
	if version != "" {
		if e, ok := r.store[id+"@"+version]; ok {
			return e, nil
		}
		return nil, &NotFoundError{ID: id, Version: version}
	}

	var candidates []*Entry
	prefix := id + "@"
	for k, e := range r.store {
		if strings.HasPrefix(k, prefix) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil, &NotFoundError{ID: id}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Version > candidates[j].Version
	})
	return candidates[0], nil
}
