// Package embeddingmodels manages the YAML-backed registry of embedding
// models the gateway exposes over GET /v1/embeddings/models and the PATCH
// default/deprecate endpoints, grounded on original_source's
// ai_gateway/models_registry.py. Writes are serialized with a mutex and
// persisted crash-safely: write to a sibling temp file, then rename
// (spec.md §5).
package embeddingmodels

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Model is one entry of the registry (spec.md §6 persistent state shape).
type Model struct {
	Provider        string `yaml:"provider" json:"provider"`
	Model           string `yaml:"model" json:"model"`
	Version         string `yaml:"version" json:"version"`
	Timestamp       string `yaml:"timestamp" json:"timestamp"`
	Dimensions      int    `yaml:"dimensions" json:"dimensions"`
	IsDefault       bool   `yaml:"isDefault" json:"isDefault"`
	IsDeprecated    bool   `yaml:"isDeprecated" json:"isDeprecated"`
	DeprecationDate string `yaml:"deprecationDate,omitempty" json:"deprecationDate,omitempty"`
}

// FullModel builds the `timestamp@version@provider/model` identifier used
// to pin a model selection across the fleet (spec.md GLOSSARY).
func (m Model) FullModel() string {
	return fmt.Sprintf("%s@%s@%s/%s", m.Timestamp, m.Version, m.Provider, m.Model)
}

// ParseFullModelError is returned by ParseFullModel for a malformed
// `timestamp@version@provider/model` string.
type ParseFullModelError struct {
	Input string
}

func (e *ParseFullModelError) Error() string {
	return fmt.Sprintf("embeddingmodels: malformed full model string %q, want timestamp@version@provider/model", e.Input)
}

// ParseFullModel splits a `timestamp@version@provider/model` identifier
// back into its provider and model components. It is the round-trip
// inverse of Model.FullModel (spec.md §8: parse_full_model(build_full_model(m))
// == (m.provider, m.model)).
func ParseFullModel(fullModel string) (provider, model string, err error) {
	parts := strings.SplitN(fullModel, "@", 3)
	if len(parts) != 3 {
		return "", "", &ParseFullModelError{Input: fullModel}
	}

	providerModel := strings.SplitN(parts[2], "/", 2)
	if len(providerModel) != 2 {
		return "", "", &ParseFullModelError{Input: fullModel}
	}

	return providerModel[0], providerModel[1], nil
}

type fileShape struct {
	Models []Model `yaml:"models"`
}

// Registry is the in-memory, YAML-file-backed embedding model list. Reads
// take the read lock only; writes take the write lock and persist to disk
// before returning.
type Registry struct {
	path string

	mu     sync.RWMutex
	models []Model
}

// Load reads path into a Registry. A missing file yields an empty
// Registry; the file is not created until the first SetDefault or
// Deprecate persists it.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("embeddingmodels: read %s: %w", path, err)
	}

	var shape fileShape
	if err := yaml.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("embeddingmodels: parse %s: %w", path, err)
	}
	r.models = shape.Models
	return r, nil
}

// All returns every model plus the current default's full model string.
func (r *Registry) All() ([]Model, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Model, len(r.models))
	copy(out, r.models)

	for _, m := range r.models {
		if m.IsDefault {
			return out, m.FullModel()
		}
	}
	return out, ""
}

// Get looks up one model by provider+model name.
func (r *Registry) Get(provider, model string) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.models {
		if m.Provider == provider && m.Model == model {
			return m, true
		}
	}
	return Model{}, false
}

// Default returns the registry's default model, if any.
func (r *Registry) Default() (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.models {
		if m.IsDefault {
			return m, true
		}
	}
	return Model{}, false
}

// NotFoundError is returned by SetDefault/Deprecate for an unknown
// provider/model pair.
type NotFoundError struct {
	Provider, Model string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("embeddingmodels: model not found: %s/%s", e.Provider, e.Model)
}

// SetDefault flips isDefault off for every model and on for the named
// one, then persists the file (spec.md PATCH /v1/embeddings/models/default).
func (r *Registry) SetDefault(provider, model string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(provider, model)
	if idx < 0 {
		return &NotFoundError{Provider: provider, Model: model}
	}

	for i := range r.models {
		r.models[i].IsDefault = i == idx
	}
	return r.persistLocked()
}

// Deprecate marks a model deprecated with the given date and persists.
func (r *Registry) Deprecate(provider, model, deprecationDate string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(provider, model)
	if idx < 0 {
		return &NotFoundError{Provider: provider, Model: model}
	}

	r.models[idx].IsDeprecated = true
	r.models[idx].DeprecationDate = deprecationDate
	return r.persistLocked()
}

func (r *Registry) indexOf(provider, model string) int {
	for i, m := range r.models {
		if m.Provider == provider && m.Model == model {
			return i
		}
	}
	return -1
}

// persistLocked writes the registry to a sibling temp file and renames it
// over r.path, the atomic crash-safe persistence spec.md §5 requires.
// Callers must hold r.mu for writing.
func (r *Registry) persistLocked() error {
	data, err := yaml.Marshal(fileShape{Models: r.models})
	if err != nil {
		return fmt.Errorf("embeddingmodels: marshal: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".embedding-models-*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("embeddingmodels: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("embeddingmodels: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("embeddingmodels: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("embeddingmodels: rename temp file: %w", err)
	}
	return nil
}
