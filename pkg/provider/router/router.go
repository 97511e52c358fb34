// Package router implements the Auto-Router meta-provider: given a chat
// request whose provider is "auto", it inspects the request's prompt_type
// via the prompt registry, reads the prompt's complexity tag, and maps
// that tag to a (backend, model) pair from a static table. Grounded on
// original_source's ai_gateway/providers/providers/auto.py.
package router

import (
	"context"
	"log/slog"

	"github.com/fylr-platform/core/pkg/prompt"
	"github.com/fylr-platform/core/pkg/provider"
	"github.com/fylr-platform/core/pkg/registry"
)

// Route is one (backend, model) pair the router can delegate to.
type Route struct {
	Backend string
	Model   string
}

// DefaultModelMap is the static complexity->route table from spec.md
// §4.Auto, supplementing the original's default/tool/synthesis entries
// with the "simple" tier spec.md's routing example table also names.
var DefaultModelMap = map[string]Route{
	"default":   {Backend: "openai", Model: "z-ai/glm-4.5-air:free"},
	"tool":      {Backend: "openai", Model: "z-ai/glm-4.5-air:free"},
	"synthesis": {Backend: "openai", Model: "x-ai/grok-4-fast"},
	"simple":    {Backend: "openai", Model: "z-ai/glm-4.5-air:free"},
}

// Router selects a concrete chat driver for provider="auto" requests.
// Backends are held in the shared registry.BaseRegistry (spec.md §9
// redesign flag: dynamic provider discovery collapses into a static,
// compile-time-assembled registry), built once in New from the caller's
// backend map.
type Router struct {
	prompts  *prompt.Registry
	backends *registry.BaseRegistry[provider.ChatCapable]
	modelMap map[string]Route
}

// New builds a Router over the given backend name -> driver map. modelMap
// may be nil to use DefaultModelMap.
func New(prompts *prompt.Registry, backends map[string]provider.ChatCapable, modelMap map[string]Route) *Router {
	if modelMap == nil {
		modelMap = DefaultModelMap
	}

	reg := registry.NewBaseRegistry[provider.ChatCapable]()
	for name, driver := range backends {
		// Registration only fails on an empty name or a duplicate; map keys
		// are unique, and a driver under the empty name is dropped.
		_ = reg.Register(name, driver)
	}

	return &Router{prompts: prompts, backends: reg, modelMap: modelMap}
}

// SelectedRequest is returned by Select: which backend to delegate to, and
// the ChatRequest with Model replaced by the routed model name.
type SelectedRequest struct {
	Backend string
	Request provider.ChatRequest
	Driver  provider.ChatCapable
}

// Select resolves promptType/promptVersion's complexity tag to a route. If
// the prompt is unknown or carries no complexity, the "default" mapping is
// used (spec.md §4.C).
func (r *Router) Select(ctx context.Context, req provider.ChatRequest, promptType, promptVersion string) (*SelectedRequest, error) {
	complexity := "default"

	if promptType != "" && r.prompts != nil {
		entry, err := r.prompts.GetEntry(promptType, promptVersion)
		if err != nil {
			slog.Warn("auto-router: prompt not found, using default route", "prompt_type", promptType)
		} else if c := entry.Complexity(); c != "" {
			complexity = c
		}
	}

	route, ok := r.modelMap[complexity]
	if !ok {
		route = r.modelMap["default"]
	}

	driver, ok := r.backends.Get(route.Backend)
	if !ok {
		return nil, &provider.UnsupportedOperationError{Driver: route.Backend, Operation: "chat"}
	}

	slog.Info("auto-router selected model", "prompt_type", promptType, "complexity", complexity, "backend", route.Backend, "model", route.Model)

	req.Model = route.Model
	return &SelectedRequest{Backend: route.Backend, Request: req, Driver: driver}, nil
}
