// Package prompt loads a directory of YAML-defined prompt templates at
// startup, the way original_source's ai_gateway/prompts/registry.py does,
// and renders them with strict undefined-variable semantics using Go's
// text/template (see DESIGN.md for why this is hand-rolled rather than
// using a jinja2-alike import).
package prompt

import "fmt"

// NotFoundError is returned when neither an exact id@version nor any
// version of id is registered.
type NotFoundError struct {
	ID      string
	Version string
}

func (e *NotFoundError) Error() string {
	v := e.Version
	if v == "" {
		v = "latest"
	}
	return fmt.Sprintf("prompt not found: %s@%s", e.ID, v)
}

// ValidationError is returned when a render call is missing one or more
// required variables.
type ValidationError struct {
	Key     string
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required variables for %s: %v", e.Key, e.Missing)
}

// RenderError wraps a template execution or post-render parse failure.
type RenderError struct {
	Key string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render prompt %s: %v", e.Key, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
