package prompt

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Message is one rendered chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result is what Render returns: either a single Prompt string (form
// "prompt") or a Messages list (form "messages"), plus the entry's raw
// metadata.
type Result struct {
	Type     string
	Version  string
	Form     Form
	Prompt   string
	Messages []Message
	Meta     map[string]any
}

// Render looks up id@version (or the latest version of id if version is
// empty), validates vars against the entry's required variables, and
// executes its template(s). Returns NotFoundError, ValidationError, or
// RenderError on failure.
func (r *Registry) Render(id, version string, vars map[string]any) (*Result, error) {
	entry, err := r.GetEntry(id, version)
	if err != nil {
		return nil, err
	}

	if vars == nil {
		vars = map[string]any{}
	}

	required := declaredRequiredVars(entry)
	var missing []string
	for _, name := range required {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Key: entry.Key(), Missing: missing}
	}

	switch entry.Form {
	case FormMessages:
		return renderMessages(entry, vars)
	default:
		return renderPrompt(entry, vars)
	}
}

func renderPrompt(entry *Entry, vars map[string]any) (*Result, error) {
	if entry.compiledTemplate == nil {
		return nil, &RenderError{Key: entry.Key(), Err: fmt.Errorf("prompt %s has no template field", entry.Key())}
	}

	var buf bytes.Buffer
	if err := entry.compiledTemplate.Execute(&buf, vars); err != nil {
		return nil, &RenderError{Key: entry.Key(), Err: err}
	}

	return &Result{
		Type:    entry.ID,
		Version: entry.Version,
		Form:    FormPrompt,
		Prompt:  buf.String(),
		Meta:    entry.raw,
	}, nil
}

func renderMessages(entry *Entry, vars map[string]any) (*Result, error) {
	if entry.compiledMessagesTemplate == nil {
		return nil, &RenderError{Key: entry.Key(), Err: fmt.Errorf("prompt %s declares form messages but has no messages_template", entry.Key())}
	}

	var buf bytes.Buffer
	if err := entry.compiledMessagesTemplate.Execute(&buf, vars); err != nil {
		return nil, &RenderError{Key: entry.Key(), Err: err}
	}

	var parsed []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &parsed); err != nil {
		return nil, &RenderError{Key: entry.Key(), Err: fmt.Errorf("rendered messages_template is not a valid YAML/JSON list: %w", err)}
	}

	messages := make([]Message, 0, len(parsed))
	for i, m := range parsed {
		content, ok := m["content"]
		if !ok {
			return nil, &RenderError{Key: entry.Key(), Err: fmt.Errorf("messages_template element #%d missing content: %v", i, m)}
		}
		role := "user"
		if r, ok := m["role"].(string); ok && r != "" {
			role = r
		}
		messages = append(messages, Message{Role: role, Content: fmt.Sprintf("%v", content)})
	}

	if len(messages) == 0 {
		return nil, &RenderError{Key: entry.Key(), Err: fmt.Errorf("messages_template rendered to an empty list")}
	}

	return &Result{
		Type:     entry.ID,
		Version:  entry.Version,
		Form:     FormMessages,
		Messages: messages,
		Meta:     entry.raw,
	}, nil
}

// Inspect returns an entry's metadata for admin/dev introspection, mirroring
// registry.py's inspect().
type Inspection struct {
	Type                 string
	Version              string
	Description          string
	Form                 Form
	Variables            []VariableSpec
	HasTemplate          bool
	HasMessagesTemplate  bool
	Raw                  map[string]any
}

func (r *Registry) Inspect(id, version string) (*Inspection, error) {
	entry, err := r.GetEntry(id, version)
	if err != nil {
		return nil, err
	}

	return &Inspection{
		Type:                entry.ID,
		Version:             entry.Version,
		Description:         entry.Description,
		Form:                entry.Form,
		Variables:           entry.Variables,
		HasTemplate:         entry.compiledTemplate != nil,
		HasMessagesTemplate: entry.compiledMessagesTemplate != nil,
		Raw:                 entry.raw,
	}, nil
}

// Complexity returns the `complexity` meta tag used by the Auto-Router, or
// "" if the prompt has none (spec.md §4.C: unknown/missing complexity maps
// to the "default" routing entry).
func (e *Entry) Complexity() string {
	if e.Meta == nil {
		return ""
	}
	if c, ok := e.Meta["complexity"].(string); ok {
		return c
	}
	return ""
}
