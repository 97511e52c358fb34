package prompt

import (
	"fmt"
	"text/template"
)

// Form is the shape a rendered prompt takes: a single string, or a list of
// chat messages.
type Form string

const (
	FormPrompt   Form = "prompt"
	FormMessages Form = "messages"
)

// VariableSpec is one entry of a prompt's declared `variables:` list.
type VariableSpec struct {
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
}

// rawEntry is the literal shape of one prompt YAML file.
type rawEntry struct {
	ID                  string         `yaml:"id"`
	Name                string         `yaml:"name"`
	Version             string         `yaml:"version"`
	Description         string         `yaml:"description"`
	Form                string         `yaml:"form"`
	Template            string         `yaml:"template"`
	MessagesTemplate    string         `yaml:"messages_template"`
	Variables           []VariableSpec `yaml:"variables"`
	Meta                map[string]any `yaml:"meta"`
}

// Entry is the in-memory, compiled representation of one prompt version.
type Entry struct {
	ID          string
	Version     string
	Description string
	Form        Form
	Variables   []VariableSpec
	Meta        map[string]any

	templateText         string
	messagesTemplateText string

	compiledTemplate         *template.Template
	compiledMessagesTemplate *template.Template

	// raw mirrors the original YAML document, returned verbatim by
	// render() and inspect() the way the original registry.py does.
	raw map[string]any
}

// Key returns the id@version identifier this entry is stored under.
func (e *Entry) Key() string { return fmt.Sprintf("%s@%s", e.ID, e.Version) }

func newEntry(raw map[string]any, parsed rawEntry, filenameStem string) (*Entry, error) {
	id := parsed.ID
	if id == "" {
		id = parsed.Name
	}
	if id == "" {
		id = filenameStem
	}

	version := parsed.Version
	if version == "" {
		version = "v1"
	}

	form := Form(parsed.Form)
	if form == "" {
		form = FormPrompt
	}

	e := &Entry{
		ID:          id,
		Version:     version,
		Description: parsed.Description,
		Form:        form,
		Variables:   parsed.Variables,
		Meta:        parsed.Meta,
		templateText:         parsed.Template,
		messagesTemplateText: parsed.MessagesTemplate,
		raw:         raw,
	}

	if e.templateText != "" {
		tmpl, err := template.New(e.Key()).Option("missingkey=error").Parse(e.templateText)
		if err != nil {
			return nil, fmt.Errorf("parse template for %s: %w", e.Key(), err)
		}
		e.compiledTemplate = tmpl
	}

	if e.messagesTemplateText != "" {
		tmpl, err := template.New(e.Key() + "#messages").Option("missingkey=error").Parse(e.messagesTemplateText)
		if err != nil {
			return nil, fmt.Errorf("parse messages_template for %s: %w", e.Key(), err)
		}
		e.compiledMessagesTemplate = tmpl
	}

	return e, nil
}
