package prompt

import "regexp"

// actionRE finds the contents of every {{ ... }} template action.
var actionRE = regexp.MustCompile(`\{\{-?\s*(.*?)\s*-?\}\}`)

// fieldRE finds a leading-dot field reference inside one action's text,
// e.g. ".EpisodeTitle" in "{{ .EpisodeTitle | upper }}". Only the first
// path segment is kept: ".Foo.Bar" is treated as requiring "Foo".
var fieldRE = regexp.MustCompile(`\.([A-Za-z_][A-Za-z0-9_]*)`)

// inferVariables scans template text for referenced top-level fields, the
// closest Go-idiomatic equivalent of jinja2's meta.find_undeclared_variables
// (text/template has no public AST-walk API suited to this). It is a
// best-effort static scan, not a full parse: control-flow keywords (if,
// range, with, end, else) are skipped since they are not field references.
func inferVariables(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]bool)
	var out []string

	for _, action := range actionRE.FindAllStringSubmatch(text, -1) {
		for _, m := range fieldRE.FindAllStringSubmatch(action[1], -1) {
			name := m[1]
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}

	return out
}

// declaredRequiredVars returns explicitly declared required variables if
// any are marked `required: true`; otherwise falls back to static
// inference over the template text, mirroring registry.py's
// _declared_required_vars.
func declaredRequiredVars(e *Entry) []string {
	var required []string
	for _, v := range e.Variables {
		if v.Required {
			required = append(required, v.Name)
		}
	}
	if len(required) > 0 {
		return required
	}

	text := e.templateText
	if text == "" {
		text = e.messagesTemplateText
	}
	return inferVariables(text)
}
