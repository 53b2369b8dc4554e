package render

import "strings"

// StripOmitted removes every line of text that carries the omit
// placeholder. A line here is the nearest enclosing structural element of
// YAML-shaped output: a "key: value" pair or a list item, so dropping the
// line approximates deleting an entry whose value was never provided.
func (e *Engine) StripOmitted(text string) string {
	if !e.ContainsOmit(text) {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, e.omit) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
