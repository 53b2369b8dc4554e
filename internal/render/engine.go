// Package render evaluates template text against a variable mapping and
// writes rendered destinations. It drives text/template with the sprig
// function map plus the extra filters in filters.go, and implements the
// omit post-processing pass that removes lines whose value was never
// provided.
package render

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/google/uuid"
)

// OmitKey is the reserved variable name bound to the omit placeholder in
// every resolved mapping.
const OmitKey = "omit"

// noValue is what text/template prints for a missing key under
// missingkey=zero. Rendered output containing it is rechecked with
// missingkey=error before being reported as an undefined variable, since
// template text may carry the marker literally.
const noValue = "<no value>"

// missingKeyRE extracts the offending key from a missingkey=error failure.
var missingKeyRE = regexp.MustCompile(`no entry for key "([^"]*)"`)

// Engine renders template strings with a fixed function set and a
// process-unique omit placeholder. It holds no per-render state; the same
// Engine is shared across all jobs and watch reloads.
type Engine struct {
	omit  string
	funcs template.FuncMap
}

// NewEngine creates the template engine. The omit placeholder embeds a
// random uuid so authored text can never collide with it.
func NewEngine() *Engine {
	omit := "__omit_place_holder__" + strings.ReplaceAll(uuid.NewString(), "-", "")

	funcs := sprig.TxtFuncMap()
	for name, fn := range extraFuncs() {
		funcs[name] = fn
	}

	return &Engine{omit: omit, funcs: funcs}
}

// Omit returns the placeholder value bound to the "omit" variable.
func (e *Engine) Omit() string { return e.omit }

// ContainsOmit reports whether s carries the omit placeholder.
func (e *Engine) ContainsOmit(s string) bool {
	return strings.Contains(s, e.omit)
}

// RenderString renders text against vars with strict-undefined semantics.
//
// The template executes with missingkey=zero so that undefined variables
// reach default/mandatory as nil instead of aborting before a guard can
// run. A key defined as null is distinct from a missing key: nulls render
// as empty text. "<no value>" in the output is confirmed as a genuinely
// missing key before being reported, so template text containing the
// marker literally still renders. name is used for error context only.
func (e *Engine) RenderString(name, text string, vars map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New(name).Funcs(e.funcs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", &TemplateError{Name: name, Err: err}
	}

	data := scrubNulls(vars)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		var mandatoryErr *MandatoryValueError
		if errors.As(err, &mandatoryErr) {
			return "", mandatoryErr
		}
		return "", &TemplateError{Name: name, Err: err}
	}

	out := buf.String()
	if idx := strings.Index(out, noValue); idx >= 0 {
		if key, missing := e.findMissing(name, text, data); missing {
			return "", &UndefinedVariableError{Key: key, Name: name, Line: lineAround(out, idx)}
		}
	}

	return out, nil
}

// findMissing re-executes text with missingkey=error to tell a genuinely
// missing variable apart from output that happens to contain the marker,
// and names the offending key when one is reported.
func (e *Engine) findMissing(name, text string, data map[string]any) (key string, missing bool) {
	tmpl, err := template.New(name).Funcs(e.funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", true
	}
	if err := tmpl.Execute(io.Discard, data); err != nil {
		if m := missingKeyRE.FindStringSubmatch(err.Error()); m != nil {
			return m[1], true
		}
		return "", true
	}
	return "", false
}

// scrubNulls deep-copies vars with explicit null values replaced by empty
// strings, so a key defined as null renders as empty text instead of the
// missing-key marker.
func scrubNulls(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[k] = scrubValue(v)
	}
	return out
}

func scrubValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case map[string]any:
		return scrubNulls(t)
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = scrubValue(item)
		}
		return items
	default:
		return v
	}
}

// lineAround extracts the line of s containing byte offset idx.
func lineAround(s string, idx int) string {
	start := strings.LastIndexByte(s[:idx], '\n') + 1
	end := strings.IndexByte(s[idx:], '\n')
	if end < 0 {
		end = len(s)
	} else {
		end += idx
	}
	return strings.TrimSpace(s[start:end])
}
