package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// extraFuncs returns the filter functions registered on top of the sprig
// map. All of them are pure and share no state.
//
// The regex filters take the pattern first so they compose in pipelines
// with the value last, e.g. {{ .date | regexReplace "-" "/" }}. The
// optional trailing bools are (ignorecase, multiline); Go's inline (?i)
// and (?m) flags work as well.
func extraFuncs() template.FuncMap {
	return template.FuncMap{
		"mandatory":     mandatory,
		"regexEscape":   regexEscape,
		"regexFindAll":  regexFindAll,
		"regexReplace":  regexReplace,
		"regexSearch":   regexSearch,
		"regexContains": regexContains,
		"toBool":        toBool,
		"toYaml":        toYaml,
		"toJson":        toJson,
		"toNiceJson":    toNiceJson,
	}
}

// mandatory passes value through unchanged, or fails the render with the
// author-supplied message when value is missing from the mapping. A key
// defined as null reaches the filter as empty text and passes.
func mandatory(msg string, value any) (any, error) {
	if value == nil {
		return nil, &MandatoryValueError{Message: msg}
	}
	return value, nil
}

// regexEscape escapes regex metacharacters in value.
func regexEscape(value any) string {
	return regexp.QuoteMeta(toStr(value))
}

// regexFindAll returns all non-overlapping matches of pattern in value.
func regexFindAll(pattern string, value any, flags ...bool) ([]string, error) {
	re, err := compilePattern(pattern, flags)
	if err != nil {
		return nil, err
	}
	return re.FindAllString(toStr(value), -1), nil
}

// regexReplace substitutes matches of pattern in value with replacement.
// The replacement may reference capture groups with $1, ${name} etc.
func regexReplace(pattern, replacement string, value any, flags ...bool) (string, error) {
	re, err := compilePattern(pattern, flags)
	if err != nil {
		return "", err
	}
	return re.ReplaceAllString(toStr(value), replacement), nil
}

// regexSearch returns the first match of pattern in value, or "" when
// there is none. Extra arguments select capture groups by position (int)
// or name (string); bool arguments are the (ignorecase, multiline) flags.
// A single selector yields that group, several yield a list.
func regexSearch(pattern string, value any, args ...any) (any, error) {
	var flags []bool
	var selectors []any
	for _, a := range args {
		if b, ok := a.(bool); ok {
			flags = append(flags, b)
			continue
		}
		selectors = append(selectors, a)
	}

	re, err := compilePattern(pattern, flags)
	if err != nil {
		return nil, err
	}

	match := re.FindStringSubmatch(toStr(value))
	if match == nil {
		return "", nil
	}
	if len(selectors) == 0 {
		return match[0], nil
	}

	groups := make([]string, 0, len(selectors))
	for _, sel := range selectors {
		switch s := sel.(type) {
		case string:
			idx := re.SubexpIndex(s)
			if idx < 0 {
				return nil, fmt.Errorf("regexSearch: unknown capture group %q", s)
			}
			groups = append(groups, match[idx])
		default:
			idx, err := cast.ToIntE(sel)
			if err != nil {
				return nil, fmt.Errorf("regexSearch: invalid group selector %v", sel)
			}
			if idx < 0 || idx >= len(match) {
				return nil, fmt.Errorf("regexSearch: capture group %d out of range", idx)
			}
			groups = append(groups, match[idx])
		}
	}
	if len(groups) == 1 {
		return groups[0], nil
	}
	return groups, nil
}

// regexContains reports whether pattern matches anywhere in value.
func regexContains(pattern string, value any, flags ...bool) (bool, error) {
	re, err := compilePattern(pattern, flags)
	if err != nil {
		return false, err
	}
	return re.MatchString(toStr(value)), nil
}

// boolTokens maps the accepted truthy/falsy string forms.
var boolTokens = map[string]bool{
	"y": true, "yes": true, "t": true, "true": true, "on": true, "1": true,
	"n": false, "no": false, "f": false, "false": false, "off": false, "0": false,
}

// toBool maps common truthy/falsy tokens to a boolean. Unrecognized input
// yields the optional default value (nil when none is given).
func toBool(value any, defaultValue ...any) any {
	var fallback any
	if len(defaultValue) > 0 {
		fallback = defaultValue[0]
	}

	switch v := value.(type) {
	case nil:
		return fallback
	case bool:
		return v
	}

	if b, ok := boolTokens[strings.ToLower(strings.TrimSpace(toStr(value)))]; ok {
		return b
	}
	return fallback
}

// toYaml serializes value as YAML with the given indent (default 2).
// Mapping keys are emitted in sorted order, so output is deterministic.
func toYaml(value any, indent ...int) (string, error) {
	width := 2
	if len(indent) > 0 && indent[0] > 0 {
		width = indent[0]
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(width)
	if err := enc.Encode(value); err != nil {
		enc.Close()
		return "", fmt.Errorf("toYaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("toYaml: %w", err)
	}
	return buf.String(), nil
}

// toJson serializes value as compact JSON with sorted keys.
func toJson(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("toJson: %w", err)
	}
	return string(data), nil
}

// toNiceJson serializes value as indented JSON (default indent 4).
func toNiceJson(value any, indent ...int) (string, error) {
	width := 4
	if len(indent) > 0 && indent[0] > 0 {
		width = indent[0]
	}
	data, err := json.MarshalIndent(value, "", strings.Repeat(" ", width))
	if err != nil {
		return "", fmt.Errorf("toNiceJson: %w", err)
	}
	return string(data), nil
}

// compilePattern compiles pattern with the optional (ignorecase,
// multiline) flags applied as inline flags.
func compilePattern(pattern string, flags []bool) (*regexp.Regexp, error) {
	prefix := ""
	if len(flags) > 0 && flags[0] {
		prefix += "(?i)"
	}
	if len(flags) > 1 && flags[1] {
		prefix += "(?m)"
	}
	re, err := regexp.Compile(prefix + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

// toStr renders an arbitrary filter input as a string.
func toStr(v any) string {
	if v == nil {
		return ""
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprintf("%v", v)
}
