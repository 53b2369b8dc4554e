package variables

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/templer/internal/render"
)

// Stage is one variable source layer: an ordered list of include files
// followed by an inline vars block. Vars is kept as a yaml mapping node so
// that keys resolve in document order.
type Stage struct {
	Vars         *yaml.Node
	IncludePaths []string
	BaseDir      string // anchor for relative include paths
	Origin       string // where this stage was declared, for error context
}

// Resolution is the outcome of resolving a job's variable stages.
type Resolution struct {
	// Context is the merged variable mapping, including the reserved
	// omit binding.
	Context map[string]any
	// IncludeFiles lists every include file that was loaded or attempted,
	// with rendered paths. Attempted paths are reported even when the
	// resolution fails, so a missing include can still be watched and a
	// re-render fires once it appears.
	IncludeFiles []string
}

// Resolve builds the merged variable mapping for one job. Stages apply
// strictly left to right and each value is rendered against the mapping
// accumulated so far, so a variable may reference anything defined before
// it but never anything defined after it. The resolution never writes;
// identical inputs over an unchanged filesystem yield an identical mapping.
// On failure the partially built resolution is returned with the error, so
// callers still see the include files attempted up to that point.
func Resolve(eng *render.Engine, stages ...Stage) (*Resolution, error) {
	res := &Resolution{
		Context: map[string]any{render.OmitKey: eng.Omit()},
	}

	for _, stage := range stages {
		for _, raw := range stage.IncludePaths {
			path, err := eng.RenderString(raw, raw, res.Context)
			if err != nil {
				return res, fmt.Errorf("include path %q: %w", raw, err)
			}
			if !filepath.IsAbs(path) && stage.BaseDir != "" {
				path = filepath.Join(stage.BaseDir, path)
			}
			res.IncludeFiles = append(res.IncludeFiles, path)

			mapping, err := loadIncludeFile(path)
			if err != nil {
				return res, err
			}
			if mapping == nil {
				continue
			}

			ctx, err := mergeMapping(eng, res.Context, mapping)
			if err != nil {
				return res, fmt.Errorf("variables from %s: %w", path, err)
			}
			res.Context = ctx
		}

		if stage.Vars == nil || stage.Vars.Kind == 0 {
			continue
		}
		ctx, err := mergeMapping(eng, res.Context, stage.Vars)
		if err != nil {
			return res, fmt.Errorf("variables from %s: %w", stage.Origin, err)
		}
		res.Context = ctx
	}

	return res, nil
}

// loadIncludeFile reads and parses one include file. The top level must be
// a mapping (or empty). Returns the mapping node, or nil for an empty file.
func loadIncludeFile(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &IncludeNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("read include %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse include %s: %w", path, err)
	}

	mapping := documentMapping(&doc)
	if mapping == nil && !emptyDocument(&doc) {
		return nil, fmt.Errorf("include %s: top level must be a mapping", path)
	}
	return mapping, nil
}

// mergeMapping renders the values of a yaml mapping node in document order
// and deep-merges each resulting key into ctx, returning the new context.
// A value that renders to the omit placeholder drops its key.
func mergeMapping(eng *render.Engine, ctx map[string]any, mapping *yaml.Node) (map[string]any, error) {
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("vars must be a mapping")
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		value, omitted, err := renderNode(eng, mapping.Content[i+1], ctx)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", key, err)
		}
		if omitted {
			continue
		}
		ctx = Merge(ctx, map[string]any{key: value})
	}
	return ctx, nil
}

// renderNode turns one yaml value node into a Go value, rendering string
// scalars as templates against ctx. The omitted flag marks values whose
// rendered form carries the omit placeholder; callers drop those.
func renderNode(eng *render.Engine, node *yaml.Node, ctx map[string]any) (any, bool, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag != "!!str" {
			var v any
			if err := node.Decode(&v); err != nil {
				return nil, false, err
			}
			return v, false, nil
		}

		rendered, err := eng.RenderString(node.Value, node.Value, ctx)
		if err != nil {
			return nil, false, err
		}
		if rendered == node.Value {
			return node.Value, false, nil
		}
		if eng.ContainsOmit(rendered) {
			return nil, true, nil
		}
		return evaluateScalar(rendered), false, nil

	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			v, omitted, err := renderNode(eng, child, ctx)
			if err != nil {
				return nil, false, err
			}
			if omitted {
				continue
			}
			items = append(items, v)
		}
		return items, false, nil

	case yaml.MappingNode:
		m := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, omitted, err := renderNode(eng, node.Content[i+1], ctx)
			if err != nil {
				return nil, false, err
			}
			if omitted {
				continue
			}
			m[node.Content[i].Value] = v
		}
		return m, false, nil

	case yaml.AliasNode:
		return renderNode(eng, node.Alias, ctx)

	default:
		return nil, false, nil
	}
}

// evaluateScalar re-evaluates a rendered string into a typed value when it
// reads as one: integers, floats, booleans, and inline list/mapping
// literals. Anything else stays a string.
func evaluateScalar(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}

	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return int(i)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	if b, ok := parseBoolToken(trimmed); ok {
		return b
	}

	switch trimmed[0] {
	case '[', '{', '"', '\'':
		var v any
		if err := yaml.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return s
}

// parseBoolToken accepts the same spellings as the toBool filter.
func parseBoolToken(s string) (value, ok bool) {
	switch strings.ToLower(s) {
	case "y", "yes", "t", "true", "on":
		return true, true
	case "n", "no", "f", "false", "off":
		return false, true
	}
	return false, false
}

// documentMapping unwraps a parsed document down to its top-level mapping
// node, or nil when there is none.
func documentMapping(doc *yaml.Node) *yaml.Node {
	node := doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	if node.Kind == yaml.MappingNode {
		return node
	}
	return nil
}

// emptyDocument reports whether doc parsed to nothing (empty file) or to a
// lone null.
func emptyDocument(doc *yaml.Node) bool {
	if doc.Kind == 0 {
		return true
	}
	node := doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return true
		}
		node = node.Content[0]
	}
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}
