package render

import (
	"fmt"
	"os"
	"path/filepath"
)

// Result describes one completed render: the resolved source and
// destination paths after template substitution.
type Result struct {
	SrcPath  string
	DestPath string
}

// RenderFile renders one template job. src and dest may themselves contain
// template syntax; after substitution, relative paths are resolved against
// baseDir (the directory of the definition file). The rendered content
// goes through the omit pass before being written atomically.
//
// Aside from the destination existence check and the final write, the
// render is a pure function of (source text, vars, filter set).
func (e *Engine) RenderFile(src, dest, baseDir string, vars map[string]any, force bool) (*Result, error) {
	srcPath, err := e.renderPath(src, baseDir, vars)
	if err != nil {
		return nil, fmt.Errorf("resolve src %q: %w", src, err)
	}
	destPath, err := e.renderPath(dest, baseDir, vars)
	if err != nil {
		return nil, fmt.Errorf("resolve dest %q: %w", dest, err)
	}
	result := &Result{SrcPath: srcPath, DestPath: destPath}

	raw, err := os.ReadFile(srcPath)
	if err != nil {
		return result, fmt.Errorf("read template: %w", err)
	}

	rendered, err := e.RenderString(srcPath, string(raw), vars)
	if err != nil {
		return result, err
	}
	rendered = e.StripOmitted(rendered)

	if err := WriteFile(destPath, []byte(rendered), force); err != nil {
		return result, err
	}
	return result, nil
}

// renderPath substitutes template syntax in a path and anchors relative
// results at baseDir.
func (e *Engine) renderPath(path, baseDir string, vars map[string]any) (string, error) {
	rendered, err := e.RenderString(path, path, vars)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(rendered) && baseDir != "" {
		rendered = filepath.Join(baseDir, rendered)
	}
	return rendered, nil
}
