// Package pipeline runs the loader → resolver → renderer chain for one
// definition file. It is the unit of work the CLI runs once per definition
// and the watch controller re-runs on every qualifying change.
package pipeline

import (
	"path/filepath"

	"github.com/cameronsjo/templer/internal/definition"
	"github.com/cameronsjo/templer/internal/render"
	"github.com/cameronsjo/templer/internal/ui"
	"github.com/cameronsjo/templer/internal/variables"
)

// JobResult is the outcome of one template job.
type JobResult struct {
	Src  string
	Dest string
	Err  error
}

// Result aggregates the outcomes of one pass over a definition file.
type Result struct {
	Definition string
	Jobs       []JobResult
	// WatchPaths is every input file of this pass: the definition file,
	// include files (attempted ones included, so a missing include is
	// picked up once it appears), and resolved template sources. Rendered
	// destinations are deliberately absent; watching them would turn each
	// pass's own writes into new change events.
	WatchPaths []string
}

// Failed reports whether any job in the pass failed.
func (r *Result) Failed() bool {
	for _, job := range r.Jobs {
		if job.Err != nil {
			return true
		}
	}
	return false
}

// Process renders every job of the definition file at defPath. A failing
// job is recorded in the result and does not stop the remaining jobs; only
// a definition that cannot be loaded at all fails the whole pass.
func Process(eng *render.Engine, defPath string, force bool) (*Result, error) {
	def, err := definition.Load(defPath)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(defPath)
	result := &Result{Definition: defPath}

	watched := map[string]bool{}
	addWatch := func(paths ...string) {
		for _, p := range paths {
			if p == "" || watched[p] {
				continue
			}
			watched[p] = true
			result.WatchPaths = append(result.WatchPaths, p)
		}
	}
	addWatch(defPath)

	for _, job := range def.Templates {
		ui.Info("Render template: '%s' -> '%s'", job.Src, job.Dest)
		jr := JobResult{Src: job.Src, Dest: job.Dest}

		res, err := variables.Resolve(eng,
			variables.Stage{Vars: def.Vars, IncludePaths: def.IncludeVars, BaseDir: baseDir, Origin: defPath},
			variables.Stage{Vars: job.Vars, IncludePaths: job.IncludeVars, BaseDir: baseDir, Origin: defPath},
		)
		if res != nil {
			addWatch(res.IncludeFiles...)
		}
		if err != nil {
			jr.Err = err
			result.Jobs = append(result.Jobs, jr)
			continue
		}

		rendered, err := eng.RenderFile(job.Src, job.Dest, baseDir, res.Context, force)
		if rendered != nil {
			if rendered.SrcPath != "" {
				jr.Src = rendered.SrcPath
				addWatch(rendered.SrcPath)
			}
			if rendered.DestPath != "" {
				jr.Dest = rendered.DestPath
			}
		}
		if err == nil {
			ui.Success("Created '%s'", jr.Dest)
		}
		jr.Err = err
		result.Jobs = append(result.Jobs, jr)
	}

	return result, nil
}
