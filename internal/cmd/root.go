// Package cmd provides the templer CLI.
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/templer/internal/pipeline"
	"github.com/cameronsjo/templer/internal/render"
	"github.com/cameronsjo/templer/internal/ui"
	"github.com/cameronsjo/templer/internal/watch"
)

const version = "1.1.0"

var (
	autoRender     bool
	forceOverwrite bool
	quietOutput    bool
	verbosity      int
)

// errRendersFailed signals a non-zero exit after per-job errors were
// already reported.
var errRendersFailed = errors.New("some renders failed")

// rootCmd represents the base command; templer has a single command
// surface, so the root does the work.
var rootCmd = &cobra.Command{
	Use:   "templer [flags] definition-file...",
	Short: "Render Docker Compose file templates",
	Long: `templer - render Docker Compose file templates

Definition files list template jobs (src, dest) along with global and
per-template variables and variable include files. Variables merge in the
order global include_vars < global vars < local include_vars < local vars;
nested mappings merge recursively and each value may reference anything
defined before it.

Examples:
  # Render every job in a definition file
  templer definition.yml

  # Overwrite existing destination files
  templer -f definition.yml

  # Keep re-rendering whenever an input file changes
  templer -a -f definition.yml`,
	Args:    cobra.MinimumNArgs(1),
	Version: version,
	RunE:    run,
}

func init() {
	rootCmd.Flags().BoolVarP(&autoRender, "auto-render", "a", false, "automatically re-render when a file changes")
	rootCmd.Flags().BoolVarP(&forceOverwrite, "force", "f", false, "overwrite existing destination files")
	rootCmd.Flags().BoolVarP(&quietOutput, "quiet", "q", false, "only print errors")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "enable verbose output (repeat for debug)")
	rootCmd.SetVersionTemplate("templer version {{.Version}}\n")
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

// Execute runs the CLI and exits non-zero on any failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if quietOutput {
		ui.Quiet()
	} else {
		ui.SetVerbosity(verbosity)
	}
	eng := render.NewEngine()

	// lastPaths keeps each definition's watch contribution from its last
	// successful pass, so a definition that temporarily fails to load
	// stays watched with its previous path set.
	lastPaths := make(map[string][]string)

	processAll := func() (paths []string, failed bool) {
		for _, defPath := range args {
			res, err := pipeline.Process(eng, defPath, forceOverwrite)
			if err != nil {
				ui.Error("%v", err)
				failed = true
				continue
			}
			for _, job := range res.Jobs {
				if job.Err != nil {
					ui.Error("render '%s': %v", job.Src, job.Err)
					failed = true
				}
			}
			lastPaths[defPath] = res.WatchPaths
		}

		seen := make(map[string]bool)
		for _, defPath := range args {
			paths = append(paths, defPath)
			seen[defPath] = true
			for _, p := range lastPaths[defPath] {
				if !seen[p] {
					seen[p] = true
					paths = append(paths, p)
				}
			}
		}
		return paths, failed
	}

	if !autoRender {
		if _, failed := processAll(); failed {
			ui.Error("Some renders failed")
			return errRendersFailed
		}
		return nil
	}

	// Watch mode: render once up front, then re-render on change. Reload
	// failures are reported and watching continues.
	ui.Info("Auto-render started")
	initial, failed := processAll()
	if failed {
		ui.Warning("Some renders failed")
	}

	ctrl, err := watch.New(watch.DefaultDebounce, func() []string {
		paths, failed := processAll()
		if failed {
			ui.Warning("Some renders failed")
		}
		return paths
	})
	if err != nil {
		ui.Error("start watcher: %v", err)
		return err
	}
	ctrl.SetPaths(initial)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.Debug("Listening for file changes...")
	if err := ctrl.Start(ctx); err != nil {
		ui.Error("watcher: %v", err)
		return err
	}
	ui.Info("Auto-render stopped")
	return nil
}
