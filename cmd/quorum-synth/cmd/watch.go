package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/watch"
)

type watchOptions struct {
	format    string
	outputDir string
	noStore   bool
	debounce  time.Duration
}

func newWatchCmd(g *globalOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Synthesize input files as they appear in a directory",
		Long: `Watch a directory and synthesize every JSON or YAML input file written
to it. Rewriting a file synthesizes it again.

Examples:
  quorum-synth watch ./inbox
  quorum-synth watch --output-dir ./outbox --format json ./inbox`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, g, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "auto", "output format (auto, rich, plain, json, yaml)")
	f.StringVar(&opts.outputDir, "output-dir", "", "also write each result as <id>.json into this directory")
	f.BoolVar(&opts.noStore, "no-store", false, "do not save results to the result store")
	f.DurationVar(&opts.debounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is read")
	return cmd
}

func runWatch(cmd *cobra.Command, g *globalOptions, opts *watchOptions, dir string) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := g.newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	out, errOut, err := g.renderers(cmd, opts.format, engine.Hierarchy())
	if err != nil {
		return err
	}

	var store core.ResultStore
	if !opts.noStore {
		if store, err = openStore(cfg); err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}
	}

	ctx, stop := signalContext(cmd)
	defer stop()
	_ = engine.Initialize(ctx)

	var renderMu sync.Mutex
	handle := func(ctx context.Context, path string) {
		var result *core.ConsensusResult
		input, err := readInput(path, nil)
		if err == nil {
			result, err = engine.Synthesize(ctx, input)
		}

		renderMu.Lock()
		defer renderMu.Unlock()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("synthesis failed", "path", path, "error", err)
			errOut.Failure(path, err)
			return
		}

		persistResult(ctx, logger, store, input, result)
		if opts.outputDir != "" {
			dst := filepath.Join(opts.outputDir, result.ID+".json")
			if err := state.WriteResultFile(dst, input, result); err != nil {
				logger.Warn("writing result file", "path", dst, "error", err)
			}
		}
		if err := out.Result(result); err != nil {
			logger.Warn("rendering result", "path", path, "error", err)
		}
	}

	w := watch.New(dir, watch.WithDebounce(opts.debounce), watch.WithLogger(logger))
	g.notef(cmd, "Watching %s (Ctrl+C to stop)", dir)
	return w.Run(ctx, handle)
}
