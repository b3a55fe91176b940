package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/clip"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/logging"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/tui"
)

type synthesizeOptions struct {
	format        string
	minConfidence float64
	clinical      bool
	output        string
	copy          bool
	noStore       bool
	concurrency   int
}

func newSynthesizeCmd(g *globalOptions) *cobra.Command {
	opts := &synthesizeOptions{}

	cmd := &cobra.Command{
		Use:     "synthesize <input-file>...",
		Aliases: []string{"synth"},
		Short:   "Synthesize a consensus answer from agent responses",
		Long: `Synthesize reads one or more input documents (JSON, or YAML by extension;
"-" reads JSON from stdin) and prints the synthesized answer for each.

Examples:
  # One input, rendered for the terminal
  quorum-synth synthesize responses.json

  # Several inputs in parallel, as a JSON array
  quorum-synth synthesize --format json cases/*.yaml

  # Require clinical validation and copy the answer
  quorum-synth synthesize --clinical --copy responses.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynthesize(cmd, g, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "auto", "output format (auto, rich, plain, json, yaml)")
	f.Float64Var(&opts.minConfidence, "min-confidence", 0.7, "override the minimum response confidence")
	f.BoolVar(&opts.clinical, "clinical", false, "require clinical validation")
	f.StringVarP(&opts.output, "output", "o", "", "also write results as JSON (a file for one input, a directory for several)")
	f.BoolVar(&opts.copy, "copy", false, "copy the answer to the clipboard (single input only)")
	f.BoolVar(&opts.noStore, "no-store", false, "do not save results to the result store")
	f.IntVarP(&opts.concurrency, "concurrency", "j", runtime.NumCPU(), "inputs synthesized in parallel")
	return cmd
}

// synthesisJob tracks one input through the batch.
type synthesisJob struct {
	path   string
	input  *core.ConsensusInput
	result *core.ConsensusResult
	err    error
}

func runSynthesize(cmd *cobra.Command, g *globalOptions, opts *synthesizeOptions, paths []string) error {
	if opts.copy && len(paths) > 1 {
		return fmt.Errorf("--copy needs exactly one input, got %d", len(paths))
	}
	if cmd.Flags().Changed("min-confidence") && (opts.minConfidence < 0 || opts.minConfidence > 1) {
		return fmt.Errorf("--min-confidence must be within [0,1], got %v", opts.minConfidence)
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

	ctx, stop := signalContext(cmd)
	defer stop()

	// A failed warm-up degrades clustering and is logged by the engine.
	_ = engine.Initialize(ctx)

	var store core.ResultStore
	if !opts.noStore {
		if store, err = openStore(cfg); err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}
	}

	jobs := make([]*synthesisJob, len(paths))
	var eg errgroup.Group
	eg.SetLimit(max(opts.concurrency, 1))
	for i, path := range paths {
		job := &synthesisJob{path: path}
		jobs[i] = job
		eg.Go(func() error {
			job.input, job.err = readInput(path, cmd.InOrStdin())
			if job.err != nil {
				return nil
			}
			opts.apply(cmd, job.input)
			job.result, job.err = engine.Synthesize(ctx, job.input)
			return nil
		})
	}
	_ = eg.Wait()

	var (
		results []*core.ConsensusResult
		failed  []*synthesisJob
	)
	for _, job := range jobs {
		if job.err != nil {
			failed = append(failed, job)
			continue
		}
		results = append(results, job.result)
		persistResult(ctx, logger, store, job.input, job.result)
		if opts.output != "" {
			if err := state.WriteResultFile(outputPath(opts.output, job, len(paths)), job.input, job.result); err != nil {
				return err
			}
		}
	}

	if len(paths) == 1 {
		if len(failed) == 1 {
			return failed[0].err
		}
		if err := out.Result(results[0]); err != nil {
			return err
		}
		if opts.copy {
			return copyAnswer(cmd, g, results[0])
		}
		return nil
	}

	if len(results) > 0 {
		if err := out.Results(results); err != nil {
			return err
		}
	}
	for _, job := range failed {
		errOut.Failure(job.path, job.err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d inputs failed", len(failed), len(paths))
	}
	return nil
}

// apply copies command-line overrides onto the input.
func (o *synthesizeOptions) apply(cmd *cobra.Command, input *core.ConsensusInput) {
	if cmd.Flags().Changed("min-confidence") {
		v := o.minConfidence
		input.MinimumConfidence = &v
	}
	if o.clinical {
		input.RequireClinicalValidation = true
	}
}

func outputPath(output string, job *synthesisJob, inputs int) string {
	if inputs == 1 {
		return output
	}
	return filepath.Join(output, job.result.ID+".json")
}

// persistResult saves to store when one is configured. A failed save is
// logged and does not fail the synthesis.
func persistResult(ctx context.Context, logger *logging.Logger, store core.ResultStore, input *core.ConsensusInput, result *core.ConsensusResult) {
	if store == nil {
		return
	}
	if err := store.Save(ctx, input, result); err != nil {
		logger.Warn("saving result", "result_id", result.ID, "error", err)
	}
}

func copyAnswer(cmd *cobra.Command, g *globalOptions, result *core.ConsensusResult) error {
	copier := clip.NewCopier()
	if f, ok := cmd.ErrOrStderr().(*os.File); ok {
		copier.Terminal = f
	}
	res, err := copier.WriteAll(tui.AnswerMarkdown(result))
	if err != nil {
		return fmt.Errorf("copying answer: %w", err)
	}
	g.notef(cmd, "%s", res.Describe())
	return nil
}
