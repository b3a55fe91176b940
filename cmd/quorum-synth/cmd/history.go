package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/tui"
)

// resultPruner is implemented by both store backends.
type resultPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

type historyOptions struct {
	format string
	limit  int
	search string
	prune  time.Duration
}

func newHistoryCmd(g *globalOptions) *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored results",
		Long: `List stored results, newest first.

Examples:
  quorum-synth history --limit 5
  quorum-synth history --search "statin dosing"
  quorum-synth history --prune 720h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, g, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "auto", "output format (auto, rich, plain, json, yaml)")
	f.IntVarP(&opts.limit, "limit", "n", 20, "maximum results to list (0 for all)")
	f.StringVarP(&opts.search, "search", "s", "", "fuzzy-filter results by query text")
	f.DurationVar(&opts.prune, "prune", 0, "delete results older than this age instead of listing")
	return cmd
}

func runHistory(cmd *cobra.Command, g *globalOptions, opts *historyOptions) error {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := requireStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	if opts.prune > 0 {
		p, ok := store.(resultPruner)
		if !ok {
			return fmt.Errorf("store backend does not support pruning")
		}
		n, err := p.Prune(ctx, time.Now().Add(-opts.prune))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d result(s)\n", n)
		return nil
	}

	// Searching ranks across everything, then applies the limit.
	listLimit := opts.limit
	if opts.search != "" {
		listLimit = 0
	}
	summaries, err := store.List(ctx, listLimit)
	if err != nil {
		return err
	}
	if opts.search != "" {
		summaries = tui.FilterSummaries(opts.search, summaries)
		if opts.limit > 0 && len(summaries) > opts.limit {
			summaries = summaries[:opts.limit]
		}
	}

	out, _, err := g.renderers(cmd, opts.format, core.DefaultEvidenceHierarchy())
	if err != nil {
		return err
	}
	return out.History(summaries)
}
