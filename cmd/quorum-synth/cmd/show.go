package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/tui"
)

// inputGetter is implemented by stores that keep the originating input.
type inputGetter interface {
	GetInput(ctx context.Context, id string) (*core.ConsensusInput, error)
}

type showOptions struct {
	format string
	input  bool
	output string
	copy   bool
}

func newShowCmd(g *globalOptions) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show <result-id>",
		Short: "Show a stored result",
		Long: `Show a stored result by ID.

Examples:
  quorum-synth show 6f1c2a0e-...
  quorum-synth show --input --format yaml 6f1c2a0e-...
  quorum-synth show --output result.json 6f1c2a0e-...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, g, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "auto", "output format (auto, rich, plain, json, yaml)")
	f.BoolVar(&opts.input, "input", false, "print the stored input instead of the result")
	f.StringVarP(&opts.output, "output", "o", "", "export the result and its input to a JSON file")
	f.BoolVar(&opts.copy, "copy", false, "copy the answer to the clipboard")
	return cmd
}

func runShow(cmd *cobra.Command, g *globalOptions, opts *showOptions, id string) error {
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
	result, err := store.Get(ctx, id)
	if err != nil {
		return err
	}

	var input *core.ConsensusInput
	if opts.input || opts.output != "" {
		if getter, ok := store.(inputGetter); ok {
			if input, err = getter.GetInput(ctx, id); err != nil {
				return err
			}
		}
	}

	if opts.output != "" {
		if err := state.WriteResultFile(opts.output, input, result); err != nil {
			return err
		}
		g.notef(cmd, "Exported %s to %s", id, opts.output)
	}

	if opts.input {
		if input == nil {
			return fmt.Errorf("no input was stored for result %s", id)
		}
		return writeInput(cmd, opts.format, input)
	}

	out, _, err := g.renderers(cmd, opts.format, core.DefaultEvidenceHierarchy())
	if err != nil {
		return err
	}
	if err := out.Result(result); err != nil {
		return err
	}
	if opts.copy {
		return copyAnswer(cmd, g, result)
	}
	return nil
}

// writeInput prints an input document as YAML when asked, JSON otherwise.
func writeInput(cmd *cobra.Command, format string, input *core.ConsensusInput) error {
	if mode, ok := tui.ParseOutputMode(format); ok && mode == tui.ModeYAML {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(input); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(input)
}
