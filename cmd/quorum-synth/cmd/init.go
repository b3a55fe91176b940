package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/config"
)

const defaultConfigPath = ".quorum-synth.yaml"

type initOptions struct {
	force bool
	path  string
}

func newInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write the default configuration to .quorum-synth.yaml in the current
directory, or to --path. Existing files are kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing configuration")
	cmd.Flags().StringVar(&opts.path, "path", defaultConfigPath, "where to write the configuration")
	return cmd
}

func runInit(cmd *cobra.Command, opts *initOptions) error {
	if _, err := os.Stat(opts.path); err == nil && !opts.force {
		return fmt.Errorf("configuration already exists at %s, use --force to overwrite", opts.path)
	}

	if err := config.AtomicWrite(opts.path, []byte(config.DefaultConfigYAML)); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", opts.path)
	return nil
}
