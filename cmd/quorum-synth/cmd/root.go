package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version info - set via SetVersion()
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	cfgFile   string
	logLevel  string
	logFormat string
	noColor   bool
	quiet     bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "quorum-synth",
		Short: "Merge multi-agent answers into one evidence-graded consensus",
		Long: `quorum-synth takes the answers several AI agents gave to the same
clinical or regulatory question and synthesizes a single answer, with a
confidence score, an evidence level, citations and a quality score.

Inputs are JSON or YAML documents holding the query and the agent responses.
Results are stored locally so they can be listed, shown and served over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "",
		"config file (default: ./.quorum-synth.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "auto",
		"log format (auto, text, json)")
	pf.BoolVar(&opts.noColor, "no-color", false,
		"disable colored output")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false,
		"suppress non-essential output")

	root.AddCommand(
		newSynthesizeCmd(opts),
		newServeCmd(opts),
		newHistoryCmd(opts),
		newShowCmd(opts),
		newWatchCmd(opts),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI and prints the returned error.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	}
	return err
}

// SetVersion records build information for the version command.
func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// GetVersion returns the application version string.
func GetVersion() string {
	return appVersion
}
