package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/adapters/embedding"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/config"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/fsutil"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/logging"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/service"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/tui"
)

// flagBindings maps config keys to the persistent flags overriding them.
var flagBindings = map[string]string{
	"log.level":  "log-level",
	"log.format": "log-format",
}

// loadConfig reads and validates configuration. Each call uses a fresh viper
// instance so flags only apply to the command being run.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	for key, name := range flagBindings {
		if f := cmd.Flag(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}

	loader := config.NewLoaderWithViper(v)
	if o.cfgFile != "" {
		loader.WithConfigFile(o.cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. --quiet raises the level to error
// unless logs go to a file.
func (o *globalOptions) newLogger(cfg *config.Config, stderr io.Writer) (*logging.Logger, func(), error) {
	out := stderr
	closeFn := func() {}
	if cfg.Log.File != "" {
		f, err := logging.OpenFile(cfg.Log.File)
		if err != nil {
			return nil, nil, err
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	level := cfg.Log.Level
	if o.quiet && cfg.Log.File == "" {
		level = "error"
	}
	return logging.New(logging.Config{Level: level, Format: cfg.Log.Format, Output: out}), closeFn, nil
}

func engineConfig(cfg *config.Config) service.EngineConfig {
	return service.EngineConfig{
		MinimumConfidence:  cfg.Consensus.MinimumConfidence,
		MinClaimLength:     cfg.Consensus.MinClaimLength,
		RelevanceThreshold: cfg.Consensus.RelevanceThreshold,
		MaxClusters:        cfg.Consensus.MaxClusters,
		ClusterWeightFloor: cfg.Consensus.ClusterWeightFloor,
		MaxInsights:        cfg.Consensus.MaxInsights,
		ClusteringMode:     cfg.Consensus.Clustering.Mode,
		SimpleThreshold:    cfg.Consensus.Clustering.SimpleThreshold,
		KeywordThreshold:   cfg.Consensus.Clustering.KeywordThreshold,
		ClinicalFailFast:   cfg.Clinical.FailFast,
	}
}

// newEmbedder returns nil when no provider is configured.
func newEmbedder(cfg config.EmbeddingConfig, logger *logging.Logger) (core.Embedder, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "openai":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		emb, err := embedding.NewOpenAI(embedding.Config{
			APIKey:    apiKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			BatchSize: cfg.BatchSize,
			Timeout:   config.ParseDuration(cfg.Timeout, embedding.DefaultTimeout),
			Retry:     embedding.NewRetryPolicy(embedding.WithMaxAttempts(cfg.MaxAttempts)),
		}, logger.With("component", "embedding"))
		if err != nil {
			return nil, err
		}
		return emb, nil
	default:
		return nil, core.ErrValidation(core.CodeInvalidConfig,
			fmt.Sprintf("unknown embedding provider %q", cfg.Provider))
	}
}

// buildEngine wires the synthesis engine from configuration.
func buildEngine(cfg *config.Config, logger *logging.Logger, observers ...core.Observer) (*service.Engine, error) {
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithObservers(observers...),
	}

	if cfg.RulesFile != "" {
		rules, err := service.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithRules(rules))
	}

	emb, err := newEmbedder(cfg.Embedding, logger)
	if err != nil {
		return nil, err
	}
	if emb != nil {
		opts = append(opts, service.WithEmbedder(emb))
	}

	return service.NewEngine(engineConfig(cfg), opts...)
}

// openStore returns nil when persistence is disabled.
func openStore(cfg *config.Config) (core.ResultStore, error) {
	if !cfg.Store.Enabled {
		return nil, nil
	}
	return state.NewResultStore(cfg.Store.Backend, cfg.Store.Path)
}

// requireStore is openStore for commands that cannot work without one.
func requireStore(cfg *config.Config) (core.ResultStore, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, core.ErrValidation(core.CodeInvalidConfig,
			"result store is disabled (store.enabled: false)")
	}
	return store, nil
}

// readInput decodes a consensus input file. YAML is chosen by extension;
// everything else, including "-" for stdin, is read as JSON.
func readInput(path string, stdin io.Reader) (*core.ConsensusInput, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, fsutil.MaxInputBytes))
	} else {
		data, err = fsutil.ReadFileScoped(path, fsutil.MaxInputBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	var input core.ConsensusInput
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &input)
	default:
		err = json.Unmarshal(data, &input)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &input, nil
}

// outputMode resolves --format against terminal detection for w.
func (o *globalOptions) outputMode(format string, w io.Writer) (tui.OutputMode, error) {
	d := tui.NewDetector().NoColor(o.noColor)
	if format != "" && format != "auto" {
		mode, ok := tui.ParseOutputMode(format)
		if !ok {
			return 0, fmt.Errorf("unknown format %q (auto, rich, plain, json, yaml)", format)
		}
		d.ForceMode(mode)
	}
	return d.Detect(w), nil
}

// renderers returns one renderer for results on stdout and one for
// per-item failures on stderr, so structured output stays parseable.
func (o *globalOptions) renderers(cmd *cobra.Command, format string, h *core.EvidenceHierarchy) (*tui.Renderer, *tui.Renderer, error) {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	mode, err := o.outputMode(format, out)
	if err != nil {
		return nil, nil, err
	}
	errMode := tui.ModePlain
	if tui.NewDetector().NoColor(o.noColor).ShouldUseColor(errOut) {
		errMode = tui.ModeRich
	}
	return tui.NewRenderer(out, mode, tui.WithHierarchy(h), tui.WithWidth(tui.TerminalWidth(out))),
		tui.NewRenderer(errOut, errMode, tui.WithHierarchy(h)),
		nil
}

// signalContext cancels on SIGINT and SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// notef prints a status line to stderr unless --quiet is set.
func (o *globalOptions) notef(cmd *cobra.Command, format string, args ...any) {
	if o.quiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
