// Package embedding provides core.Embedder implementations backed by
// OpenAI-compatible embedding endpoints.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/logging"
)

// Defaults for the OpenAI embedder.
const (
	DefaultModel     = string(openai.SmallEmbedding3)
	DefaultBatchSize = 64
	DefaultTimeout   = 30 * time.Second
)

// Config configures an OpenAIEmbedder.
type Config struct {
	APIKey    string
	BaseURL   string // empty uses the OpenAI API
	Model     string
	BatchSize int
	Timeout   time.Duration
	Retry     *RetryPolicy
}

// OpenAIEmbedder embeds claim texts through the embeddings endpoint.
// It implements core.Embedder and core.Warmer.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	batchSize int
	timeout   time.Duration
	retry     *RetryPolicy
	logger    *logging.Logger
}

// NewOpenAI creates an embedder. An API key is required unless BaseURL
// points at a self-hosted endpoint.
func NewOpenAI(cfg Config, logger *logging.Logger) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, core.ErrValidation(core.CodeInvalidConfig, "embedding api key is required for the OpenAI endpoint")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry == nil {
		cfg.Retry = DefaultRetryPolicy()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		timeout:   cfg.Timeout,
		retry:     cfg.Retry,
		logger:    logger.WithStage("embedding"),
	}, nil
}

// Name identifies the provider and model.
func (o *OpenAIEmbedder) Name() string {
	return "openai:" + o.model
}

// Warm probes the endpoint with a single short input.
func (o *OpenAIEmbedder) Warm(ctx context.Context) error {
	vectors, err := o.Embed(ctx, []string{"warm-up"})
	if err != nil {
		return err
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return core.ErrExecution(core.CodeEmbeddingFailed, "embedding endpoint returned an empty vector")
	}
	o.logger.Info("embedding provider ready", "model", o.model, "dimensions", len(vectors[0]))
	return nil
}

// Embed returns one vector per text, in input order.
func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += o.batchSize {
		end := start + o.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := o.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (o *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse

	err := o.retry.Execute(ctx, func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()

		r, err := o.client.CreateEmbeddings(reqCtx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(o.model),
		})
		if err != nil {
			return classify(err)
		}
		resp = r
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		o.logger.Warn("embedding request failed, retrying", "attempt", attempt, "delay", delay, "error", err)
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, core.ErrExecution(core.CodeEmbeddingFailed,
			fmt.Sprintf("endpoint returned %d embeddings for %d inputs", len(resp.Data), len(texts)))
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// classify converts client errors into domain errors. Rate limits, server
// errors and timeouts are retryable.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	de := core.ErrExecution(core.CodeEmbeddingFailed, "embedding request failed").WithCause(err)
	de.Retryable = false
	switch {
	case status == http.StatusTooManyRequests, status >= 500:
		de.Retryable = true
	case status == 0 && errors.Is(err, context.DeadlineExceeded):
		de.Retryable = true
	}
	if status != 0 {
		de.WithDetail("status", status)
	}
	return de
}

var (
	_ core.Embedder = (*OpenAIEmbedder)(nil)
	_ core.Warmer   = (*OpenAIEmbedder)(nil)
)
