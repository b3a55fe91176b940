package service

import (
	"context"
	"fmt"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// Clustering thresholds. Claims merge only when similarity is strictly greater.
const (
	SimpleClusterThreshold  = 0.3
	KeywordClusterThreshold = 0.6
)

// Strategy names reported in result metadata.
const (
	StrategySimple    = "simple"
	StrategyKeyword   = "keyword"
	StrategyEmbedding = "embedding"
)

// ClusterStrategy groups claims that make the same point.
type ClusterStrategy interface {
	Name() string
	Cluster(ctx context.Context, claims []*core.Claim) ([]*core.Cluster, error)
}

// GreedyClusterer is a single-pass, order-dependent clusterer: the first
// unassigned claim anchors a new cluster and every later unassigned claim whose
// similarity to the anchor exceeds Threshold joins it. The result depends on
// claim order and is not a globally optimal partition.
type GreedyClusterer struct {
	name      string
	Threshold float64
}

// NewSimpleClusterer clusters on token Jaccard similarity above 0.3.
func NewSimpleClusterer() *GreedyClusterer {
	return &GreedyClusterer{name: StrategySimple, Threshold: SimpleClusterThreshold}
}

// NewKeywordClusterer clusters on token Jaccard similarity above 0.6.
func NewKeywordClusterer() *GreedyClusterer {
	return &GreedyClusterer{name: StrategyKeyword, Threshold: KeywordClusterThreshold}
}

// NewJaccardClusterer clusters on token Jaccard similarity above threshold.
func NewJaccardClusterer(name string, threshold float64) *GreedyClusterer {
	return &GreedyClusterer{name: name, Threshold: threshold}
}

// Name returns the strategy name.
func (g *GreedyClusterer) Name() string {
	return g.name
}

// Cluster groups claims by token Jaccard similarity.
func (g *GreedyClusterer) Cluster(_ context.Context, claims []*core.Claim) ([]*core.Cluster, error) {
	tokens := make([][]string, len(claims))
	for i, c := range claims {
		tokens[i] = Tokenize(c.Text)
	}
	return greedyCluster(claims, g.Threshold, func(i, j int) float64 {
		return JaccardSimilarity(tokens[i], tokens[j])
	}), nil
}

// EmbeddingClusterer clusters on cosine similarity of embedder vectors.
type EmbeddingClusterer struct {
	embedder  core.Embedder
	Threshold float64
}

// NewEmbeddingClusterer creates an embedding-backed greedy clusterer.
func NewEmbeddingClusterer(embedder core.Embedder, threshold float64) *EmbeddingClusterer {
	return &EmbeddingClusterer{embedder: embedder, Threshold: threshold}
}

// Name returns the strategy name.
func (e *EmbeddingClusterer) Name() string {
	return StrategyEmbedding
}

// Cluster embeds every claim once and groups them greedily.
func (e *EmbeddingClusterer) Cluster(ctx context.Context, claims []*core.Claim) ([]*core.Cluster, error) {
	if len(claims) == 0 {
		return nil, nil
	}

	texts := make([]string, len(claims))
	for i, c := range claims {
		texts[i] = c.Text
	}

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, core.ErrExecution(core.CodeEmbeddingFailed, "embedding claims").WithCause(err)
	}
	if len(vectors) != len(claims) {
		return nil, core.ErrExecution(core.CodeEmbeddingFailed,
			fmt.Sprintf("embedder %s returned %d vectors for %d claims", e.embedder.Name(), len(vectors), len(claims)))
	}

	return greedyCluster(claims, e.Threshold, func(i, j int) float64 {
		return CosineSimilarity(vectors[i], vectors[j])
	}), nil
}

// greedyCluster merges claim j into the cluster anchored by claim i when
// sim(i, j) > threshold and j is unassigned. Merged claims add their agents
// to the anchor's supporting set.
func greedyCluster(claims []*core.Claim, threshold float64, sim func(i, j int) float64) []*core.Cluster {
	assigned := make([]bool, len(claims))
	clusters := make([]*core.Cluster, 0)

	for i := range claims {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		anchor := claims[i]
		cluster := &core.Cluster{Claims: []*core.Claim{anchor}}

		for j := i + 1; j < len(claims); j++ {
			if assigned[j] {
				continue
			}
			if sim(i, j) > threshold {
				assigned[j] = true
				cluster.Claims = append(cluster.Claims, claims[j])
				anchor.AddSupport(claims[j].SupportingAgents...)
			}
		}
		clusters = append(clusters, cluster)
	}

	return clusters
}
