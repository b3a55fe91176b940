package service

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

func newTestSynthesizer(maxInsights int) *Synthesizer {
	return NewSynthesizer(core.DefaultEvidenceHierarchy(), nil, DefaultMaxClusters, DefaultClusterWeightFloor, maxInsights)
}

func insightCluster() *core.Cluster {
	return clusterOf(
		claim("c", "Drug X reduces mortality in condition Y", 0.5, core.Grade2b),
		claim("a", "Drug X is first-line for condition Y", 0.9, core.Grade1a),
		claim("b", "drug X is first line for condition Y", 0.8, core.Grade2a),
		claim("d", "ACE inhibitors are an alternative in condition Y", 0.4, core.Grade3a),
	)
}

func TestSynthesizer_Paragraph(t *testing.T) {
	tests := []struct {
		name        string
		maxInsights int
		want        string
	}{
		{
			name:        "duplicate insight skipped",
			maxInsights: 2,
			want:        "Drug X is first-line for condition Y. Additionally, drug X reduces mortality in condition Y.",
		},
		{
			name:        "acronym keeps its case",
			maxInsights: 3,
			want: "Drug X is first-line for condition Y. Additionally, drug X reduces mortality in condition Y; " +
				"ACE inhibitors are an alternative in condition Y.",
		},
		{
			name:        "anchor only",
			maxInsights: 0,
			want:        "Drug X is first-line for condition Y.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := newTestSynthesizer(tt.maxInsights).Synthesize("Which option for condition Y", []*core.Cluster{insightCluster()}, nil)
			if out.Answer != tt.want {
				t.Errorf("Answer =\n%q\nwant\n%q", out.Answer, tt.want)
			}
		})
	}
}

func TestSynthesizer_AgentsAndCitations(t *testing.T) {
	responses := []core.AgentResponse{
		{AgentID: "a", EvidenceSources: []string{"PMID:1", "PMID:2"}},
		{AgentID: "b", EvidenceSources: []string{"PMID:2", " "}},
		{AgentID: "z", EvidenceSources: []string{"PMID:9"}},
	}
	weak := clusterOf(claim("z", "Observational data hint at a benefit", 0.1, core.Grade4))

	out := newTestSynthesizer(DefaultMaxInsights).Synthesize("Which option for condition Y", []*core.Cluster{weak, insightCluster()}, responses)

	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, out.ParticipatingAgents); diff != "" {
		t.Errorf("ParticipatingAgents mismatch (-want +got):\n%s", diff)
	}
	want := []string{"Evidence level: 1a, 2a, 2b, 3a", "PMID:1", "PMID:2"}
	if diff := cmp.Diff(want, out.Citations); diff != "" {
		t.Errorf("Citations mismatch (-want +got):\n%s", diff)
	}
	if out.Emitted != 1 {
		t.Errorf("Emitted = %d, want 1", out.Emitted)
	}
}

func TestSynthesizer_CitationNeedsTopTierGrade(t *testing.T) {
	s := newTestSynthesizer(DefaultMaxInsights)

	low := clusterOf(
		claim("a", "Low-grade claim about condition Y", 0.5, core.Grade2b),
		claim("b", "Another low-grade claim about condition Y", 0.5, core.Grade3a),
	)
	if out := s.Synthesize("condition Y", []*core.Cluster{low}, nil); len(out.Citations) != 0 {
		t.Errorf("Citations = %v, want none", out.Citations)
	}

	mixed := clusterOf(
		claim("a", "Expert opinion on condition Y", 0.5, core.Grade4),
		claim("b", "Trial evidence on condition Y", 0.5, core.Grade1b),
	)
	out := s.Synthesize("condition Y", []*core.Cluster{mixed}, nil)
	if diff := cmp.Diff([]string{"Evidence level: 1b, 4"}, out.Citations); diff != "" {
		t.Errorf("Citations mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizer_ClusterLimits(t *testing.T) {
	s := newTestSynthesizer(DefaultMaxInsights)

	var many []*core.Cluster
	for i, w := range []float64{0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.35} {
		many = append(many, clusterOf(claim(string(rune('a'+i)), "claim text for condition Y", w, core.Grade2b)))
	}
	if out := s.Synthesize("condition Y", many, nil); out.Emitted != DefaultMaxClusters {
		t.Errorf("Emitted = %d, want %d", out.Emitted, DefaultMaxClusters)
	}

	floored := []*core.Cluster{
		clusterOf(claim("a", "Heavy claim", 1.0, core.Grade1a)),
		clusterOf(claim("b", "Light claim", 0.29, core.Grade1a)),
		clusterOf(claim("c", "Medium claim", 0.5, core.Grade1a)),
	}
	out := s.Synthesize("condition Y", floored, nil)
	if out.Emitted != 2 {
		t.Errorf("Emitted = %d, want 2", out.Emitted)
	}
	if diff := cmp.Diff([]string{"a", "c"}, out.ParticipatingAgents); diff != "" {
		t.Errorf("ParticipatingAgents mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizer_InsufficientConsensus(t *testing.T) {
	out := newTestSynthesizer(DefaultMaxInsights).Synthesize("condition Y", []*core.Cluster{
		clusterOf(claim("a", "Barely relevant claim", 0.1, core.Grade5)),
	}, nil)

	if out.Answer != InsufficientConsensusNotice {
		t.Errorf("Answer = %q", out.Answer)
	}
	if len(out.ParticipatingAgents) != 0 {
		t.Errorf("ParticipatingAgents = %v, want empty", out.ParticipatingAgents)
	}
}

func TestSynthesizer_DomainFraming(t *testing.T) {
	s := newTestSynthesizer(DefaultMaxInsights)
	clusters := func() []*core.Cluster {
		return []*core.Cluster{clusterOf(claim("a", "Labeling must list boxed warnings", 0.8, core.Grade1a))}
	}

	tests := []struct {
		name    string
		query   string
		domain  string
		preface string
		caveat  string
	}{
		{
			name:    "regulatory",
			query:   "What does FDA guidance require for labeling?",
			domain:  "regulatory",
			preface: "Based on current regulatory guidance and expert analysis:",
			caveat:  "Regulatory requirements differ between jurisdictions",
		},
		{
			name:    "clinical wins when both match",
			query:   "How should patients be dosed under FDA guidance?",
			domain:  "clinical",
			preface: "Based on the available clinical evidence from multiple expert sources:",
			caveat:  "Consult a qualified healthcare professional",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := s.Synthesize(tt.query, clusters(), nil)
			if out.Domain != tt.domain {
				t.Errorf("Domain = %q, want %q", out.Domain, tt.domain)
			}
			if !strings.HasPrefix(out.Answer, tt.preface+"\n\n") {
				t.Errorf("Answer should start with preface, got %q", out.Answer)
			}
			if !strings.Contains(out.Answer, "Important considerations:\n- ") || !strings.Contains(out.Answer, tt.caveat) {
				t.Errorf("Answer should end with caveats, got %q", out.Answer)
			}
			if strings.Index(out.Answer, "Labeling must list boxed warnings.") > strings.Index(out.Answer, "Important considerations:") {
				t.Error("caveats must follow the body")
			}
		})
	}

	plain := s.Synthesize("Which colour is the sky", clusters(), nil)
	if plain.Domain != "" || plain.Answer != "Labeling must list boxed warnings." {
		t.Errorf("unexpected framing without a domain: %+v", plain)
	}
}

func TestRankClusters_Stable(t *testing.T) {
	a := clusterOf(claim("a", "first", 0.5, core.Grade1a))
	b := clusterOf(claim("b", "second", 0.9, core.Grade1a))
	c := clusterOf(claim("c", "third", 0.5, core.Grade1a))

	ranked := RankClusters([]*core.Cluster{a, b, c})
	if ranked[0] != b || ranked[1] != a || ranked[2] != c {
		t.Error("RankClusters should sort by weight and keep ties in input order")
	}
}

func TestLowerFirst(t *testing.T) {
	tests := map[string]string{
		"Drug X works":   "drug X works",
		"ACE inhibitors": "ACE inhibitors",
		"A1C levels":     "A1C levels",
		"already lower":  "already lower",
		"":               "",
	}
	for in, want := range tests {
		if got := lowerFirst(in); got != want {
			t.Errorf("lowerFirst(%q) = %q, want %q", in, got, want)
		}
	}
}
