package service

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// Synthesis defaults.
const (
	DefaultMaxClusters        = 5
	DefaultClusterWeightFloor = 0.3
	DefaultMaxInsights        = 2

	// highQualityTiers is how many of the strongest grades earn a citation line.
	highQualityTiers = 3
)

// InsufficientConsensusNotice is the body used when no cluster clears the weight floor.
const InsufficientConsensusNotice = "The agent responses did not converge on any claim strong enough to synthesize."

// Synthesis is the composed answer plus the bookkeeping the grader needs.
type Synthesis struct {
	Answer              string
	ParticipatingAgents []string
	Citations           []string
	Domain              string
	Ranked              []*core.Cluster
	Emitted             int
}

// Synthesizer writes one answer from ranked claim clusters.
type Synthesizer struct {
	hierarchy   *core.EvidenceHierarchy
	rules       *Rules
	maxClusters int
	floor       float64
	maxInsights int
}

// NewSynthesizer creates a synthesizer. Non-positive limits fall back to defaults.
func NewSynthesizer(hierarchy *core.EvidenceHierarchy, rules *Rules, maxClusters int, floor float64, maxInsights int) *Synthesizer {
	if maxClusters <= 0 {
		maxClusters = DefaultMaxClusters
	}
	if floor < 0 {
		floor = DefaultClusterWeightFloor
	}
	if maxInsights < 0 {
		maxInsights = DefaultMaxInsights
	}
	if rules == nil {
		rules = DefaultRules()
	}
	return &Synthesizer{
		hierarchy:   hierarchy,
		rules:       rules,
		maxClusters: maxClusters,
		floor:       floor,
		maxInsights: maxInsights,
	}
}

// RankClusters returns clusters ordered by descending aggregate weight.
// Equal weights keep their original order.
func RankClusters(clusters []*core.Cluster) []*core.Cluster {
	ranked := make([]*core.Cluster, len(clusters))
	copy(ranked, clusters)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight() > ranked[j].Weight()
	})
	return ranked
}

// Synthesize composes the answer for query from clusters. responses are the
// validated inputs, used only to carry evidence sources through.
func (s *Synthesizer) Synthesize(query string, clusters []*core.Cluster, responses []core.AgentResponse) *Synthesis {
	ranked := RankClusters(clusters)
	domain := s.rules.DetectDomain(query)

	out := &Synthesis{Ranked: ranked}
	if domain != nil {
		out.Domain = domain.Name
	}

	agents := make(map[string]bool)
	paragraphs := make([]string, 0, s.maxClusters)

	for _, cluster := range ranked {
		if out.Emitted >= s.maxClusters {
			break
		}
		// Ranked order makes the floor a hard cutoff.
		if cluster.Weight() < s.floor {
			break
		}

		paragraphs = append(paragraphs, s.paragraph(cluster))
		for _, a := range cluster.Agents() {
			agents[a] = true
		}
		if line, ok := s.citation(cluster); ok {
			out.Citations = append(out.Citations, line)
		}
		out.Emitted++
	}

	out.ParticipatingAgents = sortedKeys(agents)
	out.Citations = append(out.Citations, sourceCitations(responses, agents)...)

	parts := make([]string, 0, len(paragraphs)+3)
	if domain != nil && domain.Preface != "" {
		parts = append(parts, domain.Preface)
	}
	if len(paragraphs) == 0 {
		parts = append(parts, InsufficientConsensusNotice)
	}
	parts = append(parts, paragraphs...)
	if domain != nil && len(domain.Caveats) > 0 {
		parts = append(parts, caveatBlock(domain.Caveats))
	}
	out.Answer = strings.Join(parts, "\n\n")

	return out
}

// paragraph renders one cluster: the strongest claim, then the key insights
// of up to maxInsights further claims.
func (s *Synthesizer) paragraph(cluster *core.Cluster) string {
	anchor := cluster.Strongest()
	text := terminate(anchor.Text)
	if len(cluster.Claims) < 2 || s.maxInsights == 0 {
		return text
	}

	others := make([]*core.Claim, 0, len(cluster.Claims)-1)
	for _, c := range cluster.Claims {
		if c != anchor {
			others = append(others, c)
		}
	}
	sort.SliceStable(others, func(i, j int) bool {
		return others[i].Weight > others[j].Weight
	})
	if len(others) > s.maxInsights {
		others = others[:s.maxInsights]
	}

	seen := map[string]bool{NormalizeText(anchor.Text): true}
	insights := make([]string, 0, len(others))
	for _, c := range others {
		insight := KeyInsight(c.Text)
		key := NormalizeText(insight)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		insights = append(insights, lowerFirst(insight))
	}

	if len(insights) == 0 {
		return text
	}
	return text + " Additionally, " + strings.Join(insights, "; ") + "."
}

// citation returns "Evidence level: <grades>" when the cluster holds a high-quality grade.
func (s *Synthesizer) citation(cluster *core.Cluster) (string, bool) {
	grades := s.hierarchy.SortGrades(cluster.Grades())
	high := false
	labels := make([]string, len(grades))
	for i, g := range grades {
		labels[i] = string(g)
		if s.hierarchy.IsTopTier(g, highQualityTiers) {
			high = true
		}
	}
	if !high {
		return "", false
	}
	return "Evidence level: " + strings.Join(labels, ", "), true
}

// sourceCitations returns the evidence sources of contributing responses, deduplicated.
func sourceCitations(responses []core.AgentResponse, agents map[string]bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range responses {
		if !agents[r.AgentID] {
			continue
		}
		for _, src := range r.EvidenceSources {
			src = strings.TrimSpace(src)
			if src == "" || seen[src] {
				continue
			}
			seen[src] = true
			out = append(out, src)
		}
	}
	return out
}

func caveatBlock(caveats []string) string {
	var b strings.Builder
	b.WriteString("Important considerations:")
	for _, c := range caveats {
		b.WriteString("\n- ")
		b.WriteString(c)
	}
	return b.String()
}

func terminate(sentence string) string {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return sentence
	}
	switch sentence[len(sentence)-1] {
	case '.', '!', '?':
		return sentence
	}
	return sentence + "."
}

// lowerFirst lowercases the first rune unless the first word looks like an acronym.
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return s
	}
	if next, _ := utf8.DecodeRuneInString(s[size:]); unicode.IsUpper(next) || unicode.IsDigit(next) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
