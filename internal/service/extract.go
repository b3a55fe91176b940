package service

import (
	"strings"
	"unicode/utf8"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// Extraction defaults.
const (
	DefaultMinClaimLength     = 20
	DefaultRelevanceThreshold = 0.5
)

// ClaimExtractor splits responses into weighted, categorized claims.
type ClaimExtractor struct {
	hierarchy          *core.EvidenceHierarchy
	rules              *Rules
	minLength          int
	relevanceThreshold float64
}

// NewClaimExtractor creates an extractor. Non-positive limits fall back to defaults.
func NewClaimExtractor(hierarchy *core.EvidenceHierarchy, rules *Rules, minLength int, relevanceThreshold float64) *ClaimExtractor {
	if minLength <= 0 {
		minLength = DefaultMinClaimLength
	}
	if relevanceThreshold <= 0 {
		relevanceThreshold = DefaultRelevanceThreshold
	}
	if rules == nil {
		rules = DefaultRules()
	}
	return &ClaimExtractor{
		hierarchy:          hierarchy,
		rules:              rules,
		minLength:          minLength,
		relevanceThreshold: relevanceThreshold,
	}
}

// Extract returns the claims of every response, in response then sentence order.
func (e *ClaimExtractor) Extract(input *core.ConsensusInput, responses []core.AgentResponse) []*core.Claim {
	queryTokens := Tokenize(input.Query)
	claims := make([]*core.Claim, 0)

	for _, r := range responses {
		gradeWeight := e.hierarchy.Weight(r.EvidenceGrade)
		agentWeight := input.AgentWeight(r)

		for _, sentence := range SplitSentences(r.Answer) {
			if utf8.RuneCountInString(sentence) < e.minLength || e.rules.IsBoilerplate(sentence) {
				continue
			}

			relevance := Relevance(queryTokens, Tokenize(sentence))
			if relevance <= e.relevanceThreshold {
				continue
			}

			claims = append(claims, &core.Claim{
				Text:             sentence,
				Weight:           gradeWeight * agentWeight * relevance,
				Relevance:        relevance,
				SourceAgent:      r.AgentID,
				SupportingAgents: []string{r.AgentID},
				EvidenceGrade:    r.EvidenceGrade,
				Category:         e.rules.Categorize(sentence),
			})
		}
	}

	return claims
}

// Relevance is the fraction of query tokens that are contained in, or contain,
// some sentence token. An empty query has no relevance.
func Relevance(queryTokens, sentenceTokens []string) float64 {
	if len(queryTokens) == 0 || len(sentenceTokens) == 0 {
		return 0
	}

	matched := 0
	for _, q := range queryTokens {
		for _, s := range sentenceTokens {
			if strings.Contains(s, q) || strings.Contains(q, s) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(queryTokens))
}
