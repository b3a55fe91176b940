package core

import "sort"

// Category is the topical tag assigned to a claim.
type Category string

const (
	CategoryTreatment  Category = "treatment"
	CategoryDiagnosis  Category = "diagnosis"
	CategoryRegulatory Category = "regulatory"
	CategoryEvidence   Category = "evidence"
	CategoryEconomics  Category = "economics"
	CategoryGeneral    Category = "general"
)

// Claim is one atomic assertion extracted from an agent response.
type Claim struct {
	Text             string        `json:"text"`
	Weight           float64       `json:"weight"`
	Relevance        float64       `json:"relevance"`
	SourceAgent      string        `json:"source_agent"`
	SupportingAgents []string      `json:"supporting_agents"`
	EvidenceGrade    EvidenceGrade `json:"evidence_grade"`
	Category         Category      `json:"category"`
}

// AddSupport records agent as supporting the claim. Duplicates are ignored.
func (c *Claim) AddSupport(agents ...string) {
	for _, a := range agents {
		found := false
		for _, existing := range c.SupportingAgents {
			if existing == a {
				found = true
				break
			}
		}
		if !found {
			c.SupportingAgents = append(c.SupportingAgents, a)
		}
	}
}

// Cluster is a non-empty group of claims expressing the same point.
// Clusters only live for the duration of one synthesis call.
type Cluster struct {
	Claims []*Claim `json:"claims"`
}

// Weight returns the aggregate weight of the cluster.
func (c *Cluster) Weight() float64 {
	total := 0.0
	for _, claim := range c.Claims {
		total += claim.Weight
	}
	return total
}

// Agents returns the sorted union of supporting agents.
func (c *Cluster) Agents() []string {
	set := make(map[string]bool)
	for _, claim := range c.Claims {
		set[claim.SourceAgent] = true
		for _, a := range claim.SupportingAgents {
			set[a] = true
		}
	}
	agents := make([]string, 0, len(set))
	for a := range set {
		agents = append(agents, a)
	}
	sort.Strings(agents)
	return agents
}

// UniqueAgentCount returns the number of distinct supporting agents.
func (c *Cluster) UniqueAgentCount() int {
	return len(c.Agents())
}

// Grades returns the evidence grades of member claims, in member order.
func (c *Cluster) Grades() []EvidenceGrade {
	grades := make([]EvidenceGrade, 0, len(c.Claims))
	for _, claim := range c.Claims {
		grades = append(grades, claim.EvidenceGrade)
	}
	return grades
}

// Strongest returns the highest-weight claim. Ties keep the earliest member.
func (c *Cluster) Strongest() *Claim {
	var best *Claim
	for _, claim := range c.Claims {
		if best == nil || claim.Weight > best.Weight {
			best = claim
		}
	}
	return best
}
