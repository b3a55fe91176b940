package core

import (
	"fmt"
	"sort"
)

// EvidenceGrade is a strength-of-evidence label such as "1a" or "5".
type EvidenceGrade string

// Standard evidence grades, strongest first.
const (
	Grade1a EvidenceGrade = "1a" // Systematic review of randomized trials
	Grade1b EvidenceGrade = "1b" // Individual randomized trial
	Grade2a EvidenceGrade = "2a" // Systematic review of cohort studies
	Grade2b EvidenceGrade = "2b" // Individual cohort study
	Grade3a EvidenceGrade = "3a" // Systematic review of case-control studies
	Grade3b EvidenceGrade = "3b" // Individual case-control study
	Grade4  EvidenceGrade = "4"  // Case series
	Grade5  EvidenceGrade = "5"  // Expert opinion
)

// EvidenceLevel describes one grade of an evidence hierarchy.
type EvidenceLevel struct {
	Grade  EvidenceGrade `json:"grade" yaml:"grade"`
	Label  string        `json:"label" yaml:"label"`
	Weight float64       `json:"weight" yaml:"weight"`
}

// EvidenceHierarchy is an immutable, ordered grading scale.
// Index 0 is the strongest grade.
type EvidenceHierarchy struct {
	levels []EvidenceLevel
	index  map[EvidenceGrade]int
}

// NewEvidenceHierarchy builds a hierarchy from levels ordered strongest first.
// Weights must lie in (0,1] and strictly decrease.
func NewEvidenceHierarchy(levels ...EvidenceLevel) (*EvidenceHierarchy, error) {
	if len(levels) == 0 {
		return nil, ErrValidation(CodeInvalidHierarchy, "evidence hierarchy must define at least one grade")
	}

	h := &EvidenceHierarchy{
		levels: make([]EvidenceLevel, len(levels)),
		index:  make(map[EvidenceGrade]int, len(levels)),
	}
	copy(h.levels, levels)

	for i, lvl := range h.levels {
		if lvl.Grade == "" {
			return nil, ErrValidation(CodeInvalidHierarchy, fmt.Sprintf("level %d has no grade", i))
		}
		if _, dup := h.index[lvl.Grade]; dup {
			return nil, ErrValidation(CodeInvalidHierarchy, fmt.Sprintf("duplicate grade %q", lvl.Grade))
		}
		if lvl.Weight <= 0 || lvl.Weight > 1 {
			return nil, ErrValidation(CodeInvalidHierarchy,
				fmt.Sprintf("grade %q weight %.2f outside (0,1]", lvl.Grade, lvl.Weight))
		}
		if i > 0 && lvl.Weight >= h.levels[i-1].Weight {
			return nil, ErrValidation(CodeInvalidHierarchy,
				fmt.Sprintf("grade %q weight must be lower than %q", lvl.Grade, h.levels[i-1].Grade))
		}
		h.index[lvl.Grade] = i
	}

	return h, nil
}

// DefaultEvidenceHierarchy returns the Oxford-style 1a..5 scale.
func DefaultEvidenceHierarchy() *EvidenceHierarchy {
	h, err := NewEvidenceHierarchy(
		EvidenceLevel{Grade: Grade1a, Label: "Systematic review of randomized controlled trials", Weight: 1.0},
		EvidenceLevel{Grade: Grade1b, Label: "Individual randomized controlled trial", Weight: 0.9},
		EvidenceLevel{Grade: Grade2a, Label: "Systematic review of cohort studies", Weight: 0.8},
		EvidenceLevel{Grade: Grade2b, Label: "Individual cohort study", Weight: 0.7},
		EvidenceLevel{Grade: Grade3a, Label: "Systematic review of case-control studies", Weight: 0.6},
		EvidenceLevel{Grade: Grade3b, Label: "Individual case-control study", Weight: 0.5},
		EvidenceLevel{Grade: Grade4, Label: "Case series", Weight: 0.4},
		EvidenceLevel{Grade: Grade5, Label: "Expert opinion", Weight: 0.3},
	)
	if err != nil {
		panic(err)
	}
	return h
}

// Has reports whether grade belongs to the hierarchy.
func (h *EvidenceHierarchy) Has(grade EvidenceGrade) bool {
	_, ok := h.index[grade]
	return ok
}

// Level returns the level for grade.
func (h *EvidenceHierarchy) Level(grade EvidenceGrade) (EvidenceLevel, bool) {
	i, ok := h.index[grade]
	if !ok {
		return EvidenceLevel{}, false
	}
	return h.levels[i], true
}

// Weight returns the weight of grade, or 0 for unknown grades.
func (h *EvidenceHierarchy) Weight(grade EvidenceGrade) float64 {
	lvl, ok := h.Level(grade)
	if !ok {
		return 0
	}
	return lvl.Weight
}

// Rank returns the 0-based position of grade (0 = strongest), or -1.
func (h *EvidenceHierarchy) Rank(grade EvidenceGrade) int {
	i, ok := h.index[grade]
	if !ok {
		return -1
	}
	return i
}

// IsTopTier reports whether grade is among the n strongest grades.
func (h *EvidenceHierarchy) IsTopTier(grade EvidenceGrade, n int) bool {
	r := h.Rank(grade)
	return r >= 0 && r < n
}

// Grades returns all grades, strongest first.
func (h *EvidenceHierarchy) Grades() []EvidenceGrade {
	out := make([]EvidenceGrade, len(h.levels))
	for i, lvl := range h.levels {
		out[i] = lvl.Grade
	}
	return out
}

// Levels returns a copy of the levels, strongest first.
func (h *EvidenceHierarchy) Levels() []EvidenceLevel {
	out := make([]EvidenceLevel, len(h.levels))
	copy(out, h.levels)
	return out
}

// Weakest returns the weakest grade.
func (h *EvidenceHierarchy) Weakest() EvidenceGrade {
	return h.levels[len(h.levels)-1].Grade
}

// Strongest returns the strongest known grade among grades.
// Unknown grades are ignored; the weakest grade is returned when none qualify.
func (h *EvidenceHierarchy) Strongest(grades []EvidenceGrade) EvidenceGrade {
	best := -1
	for _, g := range grades {
		r := h.Rank(g)
		if r < 0 {
			continue
		}
		if best < 0 || r < best {
			best = r
		}
	}
	if best < 0 {
		return h.Weakest()
	}
	return h.levels[best].Grade
}

// SortGrades orders known grades strongest first, dropping duplicates and unknowns.
func (h *EvidenceHierarchy) SortGrades(grades []EvidenceGrade) []EvidenceGrade {
	seen := make(map[EvidenceGrade]bool, len(grades))
	out := make([]EvidenceGrade, 0, len(grades))
	for _, g := range grades {
		if seen[g] || !h.Has(g) {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return h.Rank(out[i]) < h.Rank(out[j])
	})
	return out
}
