package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultEvidenceHierarchy_Monotonic(t *testing.T) {
	h := DefaultEvidenceHierarchy()

	levels := h.Levels()
	if len(levels) != 8 {
		t.Fatalf("len(levels) = %d, want 8", len(levels))
	}
	if levels[0].Grade != Grade1a || levels[0].Weight != 1.0 {
		t.Errorf("strongest = %+v, want 1a/1.0", levels[0])
	}
	if h.Weakest() != Grade5 || h.Weight(Grade5) != 0.3 {
		t.Errorf("weakest = %s/%v, want 5/0.3", h.Weakest(), h.Weight(Grade5))
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].Weight >= levels[i-1].Weight {
			t.Errorf("weight of %s not below %s", levels[i].Grade, levels[i-1].Grade)
		}
	}
}

func TestEvidenceHierarchy_Strongest(t *testing.T) {
	h := DefaultEvidenceHierarchy()

	tests := []struct {
		name   string
		grades []EvidenceGrade
		want   EvidenceGrade
	}{
		{"mixed", []EvidenceGrade{Grade2b, Grade4}, Grade2b},
		{"only weakest", []EvidenceGrade{Grade5}, Grade5},
		{"unknown ignored", []EvidenceGrade{"9z", Grade3a}, Grade3a},
		{"none", nil, Grade5},
		{"strongest anywhere", []EvidenceGrade{Grade4, Grade1b, Grade2a}, Grade1b},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Strongest(tt.grades); got != tt.want {
				t.Errorf("Strongest() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvidenceHierarchy_TopTierAndRank(t *testing.T) {
	h := DefaultEvidenceHierarchy()

	for _, g := range []EvidenceGrade{Grade1a, Grade1b, Grade2a} {
		if !h.IsTopTier(g, 3) {
			t.Errorf("%s should be top tier", g)
		}
	}
	if h.IsTopTier(Grade2b, 3) {
		t.Errorf("2b should not be top tier")
	}
	if h.Rank("bogus") != -1 {
		t.Errorf("unknown grade rank = %d, want -1", h.Rank("bogus"))
	}
	if h.Weight("bogus") != 0 {
		t.Errorf("unknown grade weight should be 0")
	}
}

func TestEvidenceHierarchy_SortGrades(t *testing.T) {
	h := DefaultEvidenceHierarchy()
	got := h.SortGrades([]EvidenceGrade{Grade2a, Grade1a, "x", Grade2a, Grade1b})
	want := []EvidenceGrade{Grade1a, Grade1b, Grade2a}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SortGrades() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewEvidenceHierarchy_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		levels []EvidenceLevel
	}{
		{"empty", nil},
		{"zero weight", []EvidenceLevel{{Grade: "A", Weight: 0}}},
		{"above one", []EvidenceLevel{{Grade: "A", Weight: 1.2}}},
		{"duplicate", []EvidenceLevel{{Grade: "A", Weight: 1}, {Grade: "A", Weight: 0.5}}},
		{"increasing", []EvidenceLevel{{Grade: "A", Weight: 0.5}, {Grade: "B", Weight: 0.6}}},
		{"blank grade", []EvidenceLevel{{Grade: "", Weight: 0.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvidenceHierarchy(tt.levels...)
			if !HasCode(err, CodeInvalidHierarchy) {
				t.Errorf("expected %s, got %v", CodeInvalidHierarchy, err)
			}
		})
	}
}

func TestNewEvidenceHierarchy_Alternate(t *testing.T) {
	h, err := NewEvidenceHierarchy(
		EvidenceLevel{Grade: "high", Label: "High", Weight: 1},
		EvidenceLevel{Grade: "low", Label: "Low", Weight: 0.5},
	)
	if err != nil {
		t.Fatalf("NewEvidenceHierarchy() error = %v", err)
	}
	if h.Weakest() != "low" {
		t.Errorf("Weakest() = %s, want low", h.Weakest())
	}
	if lvl, ok := h.Level("high"); !ok || lvl.Label != "High" {
		t.Errorf("Level(high) = %+v, %v", lvl, ok)
	}
}
