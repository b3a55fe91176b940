package tui

import (
	"testing"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

func TestFilterSummaries(t *testing.T) {
	summaries := []core.ResultSummary{
		{ID: "1", Query: "Is metformin first-line for type 2 diabetes?"},
		{ID: "2", Query: "Statin dosing after myocardial infarction"},
		{ID: "3", Query: "Metformin contraindications in renal failure"},
	}

	got := FilterSummaries("metformin", summaries)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	for _, s := range got {
		if s.ID == "2" {
			t.Errorf("statin query should not match")
		}
	}

	if len(FilterSummaries("", summaries)) != 3 {
		t.Error("empty query must return everything")
	}
	if len(FilterSummaries("zzzz", summaries)) != 0 {
		t.Error("no match expected")
	}
}
