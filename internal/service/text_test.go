package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJaccardSimilarity_Identical(t *testing.T) {
	a := []string{"apple", "banana", "cherry"}
	b := []string{"apple", "banana", "cherry"}

	score := JaccardSimilarity(a, b)
	if score != 1.0 {
		t.Errorf("JaccardSimilarity() = %v, want 1.0", score)
	}
}

func TestJaccardSimilarity_Overlap(t *testing.T) {
	a := []string{"apple", "banana", "cherry"}
	b := []string{"banana", "cherry", "date"}

	// Intersection: {banana, cherry} = 2
	// Union: {apple, banana, cherry, date} = 4
	score := JaccardSimilarity(a, b)
	if score != 0.5 {
		t.Errorf("JaccardSimilarity() = %v, want 0.5", score)
	}
}

func TestJaccardSimilarity_Empty(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want float64
	}{
		{name: "both empty", a: []string{}, b: []string{}, want: 1.0},
		{name: "a empty", a: []string{}, b: []string{"apple"}, want: 0.0},
		{name: "b empty", a: []string{"apple"}, b: []string{}, want: 0.0},
		{name: "duplicates ignored", a: []string{"x", "x", "y"}, b: []string{"x", "y"}, want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := JaccardSimilarity(tt.a, tt.b)
			if score != tt.want {
				t.Errorf("JaccardSimilarity() = %v, want %v", score, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Drug X is FIRST-line, for condition (Y)!")
	want := []string{"drug", "x", "is", "first", "line", "for", "condition", "y"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize() mismatch (-want +got):\n%s", diff)
	}
	if Tokenize("  ... ") != nil {
		t.Error("Tokenize() of punctuation should be nil")
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First point. Second point!  Third?? ")
	want := []string{"First point", "Second point", "Third"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SplitSentences() mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyInsight(t *testing.T) {
	if got := KeyInsight("Statins lower LDL. They also reduce events."); got != "Statins lower LDL" {
		t.Errorf("KeyInsight() = %q", got)
	}
	if got := KeyInsight("  no terminator  "); got != "no terminator" {
		t.Errorf("KeyInsight() = %q", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); !approx(got, tt.want) {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
