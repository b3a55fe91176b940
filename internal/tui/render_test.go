package tui

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/testutil"
)

func sampleResult() *core.ConsensusResult {
	return &core.ConsensusResult{
		ID:                  "3f1c0c2e-0000-4000-8000-000000000001",
		Query:               "What is first-line for condition Y?",
		Answer:              "Drug X is first-line for condition Y.",
		Confidence:          0.82,
		EvidenceLevel:       core.Grade1a,
		ParticipatingAgents: []string{"agent-a", "agent-b"},
		SynthesisMethod:     core.SynthesisMethodWeighted,
		QualityScore:        0.76,
		ClinicallyValidated: true,
		Citations:           []string{"Evidence level: 1a, 2a", "PMID:12345"},
		CreatedAt:           time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRenderer_Plain(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(&buf, ModePlain).Result(sampleResult()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"Query: What is first-line for condition Y?",
		"Drug X is first-line for condition Y.",
		"Confidence: 0.82  Quality: 0.76  Evidence: 1a",
		"Agents: agent-a, agent-b",
		"Clinically validated: yes",
		"  - PMID:12345",
		"ID: 3f1c0c2e-0000-4000-8000-000000000001",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderer_PlainGolden(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(&buf, ModePlain).Result(sampleResult()); err != nil {
		t.Fatal(err)
	}
	testutil.NewGolden(t, "testdata").AssertScrubbed("plain_result", buf.String())
}

func TestRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(&buf, ModeJSON).Result(sampleResult()); err != nil {
		t.Fatal(err)
	}

	var got core.ConsensusResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.ID != sampleResult().ID || got.EvidenceLevel != core.Grade1a {
		t.Errorf("decoded = %+v", got)
	}
}

func TestRenderer_JSONBatchIsArray(t *testing.T) {
	var buf bytes.Buffer
	results := []*core.ConsensusResult{sampleResult(), sampleResult()}
	if err := NewRenderer(&buf, ModeJSON).Results(results); err != nil {
		t.Fatal(err)
	}

	var got []core.ConsensusResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON array: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestRenderer_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(&buf, ModeYAML).Result(sampleResult()); err != nil {
		t.Fatal(err)
	}

	var got map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if got["evidence_level"] != "1a" {
		t.Errorf("evidence_level = %v", got["evidence_level"])
	}
	if _, ok := got["participating_agents"]; !ok {
		t.Error("participating_agents key missing; yaml tags not applied")
	}
}

func TestRenderer_Rich(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, ModeRich, WithWidth(90))
	if err := r.Result(sampleResult()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "agent-a, agent-b") {
		t.Errorf("header missing agents:\n%s", out)
	}
	if !strings.Contains(out, "clinically validated") {
		t.Errorf("header missing validation badge:\n%s", out)
	}
	if len(out) < len(sampleResult().Answer) {
		t.Errorf("output too short:\n%s", out)
	}
}

func TestRenderer_History(t *testing.T) {
	summaries := []core.ResultSummary{
		{ID: "r2", Query: "newer query", Confidence: 0.9, QualityScore: 0.8, EvidenceLevel: core.Grade1b, AgentCount: 3},
		{ID: "r1", Query: strings.Repeat("long ", 30), Confidence: 0.4, EvidenceLevel: core.Grade5, AgentCount: 1},
	}

	var buf bytes.Buffer
	if err := NewRenderer(&buf, ModePlain).History(summaries); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.HasPrefix(lines[1], "r2") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}
	if !strings.HasSuffix(lines[2], "...") {
		t.Errorf("long query not truncated: %q", lines[2])
	}

	buf.Reset()
	if err := NewRenderer(&buf, ModePlain).History(nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "No stored results." {
		t.Errorf("empty history = %q", buf.String())
	}

	buf.Reset()
	if err := NewRenderer(&buf, ModeJSON).History(nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON history = %q", buf.String())
	}
}

func TestRenderer_Failure(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf, ModePlain).Failure("input.json", errors.New("boom"))
	if buf.String() != "input.json: boom\n" {
		t.Errorf("Failure() = %q", buf.String())
	}
}

func TestAnswerMarkdown(t *testing.T) {
	res := sampleResult()
	md := AnswerMarkdown(res)
	if !strings.HasPrefix(md, res.Answer) {
		t.Errorf("markdown should start with the answer: %q", md)
	}
	if !strings.Contains(md, "**Sources**") || !strings.Contains(md, "- PMID:12345\n") {
		t.Errorf("citations missing: %q", md)
	}

	res.Citations = nil
	if strings.Contains(AnswerMarkdown(res), "Sources") {
		t.Error("no sources section expected without citations")
	}
}

func TestGradeAndScoreColor(t *testing.T) {
	h := core.DefaultEvidenceHierarchy()
	if GradeColor(h, core.Grade1a) != ColorSuccess {
		t.Error("1a should be success")
	}
	if GradeColor(h, core.Grade3a) != ColorWarning {
		t.Error("3a should be warning")
	}
	if GradeColor(nil, core.Grade5) != ColorError {
		t.Error("5 should be error")
	}
	if ScoreColor(0.9) != ColorSuccess || ScoreColor(0.6) != ColorWarning || ScoreColor(0.1) != ColorError {
		t.Error("score colors mismatch")
	}
}
