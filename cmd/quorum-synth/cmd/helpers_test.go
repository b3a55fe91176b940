package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const twoAgentJSON = `{
  "query": "What is first-line for condition Y?",
  "responses": [
    {"agent_id": "agent-a", "answer": "Drug X is first-line for condition Y.", "confidence": 0.9, "evidence_grade": "1a", "created_at": "2026-01-01T00:00:00Z"},
    {"agent_id": "agent-b", "answer": "Drug X is first-line for condition Y.", "confidence": 0.85, "evidence_grade": "2a", "created_at": "2026-01-01T00:00:00Z"}
  ]
}`

const twoAgentYAML = `query: What is first-line for condition Y?
responses:
  - agent_id: agent-a
    answer: Drug X is first-line for condition Y.
    confidence: 0.9
    evidence_grade: 1a
    created_at: 2026-01-01T00:00:00Z
  - agent_id: agent-b
    answer: Drug X is first-line for condition Y.
    confidence: 0.85
    evidence_grade: 2a
    created_at: 2026-01-01T00:00:00Z
`

const lowConfidenceJSON = `{
  "query": "What is first-line for condition Y?",
  "responses": [
    {"agent_id": "agent-a", "answer": "Drug X is first-line for condition Y.", "confidence": 0.2, "evidence_grade": "1a", "created_at": "2026-01-01T00:00:00Z"}
  ]
}`

// testEnv is an isolated working directory with a config file.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T, extraConfig string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("USERPROFILE", dir)
	t.Setenv("NO_COLOR", "1")
	t.Setenv("QUORUM_SYNTH_OUTPUT", "")

	cfg := "log:\n  level: error\n  format: text\n" +
		"store:\n  enabled: true\n  path: " + filepath.ToSlash(filepath.Join(dir, "results.db")) + "\n" +
		extraConfig
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return &testEnv{dir: dir, config: path}
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes the CLI with the environment's config file.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, stdin, append([]string{"--config", e.config}, args...)...)
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
