package tui

import (
	"bytes"
	"testing"
)

func detectorWithEnv(env map[string]string) *Detector {
	d := NewDetector()
	d.getenv = func(k string) string { return env[k] }
	return d
}

func TestDetector_Detect(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		name string
		d    *Detector
		want OutputMode
	}{
		{"non-tty writer", detectorWithEnv(nil), ModePlain},
		{"env json", detectorWithEnv(map[string]string{"QUORUM_SYNTH_OUTPUT": "json"}), ModeJSON},
		{"env yaml", detectorWithEnv(map[string]string{"QUORUM_SYNTH_OUTPUT": "yml"}), ModeYAML},
		{"env auto falls through", detectorWithEnv(map[string]string{"QUORUM_SYNTH_OUTPUT": "auto"}), ModePlain},
		{"forced", detectorWithEnv(map[string]string{"QUORUM_SYNTH_OUTPUT": "json"}).ForceMode(ModeRich), ModeRich},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Detect(&buf); got != tt.want {
				t.Errorf("Detect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetector_ShouldUseColor(t *testing.T) {
	var buf bytes.Buffer
	if detectorWithEnv(nil).ShouldUseColor(&buf) {
		t.Error("buffers are never terminals")
	}
	if detectorWithEnv(map[string]string{"NO_COLOR": "1"}).ShouldUseColor(&buf) {
		t.Error("NO_COLOR must disable color")
	}
	if NewDetector().NoColor(true).ShouldUseColor(&buf) {
		t.Error("NoColor(true) must disable color")
	}
}

func TestParseOutputMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
		ok   bool
	}{
		{"rich", ModeRich, true},
		{"markdown", ModeRich, true},
		{"PLAIN", ModePlain, true},
		{"text", ModePlain, true},
		{"json", ModeJSON, true},
		{"yaml", ModeYAML, true},
		{"auto", ModeRich, false},
		{"", ModeRich, false},
	}
	for _, tt := range tests {
		got, ok := ParseOutputMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseOutputMode(%q) = %s, %v; want %s, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if ModeYAML.String() != "yaml" || OutputMode(42).String() != "unknown" {
		t.Error("String() mismatch")
	}
}

func TestTerminalWidth_NonFile(t *testing.T) {
	if w := TerminalWidth(&bytes.Buffer{}); w != 80 {
		t.Errorf("TerminalWidth() = %d, want 80", w)
	}
}
