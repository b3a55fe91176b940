package tui

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// OutputMode represents the output mode.
type OutputMode int

const (
	// ModeRich renders styled markdown for terminals.
	ModeRich OutputMode = iota

	// ModePlain uses plain text output.
	ModePlain

	// ModeJSON prints the result as JSON.
	ModeJSON

	// ModeYAML prints the result as YAML.
	ModeYAML
)

// String returns the string representation of the output mode.
func (m OutputMode) String() string {
	switch m {
	case ModeRich:
		return "rich"
	case ModePlain:
		return "plain"
	case ModeJSON:
		return "json"
	case ModeYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// ParseOutputMode parses an output mode. "auto" and "" return ok=false so the
// caller falls back to detection.
func ParseOutputMode(s string) (OutputMode, bool) {
	switch strings.ToLower(s) {
	case "rich", "markdown":
		return ModeRich, true
	case "plain", "text":
		return ModePlain, true
	case "json":
		return ModeJSON, true
	case "yaml", "yml":
		return ModeYAML, true
	default:
		return ModeRich, false
	}
}

// Detector determines the appropriate output mode.
type Detector struct {
	forceMode *OutputMode
	noColor   bool
	getenv    func(string) string
}

// NewDetector creates a new output mode detector.
func NewDetector() *Detector {
	return &Detector{getenv: os.Getenv}
}

// ForceMode forces a specific output mode.
func (d *Detector) ForceMode(mode OutputMode) *Detector {
	d.forceMode = &mode
	return d
}

// NoColor disables color output.
func (d *Detector) NoColor(disable bool) *Detector {
	d.noColor = disable
	return d
}

// Detect determines the output mode for w.
func (d *Detector) Detect(w io.Writer) OutputMode {
	if d.forceMode != nil {
		return *d.forceMode
	}

	if mode, ok := ParseOutputMode(d.getenv("QUORUM_SYNTH_OUTPUT")); ok {
		return mode
	}

	if d.getenv("CI") != "" || !d.ShouldUseColor(w) {
		return ModePlain
	}
	return ModeRich
}

// ShouldUseColor determines if color should be used when writing to w.
func (d *Detector) ShouldUseColor(w io.Writer) bool {
	if d.noColor {
		return false
	}
	if d.getenv("NO_COLOR") != "" {
		return false
	}
	if d.getenv("TERM") == "dumb" {
		return false
	}
	return isTTY(w)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or 80 when it is not a terminal.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 80
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
