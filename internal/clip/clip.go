// Package clip copies synthesized answers to the clipboard, falling back to
// the terminal's OSC52 sequence and finally to a temp file.
package clip

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	atotto "github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"golang.org/x/term"
)

// Method represents the mechanism used to make content copyable.
// MethodFile means no clipboard was reachable and the text went to a temp file.
type Method string

const (
	MethodNative Method = "native"
	MethodOSC52  Method = "osc52"
	MethodFile   Method = "file"
)

// Result reports where the text ended up.
type Result struct {
	Method   Method
	FilePath string // only set when Method == MethodFile
}

// Describe returns a short human-readable confirmation.
func (r Result) Describe() string {
	switch r.Method {
	case MethodNative:
		return "copied to clipboard"
	case MethodOSC52:
		return "copied to clipboard via terminal"
	default:
		return "clipboard unavailable, answer written to " + r.FilePath
	}
}

// Terminal limits on OSC52 payloads vary; stay well under the common ones.
const osc52LimitBytes = 100_000

// Copier tries each clipboard mechanism in order.
type Copier struct {
	// Native writes to the OS clipboard.
	Native func(text string) error
	// Terminal receives the OSC52 sequence; it must be a TTY to be used.
	Terminal *os.File
	// TempDir holds fallback files; empty uses os.TempDir.
	TempDir string
	// Getenv detects tmux and screen wrapping.
	Getenv func(string) string
}

// NewCopier returns a Copier using the OS clipboard and stderr.
func NewCopier() *Copier {
	return &Copier{
		Native:   atotto.WriteAll,
		Terminal: os.Stderr,
		Getenv:   os.Getenv,
	}
}

// WriteAll copies text with the default Copier.
func WriteAll(text string) (Result, error) {
	return NewCopier().WriteAll(text)
}

// WriteAll copies text, trying the native clipboard, then OSC52, then a temp file.
func (c *Copier) WriteAll(text string) (Result, error) {
	if text == "" {
		return Result{}, errors.New("nothing to copy")
	}

	if c.Native != nil && !atotto.Unsupported {
		if err := c.Native(text); err == nil {
			return Result{Method: MethodNative}, nil
		}
	}

	if c.Terminal != nil && term.IsTerminal(int(c.Terminal.Fd())) {
		if err := c.writeOSC52(c.Terminal, text); err == nil {
			return Result{Method: MethodOSC52}, nil
		}
	}

	path, err := c.writeTempFile(text)
	if err != nil {
		return Result{}, err
	}
	return Result{Method: MethodFile, FilePath: path}, nil
}

func (c *Copier) writeOSC52(w io.Writer, text string) error {
	if len(text) > osc52LimitBytes {
		return fmt.Errorf("text too large for OSC52 (%d bytes > %d)", len(text), osc52LimitBytes)
	}

	getenv := c.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	seq := osc52.New(text).Limit(osc52LimitBytes)
	if getenv("TMUX") != "" {
		seq = seq.Tmux()
	} else if getenv("STY") != "" {
		seq = seq.Screen()
	}

	_, err := seq.WriteTo(w)
	return err
}

func (c *Copier) writeTempFile(text string) (path string, err error) {
	f, err := os.CreateTemp(c.TempDir, "quorum-synth-answer-*.md")
	if err != nil {
		return "", err
	}
	path = f.Name()
	defer func() {
		_ = f.Close()
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if _, err = f.WriteString(text); err != nil {
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}
