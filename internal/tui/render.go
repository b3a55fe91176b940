package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// Renderer writes results in one output mode.
type Renderer struct {
	out       io.Writer
	mode      OutputMode
	hierarchy *core.EvidenceHierarchy
	width     int
	md        *glamour.TermRenderer
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithHierarchy sets the grading scale used to color evidence levels.
func WithHierarchy(h *core.EvidenceHierarchy) RendererOption {
	return func(r *Renderer) { r.hierarchy = h }
}

// WithWidth sets the word-wrap width for rich output.
func WithWidth(width int) RendererOption {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
	}
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, mode OutputMode, opts ...RendererOption) *Renderer {
	r := &Renderer{
		out:       out,
		mode:      mode,
		hierarchy: core.DefaultEvidenceHierarchy(),
		width:     80,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the renderer's output mode.
func (r *Renderer) Mode() OutputMode {
	return r.mode
}

// Result renders one synthesized result.
func (r *Renderer) Result(res *core.ConsensusResult) error {
	switch r.mode {
	case ModeJSON:
		return r.writeJSON(res)
	case ModeYAML:
		return r.writeYAML(res)
	case ModePlain:
		_, err := io.WriteString(r.out, PlainResult(res))
		return err
	default:
		return r.writeRich(res)
	}
}

// Results renders a batch. JSON output is a single array; YAML output is a
// multi-document stream.
func (r *Renderer) Results(results []*core.ConsensusResult) error {
	if r.mode == ModeJSON {
		return r.writeJSON(results)
	}
	for i, res := range results {
		if i > 0 && r.mode != ModeYAML {
			fmt.Fprintln(r.out)
		}
		if err := r.Result(res); err != nil {
			return err
		}
	}
	return nil
}

// History renders stored result summaries, newest first.
func (r *Renderer) History(summaries []core.ResultSummary) error {
	switch r.mode {
	case ModeJSON:
		if summaries == nil {
			summaries = []core.ResultSummary{}
		}
		return r.writeJSON(summaries)
	case ModeYAML:
		return r.writeYAML(summaries)
	}

	if len(summaries) == 0 {
		_, err := fmt.Fprintln(r.out, "No stored results.")
		return err
	}

	header := fmt.Sprintf("%-36s  %-16s  %5s  %5s  %-4s  %6s  %s",
		"ID", "CREATED", "CONF", "QUAL", "EVID", "AGENTS", "QUERY")
	if r.mode == ModeRich {
		header = TableHeaderStyle.Render(header)
	}
	fmt.Fprintln(r.out, header)

	for _, s := range summaries {
		created := "-"
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		conf := fmt.Sprintf("%5.2f", s.Confidence)
		evid := fmt.Sprintf("%-4s", s.EvidenceLevel)
		if r.mode == ModeRich {
			conf = ValueStyle(ScoreColor(s.Confidence)).Render(conf)
			evid = ValueStyle(GradeColor(r.hierarchy, s.EvidenceLevel)).Render(evid)
		}
		fmt.Fprintf(r.out, "%-36s  %-16s  %s  %5.2f  %s  %6d  %s\n",
			s.ID, created, conf, s.QualityScore, evid, s.AgentCount, truncate(s.Query, 60))
	}
	return nil
}

// Failure reports one failed item of a batch.
func (r *Renderer) Failure(source string, err error) {
	msg := fmt.Sprintf("%s: %v", source, err)
	if r.mode == ModeRich {
		msg = ErrorStyle.Render(msg)
	}
	fmt.Fprintln(r.out, msg)
}

func (r *Renderer) writeJSON(v interface{}) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) writeYAML(v interface{}) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (r *Renderer) writeRich(res *core.ConsensusResult) error {
	if _, err := fmt.Fprintln(r.out, r.summaryHeader(res)); err != nil {
		return err
	}

	md, err := r.markdown()
	if err != nil {
		return err
	}
	body, err := md.Render(AnswerMarkdown(res))
	if err != nil {
		return fmt.Errorf("rendering answer: %w", err)
	}
	_, err = io.WriteString(r.out, body)
	return err
}

func (r *Renderer) markdown() (*glamour.TermRenderer, error) {
	if r.md != nil {
		return r.md, nil
	}

	style := styles.DraculaStyleConfig
	// Inline code without background blocks reads better in answers.
	style.Code = ansi.StyleBlock{
		StylePrimitive: ansi.StylePrimitive{
			Color:           stringPtr("229"),
			BackgroundColor: stringPtr(""),
		},
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	r.md = md
	return md, nil
}

func (r *Renderer) summaryHeader(res *core.ConsensusResult) string {
	badge := UnvalidatedBadge.Render("not clinically validated")
	if res.ClinicallyValidated {
		badge = ValidatedBadge.Render("clinically validated")
	}

	field := func(label, value string) string {
		return LabelStyle.Render(label+" ") + value
	}
	stats := strings.Join([]string{
		field("confidence", ValueStyle(ScoreColor(res.Confidence)).Render(fmt.Sprintf("%.0f%%", res.Confidence*100))),
		field("quality", ValueStyle(ScoreColor(res.QualityScore)).Render(fmt.Sprintf("%.2f", res.QualityScore))),
		field("evidence", ValueStyle(GradeColor(r.hierarchy, res.EvidenceLevel)).Render(string(res.EvidenceLevel))),
	}, "   ")

	lines := []string{
		TitleStyle.Render(truncate(res.Query, r.width-6)),
		stats,
		field("agents", strings.Join(res.ParticipatingAgents, ", ")) + "   " + badge,
	}
	return HeaderStyle.Width(min(r.width, 100) - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// AnswerMarkdown formats the answer and its citations as markdown.
func AnswerMarkdown(res *core.ConsensusResult) string {
	var b strings.Builder
	b.WriteString(res.Answer)
	b.WriteString("\n")
	if len(res.Citations) > 0 {
		b.WriteString("\n**Sources**\n\n")
		for _, c := range res.Citations {
			b.WriteString("- ")
			b.WriteString(c)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// PlainResult formats a result as uncolored text.
func PlainResult(res *core.ConsensusResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\n", res.Query)
	fmt.Fprintf(&b, "%s\n\n", res.Answer)
	fmt.Fprintf(&b, "Confidence: %.2f  Quality: %.2f  Evidence: %s\n",
		res.Confidence, res.QualityScore, res.EvidenceLevel)
	fmt.Fprintf(&b, "Agents: %s\n", strings.Join(res.ParticipatingAgents, ", "))
	validated := "no"
	if res.ClinicallyValidated {
		validated = "yes"
	}
	fmt.Fprintf(&b, "Clinically validated: %s\n", validated)
	if len(res.Citations) > 0 {
		b.WriteString("Citations:\n")
		for _, c := range res.Citations {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	}
	fmt.Fprintf(&b, "ID: %s\n", res.ID)
	return b.String()
}

func truncate(s string, n int) string {
	if n <= 3 {
		n = 4
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func stringPtr(s string) *string { return &s }
