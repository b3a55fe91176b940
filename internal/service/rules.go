package service

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/fsutil"
)

// CategoryRule tags a claim with Category when any keyword occurs in it.
type CategoryRule struct {
	Category core.Category
	Keywords []string
}

// DomainProfile frames a synthesized answer for one query domain.
type DomainProfile struct {
	Name     string
	Patterns []*regexp.Regexp
	Preface  string
	Caveats  []string
}

// Matches reports whether any of the profile's patterns matches query.
func (d *DomainProfile) Matches(query string) bool {
	for _, p := range d.Patterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}

// Rules holds the keyword and pattern tables used by extraction and synthesis.
// Tables are ordered; the first matching entry wins.
type Rules struct {
	Boilerplate []string
	Categories  []CategoryRule
	Domains     []DomainProfile

	boilerplateRe *regexp.Regexp
}

// DefaultRules returns the built-in clinical/regulatory tables.
func DefaultRules() *Rules {
	r := &Rules{
		Boilerplate: []string{
			"however",
			"in conclusion",
			"in summary",
			"to summarize",
			"please note",
			"note that",
			"it is important to note",
			"it should be noted",
			"furthermore",
			"moreover",
			"as mentioned",
			"as an ai",
			"i hope this helps",
		},
		Categories: []CategoryRule{
			{Category: core.CategoryTreatment, Keywords: []string{
				"treat", "therap", "drug", "medication", "dose", "dosing", "first-line",
				"first line", "prescri", "regimen", "surgery", "intervention",
			}},
			{Category: core.CategoryDiagnosis, Keywords: []string{
				"diagnos", "symptom", "screening", "biomarker", "test", "imaging", "sign of", "differential",
			}},
			{Category: core.CategoryRegulatory, Keywords: []string{
				"fda", "ema", "regulat", "approval", "approved", "guidance", "label", "compliance",
				"submission", "authori", "indication",
			}},
			{Category: core.CategoryEvidence, Keywords: []string{
				"study", "studies", "trial", "meta-analysis", "evidence", "cohort", "systematic review",
				"randomi", "observational",
			}},
			{Category: core.CategoryEconomics, Keywords: []string{
				"cost", "price", "pricing", "reimburse", "economic", "budget", "payer", "qaly",
			}},
		},
		Domains: []DomainProfile{
			{
				Name: "clinical",
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\b(patients?|treat\w*|therap\w*|drugs?|dos(e|es|ing)|diagnos\w*|clinical\w*|disease\w*|symptoms?|medications?|contraindicat\w*|adverse|first-line)\b`),
				},
				Preface: "Based on the available clinical evidence from multiple expert sources:",
				Caveats: []string{
					"This synthesis is informational and does not replace professional medical judgment.",
					"Consult a qualified healthcare professional before making diagnostic or treatment decisions.",
					"Individual patient factors such as comorbidities, concomitant medications and allergies may change the applicability of these findings.",
				},
			},
			{
				Name: "regulatory",
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\b(fda|ema|mhra|pmda|regulat\w*|approvals?|compliance|guidance|labell?ing|submissions?|marketing authori[sz]ation|ich|gxp|gcp)\b`),
				},
				Preface: "Based on current regulatory guidance and expert analysis:",
				Caveats: []string{
					"Regulatory requirements differ between jurisdictions; confirm applicability for each target market.",
					"Guidance documents are revised periodically; verify that the current version is being referenced.",
					"Consult regulatory affairs specialists for submission-specific decisions.",
				},
			},
		},
	}
	if err := r.compile(); err != nil {
		panic(err)
	}
	return r
}

func (r *Rules) compile() error {
	if len(r.Boilerplate) == 0 {
		r.boilerplateRe = nil
		return nil
	}
	quoted := make([]string, 0, len(r.Boilerplate))
	for _, b := range r.Boilerplate {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(b)))
	}
	if len(quoted) == 0 {
		r.boilerplateRe = nil
		return nil
	}
	re, err := regexp.Compile(`(?i)^(?:` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return core.ErrValidation(core.CodeInvalidRules, "invalid boilerplate opener").WithCause(err)
	}
	r.boilerplateRe = re
	return nil
}

// IsBoilerplate reports whether sentence starts with a boilerplate opener.
func (r *Rules) IsBoilerplate(sentence string) bool {
	if r.boilerplateRe == nil {
		return false
	}
	return r.boilerplateRe.MatchString(strings.TrimSpace(sentence))
}

// Categorize returns the first category whose keywords occur in text.
func (r *Rules) Categorize(text string) core.Category {
	lower := strings.ToLower(text)
	for _, rule := range r.Categories {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return rule.Category
			}
		}
	}
	return core.CategoryGeneral
}

// DetectDomain returns the first domain profile matching query, or nil.
func (r *Rules) DetectDomain(query string) *DomainProfile {
	for i := range r.Domains {
		if r.Domains[i].Matches(query) {
			return &r.Domains[i]
		}
	}
	return nil
}

// rulesFile is the YAML representation of Rules.
type rulesFile struct {
	Boilerplate []string `yaml:"boilerplate"`
	Categories  []struct {
		Category string   `yaml:"category"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"categories"`
	Domains []struct {
		Name     string   `yaml:"name"`
		Patterns []string `yaml:"patterns"`
		Preface  string   `yaml:"preface"`
		Caveats  []string `yaml:"caveats"`
	} `yaml:"domains"`
}

// ParseRules decodes a YAML rules document. Sections left out keep their defaults.
func ParseRules(data []byte) (*Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, core.ErrValidation(core.CodeInvalidRules, "decoding rules").WithCause(err)
	}

	r := DefaultRules()
	if f.Boilerplate != nil {
		r.Boilerplate = f.Boilerplate
	}
	if f.Categories != nil {
		r.Categories = make([]CategoryRule, 0, len(f.Categories))
		for _, c := range f.Categories {
			if c.Category == "" {
				return nil, core.ErrValidation(core.CodeInvalidRules, "category rule without a category")
			}
			r.Categories = append(r.Categories, CategoryRule{
				Category: core.Category(c.Category),
				Keywords: c.Keywords,
			})
		}
	}
	if f.Domains != nil {
		r.Domains = make([]DomainProfile, 0, len(f.Domains))
		for _, d := range f.Domains {
			profile := DomainProfile{Name: d.Name, Preface: d.Preface, Caveats: d.Caveats}
			for _, p := range d.Patterns {
				re, err := regexp.Compile(p)
				if err != nil {
					return nil, core.ErrValidation(core.CodeInvalidRules,
						fmt.Sprintf("domain %q: invalid pattern %q", d.Name, p)).WithCause(err)
				}
				profile.Patterns = append(profile.Patterns, re)
			}
			r.Domains = append(r.Domains, profile)
		}
	}

	if err := r.compile(); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadRules reads a YAML rules file.
func LoadRules(path string) (*Rules, error) {
	data, err := fsutil.ReadFileScoped(path, fsutil.MaxInputBytes)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return ParseRules(data)
}
