package categorize

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	CSThreshold         = 2.5
	BioThreshold        = 2.0
	SoftExclusionFactor = 0.2
	HardExclusionFactor = 0.1
	ContextBoostFactor  = 1.5
)

const (
	LabelComputerScience = "Computer Science"
	LabelBiology         = "Biology"
)

// Dictionary is the weighted vocabulary for one label.
type Dictionary struct {
	Label     string             `yaml:"label"`
	Threshold float64            `yaml:"threshold"`
	Terms     map[string]float64 `yaml:"terms"`
	// SoftExclusions multiply the score by SoftExclusionFactor,
	// HardExclusions by HardExclusionFactor.
	SoftExclusions []string `yaml:"soft_exclusions"`
	HardExclusions []string `yaml:"hard_exclusions"`
	// Boosts are regular expressions whose presence multiplies the score
	// by ContextBoostFactor.
	Boosts []string `yaml:"boosts"`
}

type weightedTerm struct {
	term   string
	weight float64
	re     *regexp.Regexp
}

type compiled struct {
	label     string
	threshold float64
	terms     []weightedTerm
	soft      []*regexp.Regexp
	hard      []*regexp.Regexp
	boosts    []*regexp.Regexp
}

// Score is one label's result for a text.
type Score struct {
	Label    string  `json:"label"`
	Raw      float64 `json:"raw"`
	Adjusted float64 `json:"adjusted"`
	Assigned bool    `json:"assigned"`
}

// Categorizer assigns labels by weighted keyword scoring.
type Categorizer struct {
	dicts []compiled
}

// New compiles dicts.
func New(dicts []Dictionary) (*Categorizer, error) {
	c := &Categorizer{}
	for _, d := range dicts {
		if d.Label == "" {
			return nil, fmt.Errorf("dictionary without label")
		}
		cd := compiled{label: d.Label, threshold: d.Threshold}

		terms := make([]string, 0, len(d.Terms))
		for t := range d.Terms {
			terms = append(terms, t)
		}
		sort.Strings(terms)
		for _, t := range terms {
			cd.terms = append(cd.terms, weightedTerm{term: t, weight: d.Terms[t], re: phraseRE(t)})
		}
		for _, p := range d.SoftExclusions {
			cd.soft = append(cd.soft, phraseRE(p))
		}
		for _, p := range d.HardExclusions {
			cd.hard = append(cd.hard, phraseRE(p))
		}
		for _, b := range d.Boosts {
			re, err := regexp.Compile("(?i)" + b)
			if err != nil {
				return nil, fmt.Errorf("compiling boost %q for %s: %w", b, d.Label, err)
			}
			cd.boosts = append(cd.boosts, re)
		}
		c.dicts = append(c.dicts, cd)
	}
	return c, nil
}

// phraseRE matches phrase as whole words, allowing a plural suffix and any
// whitespace between words.
func phraseRE(phrase string) *regexp.Regexp {
	words := strings.Fields(strings.ToLower(phrase))
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(words, `\s+`) + `(?:s|es)?\b`)
}

// Default returns the built-in computer science and biology categorizer.
func Default() *Categorizer {
	c, err := New(DefaultDictionaries())
	if err != nil {
		panic(err)
	}
	return c
}

// LoadDictionaries reads dictionaries from a YAML file.
func LoadDictionaries(path string) ([]Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dictionaries: %w", err)
	}
	var dicts []Dictionary
	if err := yaml.Unmarshal(data, &dicts); err != nil {
		return nil, fmt.Errorf("parsing dictionaries: %w", err)
	}
	return dicts, nil
}

// Categorize returns the labels assigned to an event, sorted.
func (c *Categorizer) Categorize(title, description string) []string {
	var labels []string
	for _, s := range c.Scores(title, description) {
		if s.Assigned {
			labels = append(labels, s.Label)
		}
	}
	sort.Strings(labels)
	return labels
}

// Scores returns every label's score for an event.
func (c *Categorizer) Scores(title, description string) []Score {
	text := title + "\n" + description
	words := len(strings.Fields(text))
	norm := float64(words) * 0.1
	if norm < 1 {
		norm = 1
	}

	out := make([]Score, 0, len(c.dicts))
	for _, d := range c.dicts {
		raw := d.raw(text)
		adj := raw / norm
		if anyMatch(d.hard, text) {
			adj *= HardExclusionFactor
		} else if anyMatch(d.soft, text) {
			adj *= SoftExclusionFactor
		}
		if anyMatch(d.boosts, text) {
			adj *= ContextBoostFactor
		}
		out = append(out, Score{
			Label:    d.label,
			Raw:      raw,
			Adjusted: adj,
			Assigned: raw > 0 && adj >= d.threshold,
		})
	}
	return out
}

// RawScore returns label's un-normalized score, the sum of weight times
// occurrence count over its terms.
func (c *Categorizer) RawScore(label, text string) float64 {
	for _, d := range c.dicts {
		if d.label == label {
			return d.raw(text)
		}
	}
	return 0
}

func (d compiled) raw(text string) float64 {
	total := 0.0
	for _, t := range d.terms {
		if n := len(t.re.FindAllStringIndex(text, -1)); n > 0 {
			total += t.weight * float64(n)
		}
	}
	return total
}

func anyMatch(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
