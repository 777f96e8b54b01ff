// Package rules turns transcript text into whiteboard elements by keyword matching.
package rules

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var ErrEmptyKeyword = errors.New("rule keyword is empty")

const DefaultTemplate = "{speaker}: {transcript}"

// Rule maps a keyword to the element it produces.
type Rule struct {
	Name     string           `yaml:"name" json:"name" validate:"required,excludesall= "`
	Keyword  string           `yaml:"keyword" json:"keyword" validate:"required"`
	Kind     domain.Kind      `yaml:"kind" json:"kind" validate:"omitempty,oneof=sticky shape"`
	Color    string           `yaml:"color" json:"color"`
	Shape    domain.ShapeKind `yaml:"shape" json:"shape"`
	Template string           `yaml:"template" json:"template"`
	X        float64          `yaml:"x" json:"x"`
	Y        float64          `yaml:"y" json:"y"`
}

// Defaults is the table used when configuration provides none.
func Defaults() []Rule {
	return []Rule{
		{Name: "blocker", Keyword: "blocker", Kind: domain.KindSticky, Color: "red", X: 100, Y: 100},
		{Name: "action", Keyword: "action item", Kind: domain.KindSticky, Color: "orange", X: 320, Y: 100},
		{Name: "decision", Keyword: "decided", Kind: domain.KindShape, Shape: domain.ShapeDiamond, X: 540, Y: 100},
	}
}

// Element builds the element this rule emits for one transcript.
func (r Rule) Element(speaker domain.Participant, transcript, suffix string) domain.Element {
	tpl := r.Template
	if tpl == "" {
		tpl = DefaultTemplate
	}
	text := strings.NewReplacer(
		"{speaker}", speaker.Name,
		"{transcript}", transcript,
		"{keyword}", r.Keyword,
	).Replace(tpl)

	e := domain.Element{
		ID: fmt.Sprintf("%s-%s-%s", r.Name, speaker.ID, suffix),
		X:  r.X,
		Y:  r.Y,
	}
	switch r.Kind {
	case domain.KindShape:
		e.Kind = domain.KindShape
		e.Label = text
		e.Shape = r.Shape
	default:
		e.Kind = domain.KindSticky
		e.Text = text
		e.Color = r.Color
	}
	return e
}

// Table is an immutable, case-insensitive keyword matcher.
type Table struct {
	rules   []Rule
	byWord  map[string][]int // lowered keyword -> rule positions
	matcher *goahocorasick.Machine
}

func NewTable(rules []Rule) (*Table, error) {
	t := &Table{rules: append([]Rule(nil), rules...), byWord: make(map[string][]int)}

	patterns := make([][]rune, 0, len(rules))
	for i, r := range rules {
		if err := validate.Struct(r); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		kw := lower(r.Keyword)
		if strings.TrimSpace(kw) == "" {
			return nil, fmt.Errorf("rule %q: %w", r.Name, ErrEmptyKeyword)
		}
		if _, seen := t.byWord[kw]; !seen {
			patterns = append(patterns, []rune(kw))
		}
		t.byWord[kw] = append(t.byWord[kw], i)
	}
	if len(patterns) == 0 {
		return t, nil
	}

	// the double-array trie under the automaton wants sorted keys
	slices.SortFunc(patterns, slices.Compare[[]rune])

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build keyword matcher: %w", err)
	}
	t.matcher = m
	return t, nil
}

func (t *Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Match returns every rule whose keyword occurs in text, once per rule, in table order.
func (t *Table) Match(text string) []Rule {
	if t == nil || t.matcher == nil || text == "" {
		return nil
	}

	hits := make(map[int]struct{})
	for _, term := range t.matcher.MultiPatternSearch([]rune(lower(text)), false) {
		for _, i := range t.byWord[string(term.Word)] {
			hits[i] = struct{}{}
		}
	}

	out := make([]Rule, 0, len(hits))
	for i, r := range t.rules {
		if _, ok := hits[i]; ok {
			out = append(out, r)
		}
	}
	return out
}

func lower(s string) string {
	return strings.Map(unicode.ToLower, s)
}
