package inventory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidRule is returned when a rule row cannot be compiled.
var ErrInvalidRule = errors.New("invalid item rule")

// Position tells on which side of the item name the quantity sits.
type Position string

const (
	// Before: "65 Starmetal".
	Before Position = "before"
	// After: "WRAVING; 52".
	After Position = "after"
	// Near: the largest plausible number within a character window around the
	// name, for labels whose count is not adjacent: "I.FATHF RWORKING 0 151".
	Near Position = "near"
)

const (
	defaultGapBefore = `\s*`
	defaultGapAfter  = `[;:\s]*`

	defaultLookbehind = 50
	defaultLookahead  = 100
)

// Pattern is one recognition variant of an item name and where its quantity is.
//
// Name is a regular expression for the name token and may spell out misreadings
// (e.g. `Starmetal|Modium`). NotFollowedBy, when set, must not match the text that
// immediately follows the name token; it stands in for a negative lookahead.
// Lookbehind and Lookahead size the window of a Near pattern in bytes; zero
// means 50 and 100.
type Pattern struct {
	Name          string   `json:"name" yaml:"name"`
	Position      Position `json:"position" yaml:"position"`
	Gap           string   `json:"gap,omitempty" yaml:"gap,omitempty"`
	NotFollowedBy string   `json:"not_followed_by,omitempty" yaml:"not_followed_by,omitempty"`
	Lookbehind    int      `json:"lookbehind,omitempty" yaml:"lookbehind,omitempty"`
	Lookahead     int      `json:"lookahead,omitempty" yaml:"lookahead,omitempty"`
}

// Part is a sub-category whose quantity is summed into its rule's item, such as the
// two halves of a truncated category label recognized separately.
type Part struct {
	Name     string    `json:"name" yaml:"name"`
	Patterns []Pattern `json:"patterns" yaml:"patterns"`
	Keywords []string  `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// ItemRule maps a canonical item name to its ordered recognition patterns.
// Keywords and Exclude form the vocabulary used by the spatial fallback.
type ItemRule struct {
	Item       string    `json:"item" yaml:"item"`
	Patterns   []Pattern `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Parts      []Part    `json:"parts,omitempty" yaml:"parts,omitempty"`
	Keywords   []string  `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Exclude    []string  `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Range      *Range    `json:"range,omitempty" yaml:"range,omitempty"`
	SumMatches bool      `json:"sum_matches,omitempty" yaml:"sum_matches,omitempty"`
}

type compiledPattern struct {
	re      *regexp.Regexp
	qty     int // submatch index of the quantity, 0 for Near
	nameEnd int // submatch index of the name group
	notNext *regexp.Regexp

	near       bool
	lookbehind int
	lookahead  int
}

type compiledPart struct {
	name     string
	patterns []compiledPattern
	keywords []string
}

type compiledRule struct {
	item       string
	parts      []compiledPart
	exclude    []string
	rng        *Range
	sumMatches bool
}

// Table is a compiled, read-only rule table. It is safe for concurrent use.
type Table struct {
	rules []ItemRule
	comp  []compiledRule
}

// NewTable validates and compiles rules. Rows sharing an item are merged in order.
func NewTable(rules []ItemRule) (*Table, error) {
	t := &Table{}
	if err := t.add(rules); err != nil {
		return nil, err
	}
	return t, nil
}

// MustTable is NewTable that panics on error. Meant for static tables.
func MustTable(rules []ItemRule) *Table {
	t, err := NewTable(rules)
	if err != nil {
		panic(err)
	}
	return t
}

// Extend returns a new table with rows appended. Patterns of an existing item are
// appended after the ones already present; the receiver is left untouched.
func (t *Table) Extend(rules ...ItemRule) (*Table, error) {
	next := &Table{}
	if err := next.add(append(append([]ItemRule(nil), t.rules...), rules...)); err != nil {
		return nil, err
	}
	return next, nil
}

// Rules returns a copy of the source rows, merged by item.
func (t *Table) Rules() []ItemRule {
	return append([]ItemRule(nil), t.rules...)
}

// Items lists the canonical item names in table order.
func (t *Table) Items() []string {
	out := make([]string, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r.Item)
	}
	return out
}

func (t *Table) add(rules []ItemRule) error {
	merged := make([]ItemRule, 0, len(rules))
	index := map[string]int{}
	for _, r := range rules {
		r.Item = strings.TrimSpace(r.Item)
		if r.Item == "" {
			return errors.Wrap(ErrInvalidRule, "empty item name")
		}
		if i, ok := index[r.Item]; ok {
			merged[i] = mergeRule(merged[i], r)
			continue
		}
		index[r.Item] = len(merged)
		merged = append(merged, r)
	}
	comp := make([]compiledRule, 0, len(merged))
	for _, r := range merged {
		cr, err := compileRule(r)
		if err != nil {
			return err
		}
		comp = append(comp, cr)
	}
	t.rules = merged
	t.comp = comp
	return nil
}

func mergeRule(dst, src ItemRule) ItemRule {
	dst.Patterns = append(append([]Pattern(nil), dst.Patterns...), src.Patterns...)
	dst.Parts = append(append([]Part(nil), dst.Parts...), src.Parts...)
	dst.Keywords = append(append([]string(nil), dst.Keywords...), src.Keywords...)
	dst.Exclude = append(append([]string(nil), dst.Exclude...), src.Exclude...)
	if src.Range != nil {
		dst.Range = src.Range
	}
	dst.SumMatches = dst.SumMatches || src.SumMatches
	return dst
}

func compileRule(r ItemRule) (compiledRule, error) {
	cr := compiledRule{
		item:       r.Item,
		exclude:    lowerAll(r.Exclude),
		rng:        r.Range,
		sumMatches: r.SumMatches,
	}
	if len(r.Patterns) == 0 && len(r.Parts) == 0 && len(r.Keywords) == 0 {
		return cr, errors.Wrapf(ErrInvalidRule, "%s: no patterns, parts or keywords", r.Item)
	}
	if r.Range != nil && r.Range.Min > r.Range.Max {
		return cr, errors.Wrapf(ErrInvalidRule, "%s: range min %d > max %d", r.Item, r.Range.Min, r.Range.Max)
	}
	if len(r.Patterns) > 0 || len(r.Keywords) > 0 {
		main, err := compilePart(r.Item, Part{Name: r.Item, Patterns: r.Patterns, Keywords: r.Keywords})
		if err != nil {
			return cr, err
		}
		if len(r.Parts) == 0 {
			cr.parts = []compiledPart{main}
			return cr, nil
		}
		// Patterns declared next to parts act as one more part.
		cr.parts = append(cr.parts, main)
	}
	for _, p := range r.Parts {
		cp, err := compilePart(r.Item, p)
		if err != nil {
			return cr, err
		}
		cr.parts = append(cr.parts, cp)
	}
	return cr, nil
}

func compilePart(item string, p Part) (compiledPart, error) {
	cp := compiledPart{name: p.Name, keywords: lowerAll(p.Keywords)}
	for i, pat := range p.Patterns {
		c, err := compilePattern(pat)
		if err != nil {
			return cp, errors.Wrapf(err, "%s: pattern %d", item, i)
		}
		cp.patterns = append(cp.patterns, c)
	}
	return cp, nil
}

func compilePattern(p Pattern) (compiledPattern, error) {
	if strings.TrimSpace(p.Name) == "" {
		return compiledPattern{}, errors.Wrap(ErrInvalidRule, "empty name expression")
	}
	var expr string
	var c compiledPattern
	switch p.Position {
	case Before:
		gap := p.Gap
		if gap == "" {
			gap = defaultGapBefore
		}
		expr = fmt.Sprintf(`(?i)(?P<qty>\d+)%s(?P<name>%s)`, gap, p.Name)
	case After, "":
		gap := p.Gap
		if gap == "" {
			gap = defaultGapAfter
		}
		expr = fmt.Sprintf(`(?i)(?P<name>%s)%s(?P<qty>\d+)`, p.Name, gap)
	case Near:
		if p.Lookbehind < 0 || p.Lookahead < 0 {
			return c, errors.Wrapf(ErrInvalidRule, "negative window around %q", p.Name)
		}
		expr = fmt.Sprintf(`(?i)(?P<name>%s)`, p.Name)
		c.near = true
		c.lookbehind, c.lookahead = p.Lookbehind, p.Lookahead
		if c.lookbehind == 0 {
			c.lookbehind = defaultLookbehind
		}
		if c.lookahead == 0 {
			c.lookahead = defaultLookahead
		}
	default:
		return c, errors.Wrapf(ErrInvalidRule, "unknown position %q", p.Position)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return c, errors.Wrapf(ErrInvalidRule, "compile %q: %v", expr, err)
	}
	// Named groups keep the indexes right when a name or gap has groups of its own.
	c.nameEnd = re.SubexpIndex("name")
	if !c.near {
		c.qty = re.SubexpIndex("qty")
	}
	c.re = re
	if p.NotFollowedBy != "" {
		nf, err := regexp.Compile(`(?i)^(?:` + p.NotFollowedBy + `)`)
		if err != nil {
			return c, errors.Wrapf(ErrInvalidRule, "compile not_followed_by %q: %v", p.NotFollowedBy, err)
		}
		c.notNext = nf
	}
	return c, nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
