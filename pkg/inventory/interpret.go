package inventory

import (
	"math"
	"regexp"
	"strings"
)

var numberToken = regexp.MustCompile(`\b\d+\b`)

// Options tunes a single interpretation pass.
type Options struct {
	// MinConfidence drops fragments whose confidence is below it.
	MinConfidence float64 `json:"min_confidence"`
	// Plausible is the accepted quantity window. A zero value means DefaultRange.
	Plausible Range `json:"plausible"`
	// MaxDistance bounds the spatial fallback, in pixels between fragment centers.
	// Zero disables the spatial step.
	MaxDistance float64 `json:"max_distance"`
}

// DefaultOptions returns the thresholds used by the service.
func DefaultOptions() Options {
	return Options{
		MinConfidence: 0.3,
		Plausible:     DefaultRange,
		MaxDistance:   100,
	}
}

// Source tells how a quantity was resolved.
type Source string

const (
	SourcePattern Source = "pattern"
	SourceSpatial Source = "spatial"
)

// Match records one resolved quantity and where it came from.
type Match struct {
	Item     string  `json:"item"`
	Part     string  `json:"part,omitempty"`
	Quantity int     `json:"quantity"`
	Source   Source  `json:"source"`
	Pattern  string  `json:"pattern,omitempty"`
	Snippet  string  `json:"snippet,omitempty"`
	Distance float64 `json:"distance,omitempty"`
}

// Interpret turns recognized fragments into an inventory snapshot. It is a pure
// function of its arguments; a nil table yields an empty snapshot.
func Interpret(fragments []Fragment, opts Options, table *Table) Snapshot {
	snap, _ := Explain(fragments, opts, table)
	return snap
}

// Explain is Interpret that also reports every resolved part quantity.
func Explain(fragments []Fragment, opts Options, table *Table) (Snapshot, []Match) {
	kept := Filter(fragments, opts.MinConfidence)
	return run(SearchText(kept), kept, opts, table)
}

// InterpretText matches the rule patterns against a raw text blob. There are no
// positions, so the spatial step is skipped.
func InterpretText(text string, opts Options, table *Table) Snapshot {
	snap, _ := run(normalizeText(text), nil, opts, table)
	return snap
}

// Filter returns the fragments whose confidence is at least min, in order.
func Filter(fragments []Fragment, min float64) []Fragment {
	out := make([]Fragment, 0, len(fragments))
	for _, f := range fragments {
		if f.Confidence >= min {
			out = append(out, f)
		}
	}
	return out
}

// SearchText joins fragment texts in recognition order with whitespace collapsed.
func SearchText(fragments []Fragment) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if t := normalizeText(f.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func run(text string, frags []Fragment, opts Options, table *Table) (Snapshot, []Match) {
	snap := Snapshot{}
	if table == nil {
		return snap, nil
	}
	global := opts.Plausible
	if global.IsZero() {
		global = DefaultRange
	}
	var matches []Match
	for _, rule := range table.comp {
		rng := global
		if rule.rng != nil {
			rng = *rule.rng
		}
		total, found := 0, false
		for _, part := range rule.parts {
			m, ok := resolvePattern(text, part, rng, rule.sumMatches)
			if !ok && opts.MaxDistance > 0 {
				m, ok = resolveSpatial(frags, part.keywords, rule.exclude, rng, opts.MaxDistance)
			}
			if !ok {
				continue
			}
			m.Item = rule.item
			if part.name != rule.item {
				m.Part = part.name
			}
			matches = append(matches, m)
			total += m.Quantity
			found = true
		}
		if found {
			snap[rule.item] = total
		}
	}
	return snap, matches
}

// resolvePattern returns the quantity from the first pattern that yields a usable match.
func resolvePattern(text string, part compiledPart, rng Range, sum bool) (Match, bool) {
	if text == "" {
		return Match{}, false
	}
	for _, p := range part.patterns {
		total, found := 0, false
		var first Match
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			nameEnd := loc[2*p.nameEnd+1]
			if p.notNext != nil && p.notNext.MatchString(text[nameEnd:]) {
				continue
			}
			var n int
			var ok bool
			if p.near {
				n, ok = largestNear(text, loc[0], loc[1], p.lookbehind, p.lookahead, rng)
			} else if qs, qe := loc[2*p.qty], loc[2*p.qty+1]; qs >= 0 {
				n, ok = parseQuantity(text[qs:qe], rng)
			}
			if !ok {
				continue
			}
			if !found {
				first = Match{Source: SourcePattern, Pattern: p.re.String(), Snippet: text[loc[0]:loc[1]]}
			}
			total += n
			found = true
			if !sum {
				break
			}
		}
		if found {
			first.Quantity = total
			return first, true
		}
	}
	return Match{}, false
}

// largestNear returns the largest plausible number token between lookbehind bytes
// before start and lookahead bytes after end.
func largestNear(text string, start, end, lookbehind, lookahead int, rng Range) (int, bool) {
	lo := max(0, start-lookbehind)
	hi := min(len(text), end+lookahead)
	best, found := 0, false
	for _, tok := range numberToken.FindAllString(text[lo:hi], -1) {
		n, ok := parseQuantity(tok, rng)
		if ok && (!found || n > best) {
			best, found = n, true
		}
	}
	return best, found
}

// resolveSpatial pairs a numeric fragment with the closest fragment naming the item.
func resolveSpatial(frags []Fragment, keywords, exclude []string, rng Range, maxDist float64) (Match, bool) {
	if len(keywords) == 0 || len(frags) < 2 {
		return Match{}, false
	}
	named := make([]bool, len(frags))
	for j, f := range frags {
		named[j] = !f.Numeric() && mentions(f.Text, keywords, exclude)
	}
	best := Match{Distance: math.Inf(1)}
	found := false
	for i, num := range frags {
		if !num.Numeric() {
			continue
		}
		n, ok := parseQuantity(num.Text, rng)
		if !ok {
			continue
		}
		c := num.Center()
		for j, f := range frags {
			if j == i || !named[j] {
				continue
			}
			d := Distance(c, f.Center())
			if d > maxDist || d >= best.Distance {
				continue
			}
			best = Match{
				Quantity: n,
				Source:   SourceSpatial,
				Snippet:  normalizeText(f.Text) + " ~ " + strings.TrimSpace(num.Text),
				Distance: d,
			}
			found = true
		}
	}
	return best, found
}

func mentions(text string, keywords, exclude []string) bool {
	t := strings.ToLower(text)
	for _, x := range exclude {
		if strings.Contains(t, x) {
			return false
		}
	}
	for _, k := range keywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}
