package inventory

import (
	"math"
	"strings"
)

// Point is a position in image pixel coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Fragment is one unit of recognizer output: text, its bounding box and confidence.
// Box holds the four corners in recognizer order (top-left, top-right, bottom-right,
// bottom-left).
type Fragment struct {
	Text       string   `json:"text"`
	Box        [4]Point `json:"box"`
	Confidence float64  `json:"confidence"`
}

// NewFragment builds a fragment from an axis-aligned rectangle.
func NewFragment(text string, x0, y0, x1, y1, confidence float64) Fragment {
	return Fragment{
		Text: text,
		Box: [4]Point{
			{X: x0, Y: y0},
			{X: x1, Y: y0},
			{X: x1, Y: y1},
			{X: x0, Y: y1},
		},
		Confidence: confidence,
	}
}

// Center returns the midpoint of the top-left and bottom-right corners.
func (f Fragment) Center() Point {
	return Point{
		X: (f.Box[0].X + f.Box[2].X) / 2,
		Y: (f.Box[0].Y + f.Box[2].Y) / 2,
	}
}

// Numeric reports whether the trimmed text is made of decimal digits only.
func (f Fragment) Numeric() bool {
	return isDigits(strings.TrimSpace(f.Text))
}

// Distance is the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeText collapses whitespace runs into single spaces.
func normalizeText(t string) string {
	return strings.Join(strings.Fields(t), " ")
}
