package inventory

import (
	"strconv"
	"strings"
)

// Range bounds the quantities accepted as real readings. Both ends are inclusive.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// DefaultRange is the plausibility window used when none is configured.
var DefaultRange = Range{Min: 1, Max: 1000}

// Contains reports whether n lies within the range.
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// IsZero reports whether the range was left unset.
func (r Range) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

// parseQuantity converts a captured digit run into a quantity inside r.
// Overflowing, empty or implausible captures are rejected.
func parseQuantity(raw string, r Range) (int, bool) {
	raw = strings.TrimSpace(raw)
	if !isDigits(raw) {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	if !r.Contains(n) {
		return 0, false
	}
	return n, true
}
