package inventory

import (
	"fmt"
	"sort"
	"strings"
)

// Snapshot maps canonical item names to quantities for one recognition pass.
type Snapshot map[string]int

// Items returns the item names sorted alphabetically.
func (s Snapshot) Items() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge overlays snapshots left to right; a later snapshot wins for a shared item.
func Merge(snaps ...Snapshot) Snapshot {
	out := Snapshot{}
	for _, s := range snaps {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}

// Format renders one "Item: qty" line per entry, sorted by item.
func Format(s Snapshot) string {
	if len(s) == 0 {
		return "no items recognized"
	}
	var b strings.Builder
	for i, k := range s.Items() {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %d", k, s[k])
	}
	return b.String()
}
