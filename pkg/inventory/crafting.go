package inventory

import "fmt"

// Recipe refines Ratio units of Input into one unit of Output.
type Recipe struct {
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
	Ratio  int    `json:"ratio" yaml:"ratio"`
}

// Suggestion is one actionable line derived from a snapshot.
type Suggestion struct {
	Output   string `json:"output,omitempty"`
	Quantity int    `json:"quantity"`
	Message  string `json:"message"`
}

// DefaultRecipes are the refinements checked by Suggest.
func DefaultRecipes() []Recipe {
	return []Recipe{
		{Input: "Starmetal Ore", Output: "Starmetal Ingot", Ratio: 4},
		{Input: "Iron Ore", Output: "Iron Ingot", Ratio: 4},
		{Input: "Orichalcum Ore", Output: "Orichalcum Ingot", Ratio: 4},
		{Input: "Timber", Output: "Lumber", Ratio: 4},
	}
}

// Suggest lists what the snapshot can be refined into, in recipe order, followed by
// the reagent stock when there is any.
func Suggest(s Snapshot, recipes []Recipe) []Suggestion {
	var out []Suggestion
	for _, r := range recipes {
		if r.Ratio <= 0 {
			continue
		}
		have := s[r.Input]
		if have < r.Ratio {
			continue
		}
		n := have / r.Ratio
		out = append(out, Suggestion{
			Output:   r.Output,
			Quantity: n,
			Message:  fmt.Sprintf("Can craft %d %s (need %d %s each)", n, r.Output, r.Ratio, r.Input),
		})
	}
	if n := s["Reagents"]; n > 0 {
		out = append(out, Suggestion{
			Quantity: n,
			Message:  fmt.Sprintf("Have %d Reagents for advanced crafting", n),
		})
	}
	return out
}
