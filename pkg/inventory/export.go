package inventory

import "strings"

var itemIDs = map[string]string{
	"Starmetal Ore":    "starmetalOre",
	"Iron Ore":         "ironOre",
	"Orichalcum Ore":   "orichalcumOre",
	"Mythril Ore":      "mythrilOre",
	"Steel Ingot":      "steelIngot",
	"Iron Ingot":       "ironIngot",
	"Starmetal Ingot":  "starmetalIngot",
	"Orichalcum Ingot": "orichalcumIngot",
	"Reagents":         "reagents",
	"Obsidian Flux":    "obsidianFlux",
	"Sand Flux":        "sandFlux",
	"Charcoal":         "charcoal",
	"Silk":             "silk",
	"Leather":          "leather",
	"Timber":           "timber",
	"Lumber":           "lumber",
}

// ItemID maps a canonical item name to the crafting calculator's identifier.
// Unknown names are lower-cased with spaces removed.
func ItemID(name string) string {
	if id, ok := itemIDs[name]; ok {
		return id
	}
	return strings.ReplaceAll(strings.ToLower(name), " ", "")
}

// ExportIDs re-keys a snapshot by calculator identifier. Quantities of names that
// collapse to the same identifier are added.
func ExportIDs(s Snapshot) map[string]int {
	out := make(map[string]int, len(s))
	for k, v := range s {
		out[ItemID(k)] += v
	}
	return out
}
