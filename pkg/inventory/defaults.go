package inventory

const (
	notIngot       = `\s*Ingot`
	leatherworking = `I\.?F[AN]?THF?K?\s*RWORKING|FNTHKRWORKING|LEATHERWORKING`
)

func before(name string) Pattern { return Pattern{Name: name, Position: Before} }
func after(name string) Pattern  { return Pattern{Name: name, Position: After} }

func beforeNot(name, next string) Pattern {
	return Pattern{Name: name, Position: Before, NotFollowedBy: next}
}

func afterNot(name, next string) Pattern {
	return Pattern{Name: name, Position: After, NotFollowedBy: next}
}

// DefaultRules returns the built-in rule rows. The name expressions include the
// misreadings the storage UI font produces (K for E, l for I, 0 for o, split words).
func DefaultRules() []ItemRule {
	return []ItemRule{
		{
			Item: "Starmetal Ore",
			Patterns: []Pattern{
				beforeNot(`Starmetal|Star\s*metal|Starme|Starm`, notIngot),
				after(`Starmetal\s*Ore`),
				after(`Star\S{0,6}\s*Ore`),
				after(`Modium`),
				afterNot(`Starmetal`, notIngot),
			},
			Keywords: []string{"starmetal", "star"},
			Exclude:  []string{"ingot"},
		},
		{
			Item: "Iron Ore",
			Patterns: []Pattern{
				beforeNot(`Iron|Ir0n|lron`, notIngot),
				after(`[Il]ron\s*Ore`),
				after(`[Il]r[o0]n\W{0,3}Ore`),
				afterNot(`[Il]ron`, notIngot),
			},
			Keywords: []string{"iron", "lron"},
			Exclude:  []string{"ingot"},
		},
		{
			Item: "Orichalcum Ore",
			Patterns: []Pattern{
				beforeNot(`Orichalcum|Ori\s*chalcum|Orich`, notIngot),
				after(`Orichalcum\s*Ore`),
				afterNot(`Orichalcum`, notIngot),
			},
			Keywords: []string{"orichalcum", "orich"},
			Exclude:  []string{"ingot"},
		},
		{
			Item: "Orichalcum Ingot",
			Patterns: []Pattern{
				before(`(?:Orichalcum|Ori\s*chalcum|Orich)\s*Ingot`),
				after(`Orichalcum\s*Ingot`),
			},
			Keywords: []string{"orichalcum ingot"},
		},
		{
			Item: "Mythril Ore",
			Patterns: []Pattern{
				beforeNot(`Mythril|Myth`, notIngot),
				after(`Mythril\s*Ore`),
			},
			Keywords: []string{"mythril"},
			Exclude:  []string{"ingot"},
		},
		{
			Item: "Steel Ingot",
			Patterns: []Pattern{
				before(`Steel`),
				after(`Steel\s*Ingot`),
				after(`Steel`),
			},
			Keywords: []string{"steel"},
		},
		{
			Item: "Iron Ingot",
			Patterns: []Pattern{
				before(`[Il]ron\s*Ingot`),
				after(`[Il]ron\s*Ingot`),
				after(`[Il]r[o0]n\W{0,3}Ingot`),
			},
			Keywords: []string{"iron ingot"},
		},
		{
			Item: "Starmetal Ingot",
			Patterns: []Pattern{
				before(`Starmetal\s*Ingot`),
				after(`Starmetal\s*Ingot`),
			},
			Keywords: []string{"starmetal ingot"},
		},
		{
			Item: "Reagents",
			Patterns: []Pattern{
				after(`RKAGKNTS|REAGENTS|Reagents`),
				before(`Reagents?|RKAGKNTS`),
			},
			Keywords: []string{"reagent", "rkagknts"},
		},
		{
			Item: "Charcoal",
			Patterns: []Pattern{
				before(`Charcoal|Charc0al`),
				after(`Charcoal|Charc0al`),
			},
			Keywords: []string{"charcoal"},
		},
		{
			Item: "Flux",
			Patterns: []Pattern{
				before(`Flux`),
			},
		},
		{Item: "Sand Flux", Patterns: []Pattern{after(`Sand\s*Flux`)}, Keywords: []string{"sand flux"}},
		{Item: "Obsidian Flux", Patterns: []Pattern{after(`Obsidian\s*Flux`)}, Keywords: []string{"obsidian"}},
		{Item: "Silk", Patterns: []Pattern{after(`Silk`)}},
		{Item: "Leather", Patterns: []Pattern{afterNot(`Leather`, `\s*working`)}},
		{Item: "Timber", Patterns: []Pattern{after(`Timber`)}, Keywords: []string{"timber"}},
		{Item: "Lumber", Patterns: []Pattern{after(`Lumber`)}, Keywords: []string{"lumber"}},
		{Item: "Silver Ore", Patterns: []Pattern{after(`Silver\s*Ore`)}, Keywords: []string{"silver"}},
		{Item: "Gold Ore", Patterns: []Pattern{after(`Gold\s*Ore`)}, Keywords: []string{"gold"}},
		{
			// The category label wraps and is recognized as two tokens.
			Item: "Weaving Materials",
			Parts: []Part{
				{Name: "WKAVNG", Patterns: []Pattern{after(`WKAVNG`)}},
				{Name: "WRAVING", Patterns: []Pattern{after(`WRAVING|WEAVING`)}},
			},
		},
		{
			Item:     "Woodworking Materials",
			Patterns: []Pattern{after(`WO\(I\)WORK[IVN]+G|WOODWORKING`)},
		},
		{
			Item:     "Smelting Materials",
			Patterns: []Pattern{after(`SMKI:TIN|SMKI:TNG|SMELTING`)},
		},
		{
			// The count is often split from the label by stray digits.
			Item: "Leatherworking Materials",
			Patterns: []Pattern{
				after(leatherworking),
				{Name: leatherworking, Position: Near},
			},
			Range: &Range{Min: 10, Max: 500},
		},
	}
}

// DefaultTable is the compiled form of DefaultRules.
func DefaultTable() *Table {
	return MustTable(DefaultRules())
}
