package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func words(texts ...string) []Fragment {
	out := make([]Fragment, 0, len(texts))
	x := 0.0
	for _, t := range texts {
		out = append(out, NewFragment(t, x, 0, x+80, 20, 0.9))
		x += 1000 // far apart so only text matching applies
	}
	return out
}

func TestInterpretStarmetalBefore(t *testing.T) {
	snap := Interpret(words("65 Starmetal"), DefaultOptions(), DefaultTable())
	require.Equal(t, Snapshot{"Starmetal Ore": 65}, snap)
}

func TestInterpretIronIngotExcludedFromIronOre(t *testing.T) {
	snap := Interpret(words("Iron Ingot 40"), DefaultOptions(), DefaultTable())
	require.NotContains(t, snap, "Iron Ore")
	require.Equal(t, 40, snap["Iron Ingot"])
}

func TestInterpretIronOreWithoutIngotRule(t *testing.T) {
	table, err := NewTable([]ItemRule{{
		Item:     "Iron Ore",
		Patterns: []Pattern{{Name: `Iron`, Position: After, NotFollowedBy: `\s*Ingot`}},
	}})
	require.NoError(t, err)
	require.Empty(t, InterpretText("Iron Ingot 40", DefaultOptions(), table))
	require.Equal(t, Snapshot{"Iron Ore": 12}, InterpretText("Iron 12", DefaultOptions(), table))
}

func TestInterpretWeavingPartsSummed(t *testing.T) {
	snap := Interpret(words("WRAVING 52", "WKAVNG 160"), DefaultOptions(), DefaultTable())
	require.Equal(t, Snapshot{"Weaving Materials": 212}, snap)
}

func TestInterpretSpatialFallback(t *testing.T) {
	name := NewFragment("Orichalcum", 100, 100, 200, 120, 0.9)
	filler := NewFragment("Tier", 400, 300, 440, 320, 0.9)

	near := NewFragment("36", 150, 150, 170, 170, 0.9)
	snap := Interpret([]Fragment{name, filler, near}, DefaultOptions(), DefaultTable())
	require.Equal(t, 36, snap["Orichalcum Ore"])

	far := NewFragment("36", 600, 600, 620, 620, 0.9)
	snap = Interpret([]Fragment{name, filler, far}, DefaultOptions(), DefaultTable())
	require.NotContains(t, snap, "Orichalcum Ore")
}

func TestInterpretSpatialPicksClosestPair(t *testing.T) {
	table := MustTable([]ItemRule{{Item: "Silver Ore", Keywords: []string{"silver"}}})
	frags := []Fragment{
		NewFragment("Silver", 0, 0, 60, 20, 0.9),
		NewFragment("70", 0, 80, 20, 100, 0.9),
		NewFragment("12", 70, 0, 90, 20, 0.9),
	}
	snap, matches := Explain(frags, DefaultOptions(), table)
	require.Equal(t, Snapshot{"Silver Ore": 12}, snap)
	require.Len(t, matches, 1)
	require.Equal(t, SourceSpatial, matches[0].Source)
	require.InDelta(t, 50.0, matches[0].Distance, 0.001)
}

func TestInterpretSpatialSkipsExcludedNames(t *testing.T) {
	frags := []Fragment{
		NewFragment("Iron Ingot", 0, 0, 80, 20, 0.9),
		NewFragment("x", 300, 300, 310, 310, 0.9),
		NewFragment("17", 90, 0, 110, 20, 0.9),
	}
	snap := Interpret(frags, DefaultOptions(), DefaultTable())
	require.NotContains(t, snap, "Iron Ore")
	require.Equal(t, 17, snap["Iron Ingot"])
}

func TestInterpretPlausibility(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Snapshot
	}{
		{name: "rejected", text: "5000 Starmetal", want: Snapshot{}},
		{name: "falls through to next pattern", text: "5000 Starmetal Ore 70", want: Snapshot{"Starmetal Ore": 70}},
		{name: "zero rejected", text: "Silk 0", want: Snapshot{}},
		{name: "upper bound kept", text: "Silk 1000", want: Snapshot{"Silk": 1000}},
		{name: "overflow rejected", text: "Silk 99999999999999999999999", want: Snapshot{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Interpret(words(tc.text), DefaultOptions(), DefaultTable()))
		})
	}
}

func TestInterpretRuleRange(t *testing.T) {
	snap := InterpretText("LEATHERWORKING 5", DefaultOptions(), DefaultTable())
	require.NotContains(t, snap, "Leatherworking Materials")
	snap = InterpretText("I.FNTHKRWORKING; 151", DefaultOptions(), DefaultTable())
	require.Equal(t, 151, snap["Leatherworking Materials"])
}

func TestInterpretMonotonicFiltering(t *testing.T) {
	opts := DefaultOptions()
	base := words("65 Starmetal", "RKAGKNTS 1")
	want := Interpret(base, opts, DefaultTable())

	noisy := append([]Fragment{}, base...)
	noisy = append(noisy,
		Fragment{Text: "900 Iron", Confidence: 0.1},
		Fragment{Text: "WKAVNG 12", Confidence: 0.29},
	)
	require.Equal(t, want, Interpret(noisy, opts, DefaultTable()))

	low := noisy[len(noisy)-1]
	low.Confidence = opts.MinConfidence
	got := Interpret(append(base, low), opts, DefaultTable())
	require.Equal(t, 12, got["Weaving Materials"])
}

func TestInterpretIdempotent(t *testing.T) {
	frags := words("Modium 22.2", "RKAGKNTS 1.7", "SMKI:TNG; 100", "WRAVING; 62.0")
	table := DefaultTable()
	first := Interpret(frags, DefaultOptions(), table)
	second := Interpret(frags, DefaultOptions(), table)
	require.Equal(t, first, second)
	require.Equal(t, Snapshot{
		"Starmetal Ore":      22,
		"Reagents":           1,
		"Smelting Materials": 100,
		"Weaving Materials":  62,
	}, first)
}

func TestInterpretEmpty(t *testing.T) {
	require.Empty(t, Interpret(nil, DefaultOptions(), DefaultTable()))
	require.Empty(t, Interpret(words("INVENTORY 1162.9/1893.5"), DefaultOptions(), nil))
}

func TestInterpretSumMatches(t *testing.T) {
	table := MustTable([]ItemRule{{
		Item:       "Silk",
		Patterns:   []Pattern{{Name: `Silk`, Position: After}},
		SumMatches: true,
	}})
	require.Equal(t, Snapshot{"Silk": 15}, InterpretText("Silk 5 Silk 10", DefaultOptions(), table))
}

func TestInterpretStorageScreenshotText(t *testing.T) {
	text := `I} Ilut GPU INVENTORY 1194.1/1893.5 STORAGE SHED 4684.8/ 6575.0 Scarch 4 Search
Modjum 22.2 1.2 0 , I.FNTHKRWORKING; 151.7 0 SMKI:TIN; 3.6 WRAVING; 62.0 23.0 93
98 2.2 3 WO(I)WORKING 684.8 03 0 123,6 F 101 20 00`
	snap := InterpretText(text, DefaultOptions(), DefaultTable())
	require.Equal(t, 151, snap["Leatherworking Materials"])
	require.Equal(t, 3, snap["Smelting Materials"])
	require.Equal(t, 62, snap["Weaving Materials"])
	require.Equal(t, 684, snap["Woodworking Materials"])
}

func TestInterpretLeatherworkingLabelWindow(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{text: "I.FATHF RWORKING 0 151", want: 151},
		{text: "12 I.FATHF RWORKING 0 151 600", want: 151},
		{text: "151 I.FATHF RWORKING 0", want: 151},
		{text: "WO(I)WORKIVG 40", want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			snap := InterpretText(tc.text, DefaultOptions(), DefaultTable())
			require.Equal(t, tc.want, snap["Leatherworking Materials"])
		})
	}
}
