// Command interpret runs the inventory interpreter over saved recognizer output: a
// JSON array of fragments, or plain text with -text. Reads stdin when no file is given.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"invscan/config"
	"invscan/pkg/inventory"
)

func main() {
	asText := flag.Bool("text", false, "input is plain text instead of fragment JSON")
	asJSON := flag.Bool("json", false, "print the snapshot as JSON keyed by calculator item id")
	explain := flag.Bool("explain", false, "print every resolved match")
	rules := flag.String("rules", "", "YAML rule file (default: RULES_FILE or built-in rules)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()
	if *rules == "" {
		*rules = cfg.RulesFile
	}
	table, err := inventory.LoadTable(*rules)
	if err != nil {
		log.Fatal().Err(err).Msg("load rules")
	}

	var in io.Reader = os.Stdin
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Fatal().Err(err).Msg("open input")
		}
		defer f.Close()
		in = f
	}
	data, err := io.ReadAll(in)
	if err != nil {
		log.Fatal().Err(err).Msg("read input")
	}

	opts := cfg.InterpretOptions()
	var (
		snap    inventory.Snapshot
		matches []inventory.Match
	)
	if *asText {
		snap = inventory.InterpretText(string(data), opts, table)
	} else {
		var frags []inventory.Fragment
		if err := json.Unmarshal(data, &frags); err != nil {
			log.Fatal().Err(err).Msg("decode fragments")
		}
		snap, matches = inventory.Explain(frags, opts, table)
	}

	if *explain {
		for _, m := range matches {
			fmt.Printf("%s part=%q qty=%d source=%s snippet=%q\n", m.Item, m.Part, m.Quantity, m.Source, m.Snippet)
		}
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(inventory.ExportIDs(snap)); err != nil {
			log.Fatal().Err(err).Msg("encode")
		}
		return
	}
	fmt.Println(inventory.Format(snap))
}
