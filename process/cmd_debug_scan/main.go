// Command cmd_debug_scan prints what the scanner sees in one screenshot: the
// recognized fragments, the search text and every resolved match.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"invscan/config"
	"invscan/container"
	"invscan/pkg/inventory"
)

func main() {
	in := flag.String("file", "", "screenshot to scan")
	savePrep := flag.String("save-prep", "", "write the preprocessed image to this path")
	flag.Parse()
	if *in == "" {
		fmt.Println("usage: cmd_debug_scan -file shed.png [-save-prep /tmp/shed.prep.png]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()
	scanner, _, err := container.NewScanner(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scanner")
	}

	if *savePrep != "" && scanner.Preprocessor != nil {
		data, err := os.ReadFile(*in)
		if err != nil {
			log.Fatal().Err(err).Msg("read")
		}
		prepped, err := scanner.Preprocessor.Apply(data)
		if err != nil {
			log.Fatal().Err(err).Msg("preprocess")
		}
		if err := os.WriteFile(*savePrep, prepped, 0o644); err != nil {
			log.Fatal().Err(err).Msg("save preprocessed")
		}
		fmt.Printf("preprocessed image written to %s\n", *savePrep)
	}

	res, err := scanner.ScanFile(context.Background(), *in)
	if err != nil {
		log.Fatal().Err(err).Msg("scan")
	}
	fmt.Printf("fragments (%d):\n", len(res.Fragments))
	for _, f := range res.Fragments {
		c := f.Center()
		fmt.Printf("  %-24q conf=%.2f center=(%.0f,%.0f)\n", f.Text, f.Confidence, c.X, c.Y)
	}
	fmt.Printf("text: %s\n", res.Text)
	fmt.Println("matches:")
	for _, m := range res.Matches {
		fmt.Printf("  %s part=%q qty=%d source=%s snippet=%q dist=%.1f\n", m.Item, m.Part, m.Quantity, m.Source, m.Snippet, m.Distance)
	}
	fmt.Println(inventory.Format(res.Snapshot))
	fmt.Printf("took %s\n", res.Duration)
}
