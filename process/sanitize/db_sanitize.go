// Package sanitize truncates the service tables, optionally reseeding roles and the
// admin account.
package sanitize

import (
	"context"
	"flag"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"invscan/config"
	"invscan/pkg/store"
)

// DefaultTables lists the service tables, children first.
const DefaultTables = "scan_items,scans,characters,refresh_tokens,users,roles"

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParseTables splits a comma-separated list and drops empty or invalid identifiers.
func ParseTables(list string) []string {
	parts := strings.Split(list, ",")
	wanted := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !nameRe.MatchString(p) {
			log.Warn().Str("table", p).Msg("skipping invalid table name")
			continue
		}
		wanted = append(wanted, p)
	}
	return wanted
}

// TruncateStatement builds the TRUNCATE for already validated table names.
func TruncateStatement(tables []string) string {
	quoted := make([]string, 0, len(tables))
	for _, t := range tables {
		quoted = append(quoted, fmt.Sprintf("%q", t))
	}
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
}

// Run executes the db_sanitize CLI behavior. Exported so a small cmd/main can call it.
func Run() {
	var (
		dryRun = flag.Bool("dry-run", true, "don't perform destructive actions; show what would be done")
		yes    = flag.Bool("yes", false, "confirm destructive action (required to actually truncate)")
		reseed = flag.Bool("reseed", false, "after truncation, reseed master roles and the admin account")
		tables = flag.String("tables", DefaultTables, "comma-separated list of tables to truncate")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()
	if cfg.DatabaseDSN == "" {
		log.Fatal().Msg("DB_DSN must be set to run db_sanitize")
	}
	gdb, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	existing := []string{}
	// check presence individually to avoid any injection risk
	for _, t := range ParseTables(*tables) {
		var cnt int64
		if err := gdb.Raw("SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ?", t).Scan(&cnt).Error; err != nil {
			log.Fatal().Err(err).Str("table", t).Msg("failed to query pg_tables")
		}
		if cnt > 0 {
			existing = append(existing, t)
		} else {
			log.Info().Str("table", t).Msg("table not found, skipping")
		}
	}
	if len(existing) == 0 {
		log.Info().Msg("no requested tables present in the database; nothing to do")
		return
	}

	fmt.Println("Tables considered for truncation:")
	for _, t := range existing {
		fmt.Printf(" - %s\n", t)
	}

	if *dryRun {
		fmt.Println("dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return
	}
	if !*yes {
		fmt.Println("Destructive operation. Pass --yes to confirm execution. Aborting.")
		return
	}

	stmt := TruncateStatement(existing)
	log.Info().Str("stmt", stmt).Msg("executing")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := gdb.WithContext(ctx).Exec(stmt).Error; err != nil {
		log.Fatal().Err(err).Msg("truncate failed")
	}
	log.Info().Msg("truncate completed")

	if *reseed {
		store.New(gdb).Seed()
	}
}
