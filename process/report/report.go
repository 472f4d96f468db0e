// Package report prints the merged inventory and scan history of a user.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"invscan/models"
	"invscan/pkg/inventory"
)

// Source is the data the report reads.
type Source interface {
	UserByName(username string) (*models.User, error)
	LatestInventory(ctx context.Context, userID uint, characterID *uint) (inventory.Snapshot, error)
	ListScans(ctx context.Context, userID uint, limit int) ([]models.Scan, error)
}

// Options selects what RunReport prints.
type Options struct {
	Username    string
	CharacterID *uint
	List        bool // list recent scans
	Craft       bool // append crafting suggestions
	Export      bool // print calculator ids instead of names
}

// RunReport writes the user's current inventory to w and optionally the recent scans
// and crafting suggestions.
func RunReport(ctx context.Context, src Source, w io.Writer, opts Options) error {
	user, err := src.UserByName(opts.Username)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}
	snap, err := src.LatestInventory(ctx, user.ID, opts.CharacterID)
	if err != nil {
		return fmt.Errorf("inventory query failed: %w", err)
	}

	fmt.Fprintf(w, "Inventory for user=%s (%d items):\n", user.Username, len(snap))
	if opts.Export {
		ids := inventory.ExportIDs(snap)
		for _, name := range snap.Items() {
			fmt.Fprintf(w, "  %s=%d\n", inventory.ItemID(name), ids[inventory.ItemID(name)])
		}
	} else if len(snap) == 0 {
		fmt.Fprintf(w, "  %s\n", inventory.Format(snap))
	} else {
		for _, name := range snap.Items() {
			fmt.Fprintf(w, "  %s: %d\n", name, snap[name])
		}
	}

	if opts.Craft {
		sugg := inventory.Suggest(snap, inventory.DefaultRecipes())
		if len(sugg) > 0 {
			fmt.Fprintln(w, "Crafting:")
		}
		for _, s := range sugg {
			fmt.Fprintf(w, "  %s\n", s.Message)
		}
	}

	if opts.List {
		scans, err := src.ListScans(ctx, user.ID, 50)
		if err != nil {
			return fmt.Errorf("fetch scans failed: %w", err)
		}
		fmt.Fprintf(w, "Scans (%d):\n", len(scans))
		for _, sc := range scans {
			fmt.Fprintf(w, "%s|%s|%s|%d|%s\n", sc.PublicID, sc.FileName, sc.Status, len(sc.Items), sc.CreatedAt.Format(time.RFC3339))
		}
	}
	return nil
}
