package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"invscan/models"
	"invscan/pkg/inventory"
)

type fakeSource struct {
	snap  inventory.Snapshot
	scans []models.Scan
}

func (f *fakeSource) UserByName(username string) (*models.User, error) {
	if username != "miner" {
		return nil, errors.New("record not found")
	}
	return &models.User{ID: 9, Username: username}, nil
}

func (f *fakeSource) LatestInventory(ctx context.Context, userID uint, characterID *uint) (inventory.Snapshot, error) {
	return f.snap, nil
}

func (f *fakeSource) ListScans(ctx context.Context, userID uint, limit int) ([]models.Scan, error) {
	return f.scans, nil
}

func TestRunReport(t *testing.T) {
	src := &fakeSource{
		snap: inventory.Snapshot{"Starmetal Ore": 65, "Reagents": 3},
		scans: []models.Scan{{
			PublicID:  "0b8f6a52-4c1e-4e0f-9a55-2f1f0c7a6d11",
			FileName:  "shed.png",
			Status:    models.ScanDone,
			CreatedAt: time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC),
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, RunReport(context.Background(), src, &buf, Options{Username: "miner", List: true, Craft: true}))
	out := buf.String()
	require.Contains(t, out, "Inventory for user=miner (2 items):")
	require.Contains(t, out, "  Reagents: 3\n  Starmetal Ore: 65\n")
	require.Contains(t, out, "Can craft 16 Starmetal Ingot")
	require.Contains(t, out, "shed.png|done|0|2025-08-01T10:00:00Z")
}

func TestRunReportExportAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	src := &fakeSource{snap: inventory.Snapshot{"Starmetal Ore": 65}}
	require.NoError(t, RunReport(context.Background(), src, &buf, Options{Username: "miner", Export: true}))
	require.Contains(t, buf.String(), inventory.ItemID("Starmetal Ore")+"=65")

	buf.Reset()
	require.NoError(t, RunReport(context.Background(), &fakeSource{snap: inventory.Snapshot{}}, &buf, Options{Username: "miner"}))
	require.Contains(t, buf.String(), "no items recognized")

	require.Error(t, RunReport(context.Background(), src, &buf, Options{Username: "ghost"}))
}
