package rescan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"invscan/models"
	"invscan/pkg/inventory"
	"invscan/pkg/ocr"
)

type fakeLister struct {
	scans  []models.Scan
	status string
}

func (f *fakeLister) ScansByStatus(ctx context.Context, userID uint, status string, limit int) ([]models.Scan, error) {
	f.status = status
	return f.scans, nil
}

type fakeRunner map[uint]error

func (f fakeRunner) Run(ctx context.Context, scanID uint, path string) (*ocr.Result, error) {
	if err := f[scanID]; err != nil {
		return nil, err
	}
	return &ocr.Result{Snapshot: inventory.Snapshot{"Silk": 1}}, nil
}

func TestRunCountsOutcomes(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "1"), 0o755))
	for _, n := range []string{"1/a.png", "1/b.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(base, n), []byte("x"), 0o644))
	}
	lister := &fakeLister{scans: []models.Scan{
		{ID: 1, StorePath: "1/a.png"},
		{ID: 2, StorePath: "1/b.png"},
		{ID: 3, StorePath: "1/gone.png"},
	}}
	runner := fakeRunner{2: errors.New("recognize failed")}

	sum, err := Run(context.Background(), lister, runner, Options{BaseDir: base})
	require.NoError(t, err)
	require.Equal(t, models.ScanFailed, lister.status)
	require.Equal(t, Summary{Total: 3, Done: 1, Failed: 1, Missing: 1}, sum)
}

func TestRunDryDoesNotScan(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "a.png"), []byte("x"), 0o644))
	lister := &fakeLister{scans: []models.Scan{{ID: 1, StorePath: "a.png"}}}
	runner := fakeRunner{1: errors.New("must not run")}

	sum, err := Run(context.Background(), lister, runner, Options{BaseDir: base, Dry: true, Status: models.ScanDone})
	require.NoError(t, err)
	require.Equal(t, models.ScanDone, lister.status)
	require.Equal(t, Summary{Total: 1}, sum)
}
