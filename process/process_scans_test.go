package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"invscan/models"
	"invscan/pkg/inventory"
	"invscan/pkg/ocr"
	"invscan/pkg/queue"
)

type memScans struct {
	mu     sync.Mutex
	next   uint
	scans  []*models.Scan
	done   map[uint]*ocr.Result
	failed map[uint]string
}

func newMemScans() *memScans {
	return &memScans{done: map[uint]*ocr.Result{}, failed: map[uint]string{}}
}

func (m *memScans) CreateScan(ctx context.Context, sc *models.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	sc.ID = m.next
	sc.Status = models.ScanPending
	m.scans = append(m.scans, sc)
	return nil
}

func (m *memScans) CompleteScan(ctx context.Context, id uint, res *ocr.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done[id] = res
	return nil
}

func (m *memScans) FailScan(ctx context.Context, id uint, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[id] = reason
	return nil
}

type fileScan func(ctx context.Context, path string) (*ocr.Result, error)

func (f fileScan) ScanFile(ctx context.Context, path string) (*ocr.Result, error) { return f(ctx, path) }

func newProcessor(t *testing.T, scan fileScan) (*processor, *memScans, string) {
	root := t.TempDir()
	dir := filepath.Join(root, "screenshots")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	mem := newMemScans()
	p := &processor{
		dir:    dir,
		userID: 1,
		scans:  mem,
		job:    &queue.Job{Scanner: scan, Store: mem},
		seen:   newPreloadState(),
	}
	return p, mem, root
}

func TestIsSupportedExt(t *testing.T) {
	require.True(t, isSupportedExt("shed.PNG"))
	require.True(t, isSupportedExt("shed.jpeg"))
	require.False(t, isSupportedExt("notes.txt"))
	require.False(t, isSupportedExt("shed.prep.png"))
}

func TestListImageFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.png", "a.jpg", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.png"), 0o755))
	require.Equal(t, []string{"a.jpg", "b.png"}, listImageFiles(dir))
	require.Nil(t, listImageFiles(filepath.Join(dir, "missing")))
}

func TestProcessSingleFileScansAndMoves(t *testing.T) {
	p, mem, root := newProcessor(t, func(ctx context.Context, path string) (*ocr.Result, error) {
		return &ocr.Result{Snapshot: inventory.Snapshot{"Timber": 14}}, nil
	})
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, "shed.png"), []byte("pixels"), 0o644))

	p.processSingleFile(context.Background(), "shed.png")

	require.Len(t, mem.scans, 1)
	require.Equal(t, "image/png", mem.scans[0].ContentType)
	require.Equal(t, 14, mem.done[1].Snapshot["Timber"])
	require.NoFileExists(t, filepath.Join(p.dir, "shed.png"))
	require.FileExists(t, filepath.Join(root, "processed", "shed.png"))
}

func TestProcessSingleFileSkipsDuplicate(t *testing.T) {
	calls := 0
	p, mem, root := newProcessor(t, func(ctx context.Context, path string) (*ocr.Result, error) {
		calls++
		return &ocr.Result{Snapshot: inventory.Snapshot{}}, nil
	})
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, "a.png"), []byte("same"), 0o644))
	p.processSingleFile(context.Background(), "a.png")
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, "b.png"), []byte("same"), 0o644))
	p.processSingleFile(context.Background(), "b.png")

	require.Equal(t, 1, calls)
	require.Len(t, mem.scans, 1)
	require.FileExists(t, filepath.Join(root, "processed", "b.png"))
}

func TestProcessSingleFileFailureKeepsFile(t *testing.T) {
	p, mem, _ := newProcessor(t, func(ctx context.Context, path string) (*ocr.Result, error) {
		return nil, errors.New("recognize: no engine")
	})
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, "x.png"), []byte("x"), 0o644))

	p.processSingleFile(context.Background(), "x.png")

	require.Equal(t, "recognize: no engine", mem.failed[1])
	require.FileExists(t, filepath.Join(p.dir, "x.png"))
	status, _ := p.seen.get(mem.scans[0].Checksum)
	require.Equal(t, models.ScanFailed, status)
}

func TestRunWorkerPoolProcessesAll(t *testing.T) {
	p, mem, _ := newProcessor(t, func(ctx context.Context, path string) (*ocr.Result, error) {
		return &ocr.Result{Snapshot: inventory.Snapshot{"Silk": 3}}, nil
	})
	var names []string
	for i, n := range []string{"1.png", "2.png", "3.png", "4.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(p.dir, n), []byte{byte(i)}, 0o644))
		names = append(names, n)
	}
	p.runWorkerPool(names, 3)
	require.Len(t, mem.done, 4)
	require.Empty(t, listImageFiles(p.dir))
}

func TestDebounceEmitsStableFiles(t *testing.T) {
	events := make(chan fsnotify.Event, 4)
	errs := make(chan error)
	out := make(chan string, 4)
	go debounce(events, errs, out, 20*time.Millisecond)

	events <- fsnotify.Event{Name: "/tmp/x/shed.png", Op: fsnotify.Create}
	events <- fsnotify.Event{Name: "/tmp/x/shed.png", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "/tmp/x/notes.txt", Op: fsnotify.Create}

	select {
	case name := <-out:
		require.Equal(t, "shed.png", name)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced file not emitted")
	}
	close(events)
	_, ok := <-out
	require.False(t, ok)
}

func TestMoveToProcessedSmallFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))
	dst := filepath.Join(dir, "out")
	require.NoError(t, moveToProcessed(src, dst, "a.png"))
	got, err := os.ReadFile(filepath.Join(dst, "a.png"))
	require.NoError(t, err)
	require.Equal(t, "data", string(got))
	require.NoFileExists(t, src)
}
