package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"invscan/config"
	"invscan/container"
	"invscan/models"
	"invscan/pkg/inventory"
	"invscan/pkg/queue"
	"invscan/pkg/store"
)

// global flags (parsed in main)
var verbose bool

// MIME mapping to avoid opening files repeatedly
var extMime = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Main: scans a directory of storage screenshots, records a scan per new file and moves
// each processed file out of the directory; optional watch mode.
func main() {
	dirFlag := flag.String("dir", "screenshots", "directory to scan for storage screenshots")
	username := flag.String("user", "admin", "user the scans belong to")
	characterID := flag.Uint("character-id", 0, "character to assign scans to (default: the user's active character)")
	dryRun := flag.Bool("dry-run", false, "skip all DB queries and writes; scan and print each file")
	watch := flag.Bool("watch", false, "watch directory for new files")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	flag.BoolVar(&verbose, "verbose", false, "verbose per-file logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()

	if *dryRun {
		log.Info().Str("dir", *dirFlag).Msg("dry-run: no DB interaction")
		app, err := container.New(cfg, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build scanner")
		}
		files := listImageFiles(*dirFlag)
		log.Info().Int("files", len(files)).Msg("found candidate files")
		for _, f := range files {
			res, err := app.Scanner.ScanFile(context.Background(), filepath.Join(*dirFlag, f))
			if err != nil {
				log.Error().Err(err).Str("file", f).Msg("scan failed")
				continue
			}
			fmt.Printf("== %s\n%s\n", f, inventory.Format(res.Snapshot))
		}
		return
	}

	if cfg.DatabaseDSN == "" {
		log.Fatal().Msg("DB_DSN must be set in environment to run this tool")
	}
	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	st := store.New(db)
	app, err := container.New(cfg, st)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scanner")
	}

	user, err := st.UserByName(*username)
	if err != nil {
		log.Fatal().Err(err).Str("user", *username).Msg("user not found")
	}
	charID, err := resolveCharacter(st, user.ID, *characterID)
	if err != nil {
		log.Fatal().Err(err).Msg("character not found")
	}
	// preload checksums of existing scans
	ps := newPreloadState()
	if sums, err := st.ScanChecksums(context.Background(), user.ID); err == nil {
		ps.status = sums
	}
	log.Info().Int("scans", len(ps.status)).Msg("preloaded")

	p := &processor{
		dir:         *dirFlag,
		userID:      user.ID,
		characterID: charID,
		scans:       st,
		job:         app.Job,
		seen:        ps,
	}
	files := listImageFiles(*dirFlag)
	n := effectiveWorkers(*workers)
	log.Info().Int("files", len(files)).Int("workers", n).Msg("scanning")
	p.runWorkerPool(files, n)

	if *watch {
		if err := p.watchDirectory(n); err != nil {
			log.Fatal().Err(err).Msg("watch failed")
		}
	}
}

func resolveCharacter(st *store.Store, userID, id uint) (*uint, error) {
	if id != 0 {
		if _, err := st.Character(userID, id); err != nil {
			return nil, err
		}
		return &id, nil
	}
	chars, err := st.ListCharacters(userID)
	if err != nil {
		return nil, err
	}
	for _, ch := range chars {
		if ch.Active {
			cid := ch.ID
			return &cid, nil
		}
	}
	return nil, nil
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Info().Msgf(format, args...)
	}
}

// preloadState caches checksum -> scan status so repeat files skip the DB.
type preloadState struct {
	status map[string]string
	mu     sync.RWMutex
}

func newPreloadState() *preloadState {
	return &preloadState{status: make(map[string]string, 1024)}
}

func (ps *preloadState) get(sum string) (string, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	s, ok := ps.status[sum]
	return s, ok
}

func (ps *preloadState) put(sum, status string) {
	ps.mu.Lock()
	ps.status[sum] = status
	ps.mu.Unlock()
}

// claim marks sum as in progress and reports whether the caller owns it.
func (ps *preloadState) claim(sum string) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if s, ok := ps.status[sum]; ok && s != models.ScanFailed {
		return false
	}
	ps.status[sum] = models.ScanPending
	return true
}

type scanCreator interface {
	CreateScan(ctx context.Context, scan *models.Scan) error
}

type processor struct {
	dir         string
	userID      uint
	characterID *uint
	scans       scanCreator
	job         *queue.Job
	seen        *preloadState
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func (p *processor) watchDirectory(workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(p.dir); err != nil {
		return err
	}
	log.Info().Str("dir", p.dir).Msg("watching (debounced)")

	fileCh := make(chan string, 256)
	go debounce(w.Events, w.Errors, fileCh, 300*time.Millisecond)

	// Use worker pool for watch events too
	go p.runWorkerPool(nil, workers, fileCh)
	// block forever (Ctrl+C to exit)
	select {}
}

// debounce forwards the base names of created image files once no new event for
// them arrived within quiet. out is closed when either input closes.
func debounce(events <-chan fsnotify.Event, errs <-chan error, out chan<- string, quiet time.Duration) {
	defer close(out)
	pending := map[string]time.Time{}
	ticker := time.NewTicker(quiet / 2)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				name := filepath.Base(ev.Name)
				if !isSupportedExt(name) {
					continue
				}
				pending[name] = time.Now()
			}
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > quiet { // stable
					out <- name
					delete(pending, name)
				}
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}

func isSupportedExt(name string) bool {
	// ignore preprocessing temp files to avoid recursive processing
	if strings.Contains(name, ".prep.") {
		return false
	}
	_, ok := extMime[strings.ToLower(filepath.Ext(name))]
	return ok
}

// runWorkerPool processes initial and then everything received on extraCh. Without
// extraCh it returns once initial is done.
func (p *processor) runWorkerPool(initial []string, workers int, extraCh ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				p.processSingleFile(context.Background(), name)
			}
		}()
	}
	go func() {
		for _, f := range initial {
			fileCh <- f
		}
		for _, ch := range extraCh {
			go func(c <-chan string) {
				for n := range c {
					fileCh <- n
				}
			}(ch)
		}
		// if no extraCh (scan only) close when done
		if len(extraCh) == 0 {
			close(fileCh)
		}
	}()
	if len(extraCh) == 0 {
		wg.Wait()
	}
}

// processSingleFile scans one file unless an identical one was already scanned, and
// moves it to the processed directory once it has a completed scan.
func (p *processor) processSingleFile(ctx context.Context, name string) {
	filePath := filepath.Join(p.dir, name)
	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Error().Err(err).Str("file", name).Msg("read failed")
		return
	}
	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	if status, ok := p.seen.get(checksum); ok && status == models.ScanDone {
		logV("SKIP already scanned %s", name)
		p.move(filePath, name)
		return
	}
	if !p.seen.claim(checksum) {
		logV("SKIP in progress %s", name)
		return
	}

	sc := &models.Scan{
		UserID:      p.userID,
		CharacterID: p.characterID,
		FileName:    name,
		StorePath:   filepath.ToSlash(filepath.Join("processed", name)),
		ContentType: extMime[strings.ToLower(filepath.Ext(name))],
		Checksum:    checksum,
	}
	if err := p.scans.CreateScan(ctx, sc); err != nil {
		log.Error().Err(err).Str("file", name).Msg("create scan")
		p.seen.put(checksum, models.ScanFailed)
		return
	}
	res, err := p.job.Run(ctx, sc.ID, filePath)
	if err != nil {
		p.seen.put(checksum, models.ScanFailed)
		return
	}
	p.seen.put(checksum, models.ScanDone)
	log.Info().Uint("scan_id", sc.ID).Str("file", name).Int("items", len(res.Snapshot)).Msg("SCAN done")
	logV("%s\n%s", name, inventory.Format(res.Snapshot))
	p.move(filePath, name)
}

func (p *processor) move(filePath, name string) {
	if err := moveToProcessed(filePath, filepath.Join(p.dir, "..", "processed"), name); err != nil {
		log.Warn().Err(err).Str("file", name).Msg("failed to move processed file")
		return
	}
	logV("moved processed %s", name)
}

// moveToProcessed moves a file into processedDir/<name>, shrinking large images.
// It attempts an atomic rename and falls back to copy+remove when necessary.
func moveToProcessed(srcFullPath, processedDir, name string) error {
	const maxBytes = 1_000_000 // 1 MB budget
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(processedDir, name)

	fi, err := os.Stat(srcFullPath)
	if err != nil {
		return err
	}
	// Fast path: already small enough -> attempt rename/copy
	if fi.Size() <= maxBytes {
		if err := os.Rename(srcFullPath, dst); err == nil {
			return nil
		}
		return copyRemove(srcFullPath, dst)
	}
	img, err := imaging.Open(srcFullPath)
	if err != nil { // fallback to raw move if cannot decode
		if err := os.Rename(srcFullPath, dst); err == nil {
			return nil
		}
		return copyRemove(srcFullPath, dst)
	}
	// size roughly scales with area
	scale := math.Sqrt(float64(maxBytes) / float64(fi.Size()))
	scale = math.Max(0.1, math.Min(scale, 0.95))
	w := img.Bounds().Dx()
	img = imaging.Resize(img, int(math.Max(1, math.Round(float64(w)*scale))), 0, imaging.Lanczos)
	if err := imaging.Save(img, dst); err != nil {
		if err := os.Rename(srcFullPath, dst); err == nil {
			return nil
		}
		return copyRemove(srcFullPath, dst)
	}
	return os.Remove(srcFullPath)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
