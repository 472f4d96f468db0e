// Package queue moves screenshot scans off the request path with asynq.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"invscan/pkg/ocr"
)

// TypeScanScreenshot is the asynq task type for one uploaded screenshot.
const TypeScanScreenshot = "scan:screenshot"

// ScanPayload identifies the scan row and the stored file to read.
type ScanPayload struct {
	ScanID uint   `json:"scan_id"`
	Path   string `json:"path"`
}

// NewScanTask encodes p as an asynq task.
func NewScanTask(p ScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}
	return asynq.NewTask(TypeScanScreenshot, data, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}

// Enqueuer submits scan tasks to Redis.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer connects an asynq client to the Redis server at addr.
func NewEnqueuer(addr string) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(asynq.RedisClientOpt{Addr: addr})}
}

// EnqueueScan queues a scan and returns the task id.
func (e *Enqueuer) EnqueueScan(ctx context.Context, p ScanPayload) (string, error) {
	task, err := NewScanTask(p)
	if err != nil {
		return "", err
	}
	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", errors.Wrap(err, "enqueue scan")
	}
	log.Debug().Str("task", info.ID).Uint("scan_id", p.ScanID).Msg("scan queued")
	return info.ID, nil
}

// Close releases the Redis connection.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// ScanStore is the persistence the job needs.
type ScanStore interface {
	CompleteScan(ctx context.Context, id uint, res *ocr.Result) error
	FailScan(ctx context.Context, id uint, reason string) error
}

// FileScanner reads and scans a stored screenshot.
type FileScanner interface {
	ScanFile(ctx context.Context, path string) (*ocr.Result, error)
}

// Job runs one scan to completion and records the outcome. The HTTP service calls
// it directly when no Redis is configured; Handler calls it for queued tasks.
type Job struct {
	Scanner FileScanner
	Store   ScanStore
	Timeout time.Duration
}

// ScanError is a failure of the scan itself, already recorded on the scan row.
// The same file fails the same way, so it is not retried.
type ScanError struct {
	Err error
}

func (e *ScanError) Error() string { return e.Err.Error() }
func (e *ScanError) Unwrap() error { return e.Err }

// Run scans path and completes or fails scanID. Scan failures come back as
// *ScanError; anything else is a storage error.
func (j *Job) Run(ctx context.Context, scanID uint, path string) (*ocr.Result, error) {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	res, err := j.Scanner.ScanFile(ctx, path)
	if err != nil {
		log.Error().Err(err).Uint("scan_id", scanID).Str("path", path).Msg("scan failed")
		if ferr := j.Store.FailScan(context.WithoutCancel(ctx), scanID, err.Error()); ferr != nil {
			log.Error().Err(ferr).Uint("scan_id", scanID).Msg("mark scan failed")
		}
		return nil, &ScanError{Err: err}
	}
	if err := j.Store.CompleteScan(ctx, scanID, res); err != nil {
		return nil, errors.Wrap(err, "complete scan")
	}
	log.Info().Uint("scan_id", scanID).Int("items", len(res.Snapshot)).Dur("took", time.Since(start)).Msg("scan done")
	return res, nil
}

// Handler processes TypeScanScreenshot tasks.
type Handler struct {
	Job *Job
}

// ProcessTask implements asynq.Handler. Scan failures are recorded and not retried;
// storage errors are returned for asynq to retry.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ScanPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return errors.Wrapf(asynq.SkipRetry, "decode payload: %v", err)
	}
	if p.ScanID == 0 || p.Path == "" {
		return errors.Wrap(asynq.SkipRetry, "payload missing scan_id or path")
	}
	_, err := h.Job.Run(ctx, p.ScanID, p.Path)
	var se *ScanError
	if errors.As(err, &se) {
		return errors.Wrap(asynq.SkipRetry, se.Error())
	}
	return err
}

// NewServer builds the asynq server and mux serving scan tasks.
func NewServer(addr string, concurrency int, h *Handler) (*asynq.Server, *asynq.ServeMux) {
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: addr},
		asynq.Config{
			Concurrency: concurrency,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("type", task.Type()).Bytes("payload", task.Payload()).Msg("task failed")
			}),
		},
	)
	mux := asynq.NewServeMux()
	mux.Handle(TypeScanScreenshot, h)
	return srv, mux
}
