// Package reconcile finds stored blobs that no summary references.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"briefly-backend/internal/shared/metrics"
	"briefly-backend/internal/shared/storage/object"
	"briefly-backend/internal/shared/telemetry"
)

// References reports which blob ids are still in use.
type References interface {
	ReferencedBlobIDs(ctx context.Context) (map[string]struct{}, error)
}

// Report summarizes one reconciliation pass.
type Report struct {
	Scanned int
	Orphans []string
	Deleted int
}

// Job scans the blob store on a cron schedule.
type Job struct {
	Blobs  object.BlobStore
	Refs   References
	Grace  time.Duration
	Delete bool
	Now    func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewJob builds a reconciliation job.
func NewJob(blobs object.BlobStore, refs References, grace time.Duration, deleteOrphans bool) *Job {
	return &Job{Blobs: blobs, Refs: refs, Grace: grace, Delete: deleteOrphans, Now: time.Now}
}

// parser accepts standard five field specs plus descriptors like @hourly.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Start schedules the job. An empty schedule disables it.
func (j *Job) Start(schedule string) error {
	if schedule == "" {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cron != nil {
		return fmt.Errorf("reconcile already started")
	}

	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, j.tick); err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}
	c.Start()
	j.cron = c
	telemetry.Info("reconcile.scheduled", map[string]any{"schedule": schedule, "delete": j.Delete})
	return nil
}

// Stop waits for a running pass to finish.
func (j *Job) Stop() {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func (j *Job) tick() {
	if _, err := j.Run(context.Background()); err != nil {
		telemetry.Error("reconcile.failed", map[string]any{"err": err})
	}
}

// Run performs a single pass. Blobs younger than Grace are skipped so an
// upload in flight is never treated as an orphan.
func (j *Job) Run(ctx context.Context) (Report, error) {
	blobs, err := j.Blobs.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list blobs: %w", err)
	}
	refs, err := j.Refs.ReferencedBlobIDs(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list references: %w", err)
	}

	cutoff := j.now().Add(-j.Grace)
	report := Report{Scanned: len(blobs)}
	for _, b := range blobs {
		if _, ok := refs[b.ID]; ok {
			continue
		}
		if b.CreatedAt.After(cutoff) {
			continue
		}
		report.Orphans = append(report.Orphans, b.ID)
		if !j.Delete {
			continue
		}
		if err := j.Blobs.Delete(ctx, b.ID); err != nil {
			telemetry.Warn("reconcile.delete_failed", map[string]any{"blob_id": b.ID, "err": err})
			continue
		}
		report.Deleted++
	}

	metrics.AddOrphanBlobs("found", len(report.Orphans))
	metrics.AddOrphanBlobs("deleted", report.Deleted)
	telemetry.Info("reconcile.completed", map[string]any{
		"scanned": report.Scanned,
		"orphans": len(report.Orphans),
		"deleted": report.Deleted,
	})
	return report, nil
}

func (j *Job) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}
