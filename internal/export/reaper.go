package export

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/meetingspace/api/internal/logger"
)

// Reaper periodically deletes stale export files (SPEC_FULL.md §4.8).
// Grounded on original_source/apps/api/management/commands/cleanup_media.py
// (hourly cron job deleting everything under media/exports/), wired through
// robfig/cron the way
// streamspace-dev-streamspace/api/internal/plugins/scheduler.go drives its
// own cron.Cron instance, rather than the unconditional delete-everything the
// original script performs — retention lets in-flight renders survive.
type Reaper struct {
	exportRoot string
	retention  time.Duration
	cron       *cron.Cron
}

// NewReaper constructs a Reaper over exportRoot; files older than retention
// are removed on each run.
func NewReaper(exportRoot string, retention time.Duration) *Reaper {
	return &Reaper{exportRoot: exportRoot, retention: retention, cron: cron.New()}
}

// Start schedules the hourly cleanup job and returns immediately; the cron
// scheduler runs its own goroutine.
func (r *Reaper) Start() error {
	_, err := r.cron.AddFunc("@hourly", r.sweep)
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any in-flight sweep to finish.
func (r *Reaper) Stop() {
	<-r.cron.Stop().Done()
}

// sweep deletes every file in the export directory older than retention. A
// file that disappears between the directory read and the remove call (a
// concurrent render finishing, or a prior sweep) is not an error.
func (r *Reaper) sweep() {
	log := logger.Export().With().Str("component", "reaper").Logger()

	entries, err := os.ReadDir(r.exportRoot)
	if err != nil {
		log.Warn().Err(err).Str("export_root", r.exportRoot).Msg("failed to list export directory")
		return
	}

	cutoff := time.Now().Add(-r.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(r.exportRoot, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("failed to remove stale export file")
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("export reaper swept stale files")
	}
}
