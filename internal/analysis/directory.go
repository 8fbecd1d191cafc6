package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aveslab/perchview/internal/cache"
	"github.com/aveslab/perchview/internal/detection"
	"github.com/aveslab/perchview/internal/errors"
	"github.com/aveslab/perchview/internal/scanner"
)

// RunResult carries the outcome of a directory analysis.
type RunResult struct {
	RunID     string
	Folder    string
	Results   *detection.ResultSet
	FromCache bool
	Scanned   int      // audio files found
	Analyzed  int      // files successfully analyzed
	Skipped   []string // files skipped due to per-file errors
	Elapsed   time.Duration
}

// AnalyzeDirectory scans a folder and produces the ResultSet for all its
// audio files. With caching enabled an unchanged folder is served from the
// cache CSV without touching the classifier; a corrupt or stale entry falls
// back to a full recompute which then rewrites the cache.
//
// The recursive flag is a per-call argument, not read from the settings,
// so concurrent runs with different scan options do not interfere.
//
// Per-file analyzer failures are logged and skipped, only an invalid folder
// path aborts the run.
func (a *Analyzer) AnalyzeDirectory(ctx context.Context, folder string, recursive bool) (*RunResult, error) {
	start := time.Now()

	files, err := scanner.Scan(folder, recursive)
	if err != nil {
		return nil, err
	}

	fingerprint, err := cache.Fingerprint(files)
	if err != nil {
		return nil, errors.New(err).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("folder", folder).
			Build()
	}

	run := &RunResult{
		RunID:   uuid.New().String(),
		Folder:  folder,
		Scanned: len(files),
	}

	if a.cacheUsable() {
		if rs, ok := a.loadFromCache(folder, fingerprint); ok {
			// Analyzed stays 0, nothing went through the classifier
			run.Results = rs
			run.FromCache = true
			run.Elapsed = time.Since(start)
			return run, nil
		}
	}

	rs := detection.NewResultSet()
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileResults, err := a.AnalyzeFile(file)
		if err != nil {
			// Best effort: a corrupt recording must not sink the whole folder
			a.logger.Warn("Skipping file after analyzer failure",
				"file", file,
				"error", err)
			a.Metrics.FilesSkipped.Inc()
			run.Skipped = append(run.Skipped, file)
			continue
		}
		rs.Merge(fileResults)
		run.Analyzed++
	}

	run.Results = rs
	run.Elapsed = time.Since(start)

	if a.cacheUsable() {
		meta := &cache.Metadata{Fingerprint: fingerprint, RunID: run.RunID}
		if err := a.Cache.Save(folder, rs, meta); err != nil {
			// Results are still valid without a cache entry
			a.logger.Warn("Failed to save result cache", "folder", folder, "error", err)
		}
	}

	a.persistRun(ctx, run)

	a.logger.Info("Directory analyzed",
		"folder", folder,
		"run_id", run.RunID,
		"files", run.Scanned,
		"analyzed", run.Analyzed,
		"skipped", len(run.Skipped),
		"detections", rs.Len(),
		"elapsed_ms", run.Elapsed.Milliseconds())

	return run, nil
}

func (a *Analyzer) cacheUsable() bool {
	return a.Cache != nil && a.Settings.Cache.Enabled
}

// loadFromCache returns the cached ResultSet when the entry exists and its
// fingerprint matches the current folder state.
func (a *Analyzer) loadFromCache(folder, fingerprint string) (*detection.ResultSet, bool) {
	rs, meta, err := a.Cache.Load(folder)
	switch {
	case err == nil:
		if meta.Fingerprint == fingerprint {
			a.Metrics.CacheHits.Inc()
			a.logger.Info("Serving results from cache", "folder", folder, "detections", rs.Len())
			return rs, true
		}
		a.Metrics.CacheStale.Inc()
		a.logger.Info("Cache entry stale, folder changed", "folder", folder)
	case errors.Is(err, cache.ErrCacheMiss):
		a.Metrics.CacheMisses.Inc()
	case errors.IsCacheCorrupt(err):
		a.Metrics.CacheMisses.Inc()
		a.logger.Warn("Cache entry corrupt, recomputing", "folder", folder, "error", err)
	default:
		a.Metrics.CacheMisses.Inc()
		a.logger.Warn("Cache read failed, recomputing", "folder", folder, "error", err)
	}
	return nil, false
}

// persistRun mirrors a computed run into the optional database and MQTT sinks.
func (a *Analyzer) persistRun(ctx context.Context, run *RunResult) {
	if a.Store != nil {
		if err := a.Store.SaveRun(run.RunID, run.Folder, run.Results); err != nil {
			a.logger.Warn("Failed to save run to database", "run_id", run.RunID, "error", err)
		}
	}

	if a.Publisher != nil {
		detections := run.Results.Detections()
		for i := range detections {
			if err := a.Publisher.PublishDetection(ctx, run.RunID, &detections[i]); err != nil {
				a.logger.Warn("Failed to publish detection", "error", err)
				break
			}
		}
		if err := a.Publisher.PublishRunComplete(ctx, run.RunID, run.Folder, run.Results.Len()); err != nil {
			a.logger.Warn("Failed to publish run summary", "error", err)
		}
	}
}
