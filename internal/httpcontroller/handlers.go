package httpcontroller

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/aveslab/perchview/internal/aggregate"
	"github.com/aveslab/perchview/internal/analysis"
	"github.com/aveslab/perchview/internal/cache"
	"github.com/aveslab/perchview/internal/datastore"
	"github.com/aveslab/perchview/internal/errors"
)

// analyzeRequest is the payload of POST /api/v1/analyze.
type analyzeRequest struct {
	Path      string `json:"path" form:"path"`
	Recursive bool   `json:"recursive" form:"recursive"`
	NoCache   bool   `json:"no_cache" form:"no_cache"`
}

// analyzeResponse summarizes a completed run for the dashboard.
type analyzeResponse struct {
	RunID      string   `json:"run_id"`
	Folder     string   `json:"folder"`
	FromCache  bool     `json:"from_cache"`
	Scanned    int      `json:"scanned"`
	Analyzed   int      `json:"analyzed"`
	Skipped    []string `json:"skipped,omitempty"`
	Detections int      `json:"detections"`
	ElapsedMs  int64    `json:"elapsed_ms"`
}

// handleDashboard renders the dashboard page.
func (s *Server) handleDashboard(c echo.Context) error {
	return c.Render(http.StatusOK, "dashboard.html", map[string]any{
		"Title":       s.Settings.Main.Name,
		"DefaultPath": s.Settings.Input.Path,
	})
}

// handleAnalyze runs (or loads from cache) a folder analysis and stores the
// run for the query endpoints.
func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}

	if req.NoCache && s.Analyzer.Cache != nil {
		if err := s.Analyzer.Cache.Invalidate(req.Path); err != nil {
			s.webLogger.Warn("Failed to invalidate cache", "folder", req.Path, "error", err)
		}
	}

	run, err := s.Analyzer.AnalyzeDirectory(c.Request().Context(), req.Path, req.Recursive)
	if err != nil {
		if errors.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		s.webLogger.Error("Analysis failed", "folder", req.Path, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "analysis failed")
	}

	s.runCache.Set(req.Path, run, 0)

	return c.JSON(http.StatusOK, analyzeResponse{
		RunID:      run.RunID,
		Folder:     run.Folder,
		FromCache:  run.FromCache,
		Scanned:    run.Scanned,
		Analyzed:   run.Analyzed,
		Skipped:    run.Skipped,
		Detections: run.Results.Len(),
		ElapsedMs:  run.Elapsed.Milliseconds(),
	})
}

// loadRun fetches a completed run for the folder given in the path query
// parameter.
func (s *Server) loadRun(c echo.Context) (*analysis.RunResult, error) {
	folder := c.QueryParam("path")
	if folder == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "path query parameter is required")
	}
	cached, found := s.runCache.Get(folder)
	if !found {
		return nil, echo.NewHTTPError(http.StatusNotFound, "no analysis results for this folder, run analyze first")
	}
	return cached.(*analysis.RunResult), nil
}

// handleDetections returns the raw detections of a run, paginated.
func (s *Server) handleDetections(c echo.Context) error {
	run, err := s.loadRun(c)
	if err != nil {
		return err
	}

	detections := run.Results.Detections()

	limit := len(detections)
	if v := c.QueryParam("limit"); v != "" {
		if parsed, perr := strconv.Atoi(v); perr == nil && parsed >= 0 {
			limit = parsed
		}
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		if parsed, perr := strconv.Atoi(v); perr == nil && parsed >= 0 {
			offset = parsed
		}
	}

	if offset > len(detections) {
		offset = len(detections)
	}
	end := offset + limit
	if end > len(detections) {
		end = len(detections)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"run_id":     run.RunID,
		"total":      len(detections),
		"detections": detections[offset:end],
	})
}

// handleSpeciesSummary returns per-species aggregates sorted by count.
func (s *Server) handleSpeciesSummary(c echo.Context) error {
	run, err := s.loadRun(c)
	if err != nil {
		return err
	}

	if v := c.QueryParam("top"); v != "" {
		if top, perr := strconv.Atoi(v); perr == nil && top > 0 {
			return c.JSON(http.StatusOK, aggregate.TopSpecies(run.Results, top))
		}
	}
	return c.JSON(http.StatusOK, aggregate.Summarize(run.Results))
}

// handleTimeline returns per-minute detection buckets.
func (s *Server) handleTimeline(c echo.Context) error {
	run, err := s.loadRun(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, aggregate.Timeline(run.Results))
}

// handleTotals returns run totals for the dashboard header metrics.
func (s *Server) handleTotals(c echo.Context) error {
	run, err := s.loadRun(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, aggregate.Summary(run.Results))
}

// store returns the database sink or a 404 when none is configured.
func (s *Server) store() (datastore.Interface, error) {
	if s.Analyzer.Store == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "database sink is not enabled")
	}
	return s.Analyzer.Store, nil
}

// handleRunHistory returns the persisted detections of one past run.
func (s *Server) handleRunHistory(c echo.Context) error {
	store, err := s.store()
	if err != nil {
		return err
	}

	records, err := store.GetRun(c.Param("id"))
	if err != nil {
		s.webLogger.Error("Run history query failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "database query failed")
	}
	return c.JSON(http.StatusOK, records)
}

// handleLastDetections returns the most recently persisted detections
// across all runs.
func (s *Server) handleLastDetections(c echo.Context) error {
	store, err := s.store()
	if err != nil {
		return err
	}

	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		if parsed, perr := strconv.Atoi(v); perr == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := store.GetLastDetections(limit)
	if err != nil {
		s.webLogger.Error("Detection history query failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "database query failed")
	}
	return c.JSON(http.StatusOK, records)
}

// handleSpeciesHistory returns all-time detection counts per species.
func (s *Server) handleSpeciesHistory(c echo.Context) error {
	store, err := s.store()
	if err != nil {
		return err
	}

	counts, err := store.SpeciesCounts()
	if err != nil {
		s.webLogger.Error("Species history query failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "database query failed")
	}
	return c.JSON(http.StatusOK, counts)
}

// handleExport streams the run's detections as a CSV download.
func (s *Server) handleExport(c echo.Context) error {
	run, err := s.loadRun(c)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="bird_detections.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	return cache.WriteCSV(c.Response(), run.Results)
}
