// Package httpcontroller serves the web dashboard: a folder picker, summary
// tables and activity charts over the analysis results, plus a JSON API and
// the Prometheus metrics endpoint.
package httpcontroller

import (
	"embed"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aveslab/perchview/internal/analysis"
	"github.com/aveslab/perchview/internal/conf"
	"github.com/aveslab/perchview/internal/logging"
	"github.com/aveslab/perchview/internal/observability"
)

//go:embed views
var viewsFS embed.FS

// resultTTL bounds how long a computed run is kept for dashboard queries.
const resultTTL = time.Hour

// Server encapsulates the Echo server and its dependencies.
type Server struct {
	Echo     *echo.Echo
	Settings *conf.Settings
	Analyzer *analysis.Analyzer
	Metrics  *observability.Metrics

	// Completed runs keyed by folder path, backing the dashboard queries
	runCache *gocache.Cache

	webLogger *slog.Logger
}

// templateRenderer implements echo.Renderer over html/template.
type templateRenderer struct {
	templates *template.Template
}

func (t *templateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

// New initializes the HTTP server with the given analyzer.
func New(settings *conf.Settings, analyzer *analysis.Analyzer, metrics *observability.Metrics) *Server {
	logger := logging.ForService("web")
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		Echo:      echo.New(),
		Settings:  settings,
		Analyzer:  analyzer,
		Metrics:   metrics,
		runCache:  gocache.New(resultTTL, 10*time.Minute),
		webLogger: logger,
	}

	s.Echo.HideBanner = true
	s.Echo.Renderer = &templateRenderer{
		templates: template.Must(template.ParseFS(viewsFS, "views/*.html")),
	}

	s.Echo.Use(middleware.Recover())
	s.Echo.Use(s.metricsMiddleware())
	if settings.WebServer.Debug {
		s.Echo.Use(middleware.Logger())
	}

	s.initRoutes()
	return s
}

// initRoutes registers the dashboard page, the JSON API and /metrics.
func (s *Server) initRoutes() {
	s.Echo.GET("/", s.handleDashboard)

	api := s.Echo.Group("/api/v1")
	api.POST("/analyze", s.handleAnalyze)
	api.GET("/detections", s.handleDetections)
	api.GET("/species/summary", s.handleSpeciesSummary)
	api.GET("/timeline", s.handleTimeline)
	api.GET("/totals", s.handleTotals)
	api.GET("/export", s.handleExport)

	// Past runs from the optional database sink
	api.GET("/history/runs/:id", s.handleRunHistory)
	api.GET("/history/detections", s.handleLastDetections)
	api.GET("/history/species", s.handleSpeciesHistory)

	s.Echo.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(s.Metrics.Registry(), promhttp.HandlerOpts{})))
}

// metricsMiddleware records request counts and durations.
func (s *Server) metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			s.Metrics.HTTPRequests.WithLabelValues(
				c.Request().Method, path, strconv.Itoa(status)).Inc()
			s.Metrics.HTTPRequestDuration.WithLabelValues(path).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Start runs the server until the context is canceled or Listen fails.
func (s *Server) Start() error {
	addr := ":" + s.Settings.WebServer.Port
	s.webLogger.Info("Starting dashboard server", "addr", addr)

	err := s.Echo.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.Echo.Close()
}
