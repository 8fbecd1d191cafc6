// Package analysis orchestrates the pipeline: scan a folder, run each
// recording through the classifier, merge detections into a ResultSet and
// keep the CSV cache, database and MQTT sinks up to date.
package analysis

import (
	"log/slog"

	"github.com/aveslab/perchview/internal/cache"
	"github.com/aveslab/perchview/internal/conf"
	"github.com/aveslab/perchview/internal/datastore"
	"github.com/aveslab/perchview/internal/logging"
	"github.com/aveslab/perchview/internal/mqtt"
	"github.com/aveslab/perchview/internal/observability"
	"github.com/aveslab/perchview/internal/perch"
)

// Classifier produces per-chunk classification results. Satisfied by
// *perch.Perch, replaced by a fake in tests.
type Classifier interface {
	Predict(sample []float32) ([]perch.Result, error)
}

// Analyzer ties the classifier to the cache and result sinks.
type Analyzer struct {
	Settings   *conf.Settings
	Classifier Classifier
	Cache      *cache.Cache
	Store      datastore.Interface
	Publisher  mqtt.Client
	Metrics    *observability.Metrics

	logger *slog.Logger
}

// New creates an Analyzer. Cache, Store and Publisher may be nil, the
// corresponding sink is then skipped.
func New(settings *conf.Settings, classifier Classifier, resultCache *cache.Cache,
	store datastore.Interface, publisher mqtt.Client, metrics *observability.Metrics) *Analyzer {

	logger := logging.ForService("analysis")
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	return &Analyzer{
		Settings:   settings,
		Classifier: classifier,
		Cache:      resultCache,
		Store:      store,
		Publisher:  publisher,
		Metrics:    metrics,
		logger:     logger,
	}
}
