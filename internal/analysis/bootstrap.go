package analysis

import (
	"context"
	"fmt"

	"github.com/aveslab/perchview/internal/cache"
	"github.com/aveslab/perchview/internal/conf"
	"github.com/aveslab/perchview/internal/datastore"
	"github.com/aveslab/perchview/internal/logging"
	"github.com/aveslab/perchview/internal/mqtt"
	"github.com/aveslab/perchview/internal/observability"
	"github.com/aveslab/perchview/internal/perch"
)

// Bootstrap wires a ready-to-use Analyzer from the settings: the Perch
// classifier plus whichever of the cache, SQLite and MQTT sinks are enabled.
// The returned cleanup function releases the model and closes the sinks.
func Bootstrap(settings *conf.Settings) (*Analyzer, func(), error) {
	classifier, err := perch.New(settings)
	if err != nil {
		return nil, nil, err
	}

	var resultCache *cache.Cache
	if settings.Cache.Enabled {
		resultCache, err = cache.New(settings.Cache.Path)
		if err != nil {
			classifier.Delete()
			return nil, nil, fmt.Errorf("failed to initialize result cache: %w", err)
		}
	}

	metrics := observability.NewMetrics()

	store := datastore.New(settings)
	if store != nil {
		if err := store.Open(); err != nil {
			classifier.Delete()
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
	}

	var publisher mqtt.Client
	if settings.MQTT.Enabled {
		publisher = mqtt.NewClient(settings, metrics)
		if err := publisher.Connect(context.Background()); err != nil {
			// Analysis still works without the broker
			logging.Warn("MQTT broker unavailable, publishing disabled", "error", err)
			publisher = nil
		}
	}

	analyzer := New(settings, classifier, resultCache, store, publisher, metrics)

	cleanup := func() {
		classifier.Delete()
		if store != nil {
			_ = store.Close()
		}
		if publisher != nil {
			publisher.Disconnect()
		}
	}

	return analyzer, cleanup, nil
}
