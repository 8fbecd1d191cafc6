// perch.go Perch model specific code
package perch

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	tflite "github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"

	"github.com/aveslab/perchview/internal/conf"
	"github.com/aveslab/perchview/internal/cpuspec"
	"github.com/aveslab/perchview/internal/errors"
	"github.com/aveslab/perchview/internal/logging"
)

// Model version string reported in logs and MQTT payloads
var modelVersion = "Perch bird-vocalization-classifier v1"

// Perch represents the Perch classifier with its interpreters and configuration.
type Perch struct {
	AnalysisInterpreter *tflite.Interpreter
	RangeInterpreter    *tflite.Interpreter
	Settings            *conf.Settings
	Labels              []string

	mu     sync.Mutex
	logger *slog.Logger

	// Species allowed by the range filter, nil when the filter is inactive
	includedSpecies map[string]bool
}

// New initializes a new Perch instance with the given settings.
func New(settings *conf.Settings) (*Perch, error) {
	p := &Perch{
		Settings: settings,
		logger:   logging.ForService("perch"),
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	if err := p.initializeModel(); err != nil {
		return nil, errors.New(fmt.Errorf("perch: failed to initialize analysis model: %w", err)).
			Component("perch").
			Category(errors.CategoryModelInit).
			Context("model_path", settings.Perch.ModelPath).
			Build()
	}

	if err := p.loadLabels(); err != nil {
		return nil, errors.New(fmt.Errorf("perch: failed to load species labels: %w", err)).
			Component("perch").
			Category(errors.CategoryLabelLoad).
			Context("label_path", settings.Perch.LabelPath).
			Build()
	}

	if err := p.validateModelAndLabels(); err != nil {
		return nil, errors.New(fmt.Errorf("perch: model validation failed: %w", err)).
			Component("perch").
			Category(errors.CategoryModelInit).
			Build()
	}

	if settings.Perch.RangeFilter.Enabled {
		if err := p.initializeRangeFilter(); err != nil {
			// Range filtering is advisory, analysis works without it
			p.logger.Warn("Range filter unavailable, reporting all species",
				"error", err)
		}
	}

	return p, nil
}

// initializeModel loads the primary Perch model and creates its interpreter.
func (p *Perch) initializeModel() error {
	start := time.Now()

	modelData, err := os.ReadFile(p.Settings.Perch.ModelPath)
	if err != nil {
		return errors.New(err).
			Component("perch").
			Category(errors.CategoryModelLoad).
			Context("model_path", p.Settings.Perch.ModelPath).
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return fmt.Errorf("cannot load TensorFlow Lite model from %s", p.Settings.Perch.ModelPath)
	}

	threads := p.determineThreadCount(p.Settings.Perch.Threads)

	options := tflite.NewInterpreterOptions()

	// XNNPACK runs its own thread pool, leave one thread for the interpreter
	delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))})
	if delegate == nil {
		p.logger.Warn("Failed to create XNNPACK delegate, falling back to default CPU")
		options.SetNumThread(threads)
	} else {
		options.AddDelegate(delegate)
		options.SetNumThread(1)
	}

	options.SetErrorReporter(func(msg string, userData any) {
		logging.Error("TFLite error", "message", msg)
	}, nil)

	p.AnalysisInterpreter = tflite.NewInterpreter(model, options)
	if p.AnalysisInterpreter == nil {
		return fmt.Errorf("cannot create interpreter")
	}
	if status := p.AnalysisInterpreter.AllocateTensors(); status != tflite.OK {
		return fmt.Errorf("tensor allocation failed")
	}

	// Model data is no longer needed, TFLite keeps its own copy
	runtime.GC()

	p.logger.Info("Perch model initialized",
		"model", modelVersion,
		"threads", threads,
		"total_cpus", runtime.NumCPU(),
		"load_time_ms", time.Since(start).Milliseconds())

	return nil
}

// determineThreadCount calculates the optimal number of threads for inference.
func (p *Perch) determineThreadCount(configuredThreads int) int {
	systemCpuCount := runtime.NumCPU()

	if configuredThreads <= 0 {
		spec := cpuspec.GetCPUSpec()
		optimal := spec.GetOptimalThreadCount()
		if optimal > 0 {
			return min(optimal, systemCpuCount)
		}
		return systemCpuCount
	}

	if configuredThreads > systemCpuCount {
		return systemCpuCount
	}
	return configuredThreads
}

// validateModelAndLabels checks that the number of labels matches the model
// output size.
func (p *Perch) validateModelAndLabels() error {
	outputTensor := p.AnalysisInterpreter.GetOutputTensor(0)
	if outputTensor == nil {
		return fmt.Errorf("cannot get output tensor")
	}

	modelOutputSize := outputTensor.Dim(outputTensor.NumDims() - 1)
	if len(p.Labels) != modelOutputSize {
		return fmt.Errorf("label count mismatch: model expects %d, loaded %d labels",
			modelOutputSize, len(p.Labels))
	}

	p.logger.Debug("Model validation successful",
		"labels", len(p.Labels),
		"output_size", modelOutputSize)
	return nil
}

// Delete releases the TensorFlow Lite interpreters.
func (p *Perch) Delete() {
	if p.AnalysisInterpreter != nil {
		p.AnalysisInterpreter.Delete()
		p.AnalysisInterpreter = nil
	}
	if p.RangeInterpreter != nil {
		p.RangeInterpreter.Delete()
		p.RangeInterpreter = nil
	}
}
