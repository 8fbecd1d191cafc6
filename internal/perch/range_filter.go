// range_filter.go location based filtering of expected species
package perch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tflite "github.com/tphakala/go-tflite"
)

// Range filter model file name, looked up next to the main model.
const rangeModelFileName = "perch_range.tflite"

// initializeRangeFilter loads the range filter meta model and builds the
// included species set for the configured location. The meta model takes
// latitude, longitude and week of year and scores each label with its
// occurrence probability at that place and time.
func (p *Perch) initializeRangeFilter() error {
	if p.Settings.Perch.Latitude == 0 && p.Settings.Perch.Longitude == 0 {
		return fmt.Errorf("latitude and longitude not set")
	}

	modelPath := filepath.Join(filepath.Dir(p.Settings.Perch.ModelPath), rangeModelFileName)
	modelData, err := os.ReadFile(modelPath)
	if err != nil {
		return fmt.Errorf("failed to read range filter model %s: %w", modelPath, err)
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return fmt.Errorf("cannot load range filter model from %s", modelPath)
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(1)

	p.RangeInterpreter = tflite.NewInterpreter(model, options)
	if p.RangeInterpreter == nil {
		return fmt.Errorf("cannot create range filter interpreter")
	}
	if status := p.RangeInterpreter.AllocateTensors(); status != tflite.OK {
		return fmt.Errorf("range filter tensor allocation failed")
	}

	return p.buildIncludedSpecies(time.Now())
}

// buildIncludedSpecies runs the meta model and records which labels meet the
// occurrence threshold.
func (p *Perch) buildIncludedSpecies(date time.Time) error {
	scores, err := p.predictOccurrence(date)
	if err != nil {
		return err
	}

	threshold := float32(p.Settings.Perch.RangeFilter.Threshold)
	included := make(map[string]bool)
	for i, score := range scores {
		if i >= len(p.Labels) {
			break
		}
		if score >= threshold {
			included[p.Labels[i]] = true
		}
	}

	p.includedSpecies = included
	p.logger.Info("Range filter built",
		"included_species", len(included),
		"total_species", len(p.Labels),
		"latitude", p.Settings.Perch.Latitude,
		"longitude", p.Settings.Perch.Longitude)
	return nil
}

// predictOccurrence invokes the meta model for the configured location and
// the week of the given date.
func (p *Perch) predictOccurrence(date time.Time) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	input := p.RangeInterpreter.GetInputTensor(0)
	if input == nil {
		return nil, fmt.Errorf("cannot get range filter input tensor")
	}

	week := weekForFilter(date)
	copy(input.Float32s(), []float32{
		float32(p.Settings.Perch.Latitude),
		float32(p.Settings.Perch.Longitude),
		week,
	})

	if status := p.RangeInterpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("range filter invoke failed: %v", status)
	}

	output := p.RangeInterpreter.GetOutputTensor(0)
	return extractPredictions(output), nil
}

// isIncluded reports whether a species passes the range filter. All species
// pass when the filter is inactive.
func (p *Perch) isIncluded(label string) bool {
	if p.includedSpecies == nil {
		return true
	}
	return p.includedSpecies[label]
}

// weekForFilter maps a date to the 48-week year used by the occurrence
// model: four weeks per month, week of month from the day.
func weekForFilter(date time.Time) float32 {
	month := int(date.Month())
	weekOfMonth := (date.Day()-1)/8 + 1
	if weekOfMonth > 4 {
		weekOfMonth = 4
	}
	return float32((month-1)*4 + weekOfMonth)
}
