package analysis

import (
	"fmt"
	"os"
	"time"

	"github.com/aveslab/perchview/internal/conf"
	"github.com/aveslab/perchview/internal/detection"
	"github.com/aveslab/perchview/internal/errors"
	"github.com/aveslab/perchview/internal/myaudio"
)

// AnalyzeFile runs one audio file through the classifier and returns its
// detections in chunk order.
func (a *Analyzer) AnalyzeFile(filePath string) (*detection.ResultSet, error) {
	audioInfo, err := validateAudioFile(filePath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rs := detection.NewResultSet()

	totalChunks := myaudio.GetTotalChunks(audioInfo.SampleRate, audioInfo.TotalSamples, a.Settings.Perch.Overlap)

	step := float64(conf.ChunkLength) - a.Settings.Perch.Overlap
	offset := 0.0
	chunkIndex := 0

	err = myaudio.ReadAudioFileBuffered(a.Settings, filePath, func(chunk []float32) error {
		chunkIndex++
		results, err := a.Classifier.Predict(chunk)
		if err != nil {
			return fmt.Errorf("prediction failed: %w", err)
		}
		a.Metrics.ChunksProcessed.Inc()
		a.logger.Debug("Chunk analyzed",
			"file", filePath,
			"chunk", chunkIndex,
			"total_chunks", totalChunks,
			"detections", len(results))

		for _, r := range results {
			rs.Append(detection.Detection{
				FilePath:   filePath,
				Species:    r.Species,
				Confidence: float64(r.Confidence),
				StartTime:  offset,
				EndTime:    offset + float64(conf.ChunkLength),
			})
		}

		offset += step
		return nil
	})
	if err != nil {
		a.Metrics.AnalyzerFailures.Inc()
		return nil, errors.New(err).
			Component("analysis").
			Category(errors.CategoryAudioAnalysis).
			FileContext(filePath, 0).
			Build()
	}

	elapsed := time.Since(start)
	a.Metrics.FilesAnalyzed.Inc()
	a.Metrics.AnalyzeDuration.Observe(elapsed.Seconds())
	a.Metrics.DetectionsTotal.Add(float64(rs.Len()))

	a.logger.Info("File analyzed",
		"file", filePath,
		"duration_s", audioInfo.Duration(),
		"chunks", chunkIndex,
		"detections", rs.Len(),
		"elapsed_ms", elapsed.Milliseconds())

	return rs, nil
}

// validateAudioFile checks if the provided file path is a valid audio file
// and returns its format properties.
func validateAudioFile(filePath string) (myaudio.AudioInfo, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return myaudio.AudioInfo{}, errors.New(fmt.Errorf("error accessing file %s: %w", filePath, err)).
			Component("analysis").
			Category(errors.CategoryNotFound).
			FileContext(filePath, 0).
			Build()
	}

	if fileInfo.IsDir() {
		return myaudio.AudioInfo{}, errors.Newf("the path %s is a directory, not a file", filePath).
			Component("analysis").
			Category(errors.CategoryValidation).
			Build()
	}

	if fileInfo.Size() == 0 {
		return myaudio.AudioInfo{}, errors.Newf("file %s is empty (0 bytes)", filePath).
			Component("analysis").
			Category(errors.CategoryAudio).
			FileContext(filePath, fileInfo.Size()).
			Build()
	}

	audioInfo, err := myaudio.GetAudioInfo(filePath)
	if err != nil {
		return myaudio.AudioInfo{}, errors.New(fmt.Errorf("invalid audio file %s: %w", filePath, err)).
			Component("analysis").
			Category(errors.CategoryAudio).
			FileContext(filePath, fileInfo.Size()).
			Build()
	}

	if audioInfo.TotalSamples == 0 {
		return myaudio.AudioInfo{}, errors.Newf("file %s contains no samples or is still being written", filePath).
			Component("analysis").
			Category(errors.CategoryAudio).
			FileContext(filePath, fileInfo.Size()).
			Build()
	}

	return audioInfo, nil
}
