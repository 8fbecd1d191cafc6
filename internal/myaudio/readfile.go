// Package myaudio decodes WAV and FLAC recordings into normalized float32
// chunks sized for the Perch model: 5 seconds of 32 kHz mono audio per chunk,
// resampled when the source rate differs.
package myaudio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aveslab/perchview/internal/conf"
	"github.com/aveslab/perchview/internal/errors"
)

// AudioInfo holds the format properties of an audio file.
type AudioInfo struct {
	SampleRate   int
	TotalSamples int
	NumChannels  int
	BitDepth     int
}

// Duration returns the playing time of the file in seconds.
func (a *AudioInfo) Duration() float64 {
	if a.SampleRate == 0 {
		return 0
	}
	return float64(a.TotalSamples) / float64(a.SampleRate)
}

// AudioChunkCallback receives one model-sized chunk of normalized samples.
// Returning an error aborts the read.
type AudioChunkCallback func(chunk []float32) error

// GetAudioInfo reads the format header of a WAV or FLAC file.
func GetAudioInfo(filePath string) (AudioInfo, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return AudioInfo{}, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			FileContext(filePath, 0).
			Build()
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".wav":
		return readWAVInfo(file)
	case ".flac":
		return readFLACInfo(file)
	default:
		return AudioInfo{}, errors.Newf("unsupported audio format: %s", filepath.Ext(filePath)).
			Component("myaudio").
			Category(errors.CategoryAudio).
			FileContext(filePath, 0).
			Build()
	}
}

// ReadAudioFileBuffered streams the file through callback one model chunk at
// a time, avoiding loading long recordings fully into memory.
func ReadAudioFileBuffered(settings *conf.Settings, filePath string, callback AudioChunkCallback) error {
	file, err := os.Open(filePath)
	if err != nil {
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			FileContext(filePath, 0).
			Build()
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".wav":
		err = readWAVBuffered(file, settings, callback)
	case ".flac":
		err = readFLACBuffered(file, settings, callback)
	default:
		err = fmt.Errorf("unsupported audio format: %s", filepath.Ext(filePath))
	}
	if err != nil {
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudio).
			FileContext(filePath, 0).
			Build()
	}
	return nil
}

// GetTotalChunks returns how many model chunks a file will produce given its
// sample count and the configured chunk overlap.
func GetTotalChunks(sampleRate, totalSamples int, overlap float64) int {
	chunkSamples := conf.ChunkLength * sampleRate
	stepSamples := int((conf.ChunkLength - overlap) * float64(sampleRate))
	if stepSamples <= 0 || totalSamples <= 0 {
		return 0
	}
	if totalSamples <= chunkSamples {
		return 1
	}
	// Final partial chunk shorter than half a chunk is dropped by the reader
	chunks := (totalSamples-chunkSamples)/stepSamples + 1
	remainder := (totalSamples - chunkSamples) % stepSamples
	if remainder >= chunkSamples/2 {
		chunks++
	}
	return chunks
}

// getAudioDivisor returns the divisor for normalizing integer samples to the
// [-1, 1] float range.
func getAudioDivisor(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported audio file bit depth: %d", bitDepth)
	}
}

// ResampleAudio converts samples from sourceRate to targetRate with linear
// interpolation. Good enough for classification input, not for playback.
func ResampleAudio(samples []float32, sourceRate, targetRate int) ([]float32, error) {
	if sourceRate <= 0 || targetRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: source %d, target %d", sourceRate, targetRate)
	}
	if sourceRate == targetRate {
		return samples, nil
	}
	if len(samples) == 0 {
		return samples, nil
	}

	ratio := float64(sourceRate) / float64(targetRate)
	outLen := int(float64(len(samples)) / ratio)
	if outLen == 0 {
		outLen = 1
	}
	resampled := make([]float32, outLen)

	for i := range resampled {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			resampled[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		resampled[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}

	return resampled, nil
}
