package perch

import (
	"fmt"
	"math"
	"sort"

	tflite "github.com/tphakala/go-tflite"
)

// Result pairs a species label with its confidence for one audio chunk.
type Result struct {
	Species    string
	Confidence float32
}

// Predict performs inference on a single model chunk and returns species
// whose sigmoid confidence reaches the configured minimum, sorted by
// confidence in descending order. Species rejected by the range filter are
// dropped.
func (p *Perch) Predict(sample []float32) ([]Result, error) {
	// The interpreter is not safe for concurrent invocation
	p.mu.Lock()
	defer p.mu.Unlock()

	inputTensor := p.AnalysisInterpreter.GetInputTensor(0)
	if inputTensor == nil {
		return nil, fmt.Errorf("cannot get input tensor")
	}

	copy(inputTensor.Float32s(), sample)

	if status := p.AnalysisInterpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("tensor invoke failed: %v", status)
	}

	outputTensor := p.AnalysisInterpreter.GetOutputTensor(0)
	logits := extractPredictions(outputTensor)

	if len(logits) != len(p.Labels) {
		return nil, fmt.Errorf("mismatched labels and predictions lengths: %d vs %d",
			len(p.Labels), len(logits))
	}

	minConfidence := float32(p.Settings.Perch.MinConfidence)

	var results []Result
	for i, logit := range logits {
		confidence := sigmoid(logit)
		if confidence < minConfidence {
			continue
		}
		label := p.Labels[i]
		if !p.isIncluded(label) {
			continue
		}
		results = append(results, Result{Species: label, Confidence: confidence})
	}

	sortResults(results)
	return results, nil
}

// sigmoid converts a model logit to a confidence in (0, 1).
func sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(x))))
}

// sortResults sorts a slice of Result by confidence in descending order.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
}

// extractPredictions copies prediction values out of a TensorFlow Lite tensor.
func extractPredictions(tensor *tflite.Tensor) []float32 {
	predSize := tensor.Dim(tensor.NumDims() - 1)
	predictions := make([]float32, predSize)
	copy(predictions, tensor.Float32s())
	return predictions
}
