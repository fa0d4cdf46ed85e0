package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Classifier maps a feature vector to a class label. Implementations
// must be stateless and safe for concurrent use.
type Classifier interface {
	Predict(features []float64) (string, error)
}

// unloadedClassifier stands in when model loading failed at startup.
// Every Predict call fails with ErrModelNotLoaded; there is no lazy
// reload.
type unloadedClassifier struct{}

func (unloadedClassifier) Predict([]float64) (string, error) {
	return "", ErrModelNotLoaded
}

type modelLayer struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

type modelFile struct {
	Labels []string     `json:"labels"`
	Layers []modelLayer `json:"layers"`
}

// NeuralClassifier is a small feedforward network (dense layers with
// ReLU between them) whose weights are read once from a JSON file at
// process start. The weights are read-only after loading, so
// concurrent Predict calls share them freely.
type NeuralClassifier struct {
	labels []string
	layers []modelLayer
}

func LoadClassifier(path string) (*NeuralClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parsing model file: %w", err)
	}
	if len(mf.Layers) == 0 {
		return nil, fmt.Errorf("model file has no layers")
	}
	for i, l := range mf.Layers {
		if len(l.Weights) == 0 || len(l.Weights) != len(l.Bias) {
			return nil, fmt.Errorf("layer %d: weights/bias shape mismatch", i)
		}
	}
	return &NeuralClassifier{labels: mf.Labels, layers: mf.Layers}, nil
}

// InputDim returns the expected feature-vector length.
func (c *NeuralClassifier) InputDim() int {
	return len(c.layers[0].Weights[0])
}

func (c *NeuralClassifier) Predict(features []float64) (string, error) {
	if len(features) != c.InputDim() {
		return "", fmt.Errorf("%w: expected %d features, got %d", ErrInvalidInput, c.InputDim(), len(features))
	}

	x := features
	for li, layer := range c.layers {
		out := make([]float64, len(layer.Weights))
		for i, row := range layer.Weights {
			if len(row) != len(x) {
				return "", fmt.Errorf("layer %d: weight row %d has %d columns, input has %d", li, i, len(row), len(x))
			}
			sum := layer.Bias[i]
			for j, w := range row {
				sum += w * x[j]
			}
			out[i] = sum
		}
		// ReLU on hidden layers; the final layer keeps raw logits
		if li < len(c.layers)-1 {
			for i, v := range out {
				if v < 0 {
					out[i] = 0
				}
			}
		}
		x = out
	}

	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	if best < len(c.labels) {
		return c.labels[best], nil
	}
	return strconv.Itoa(best), nil
}
