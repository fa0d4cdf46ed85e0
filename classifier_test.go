package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A hand-built two-class model: the first output neuron fires on the
// first feature, the second on the second feature.
const testModelJSON = `{
	"labels": ["cold", "hot"],
	"layers": [
		{"weights": [[1, 0], [0, 1]], "bias": [0, 0]}
	]
}`

func writeTestModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadClassifierAndPredict(t *testing.T) {
	c, err := LoadClassifier(writeTestModel(t, testModelJSON))
	require.NoError(t, err)
	require.Equal(t, 2, c.InputDim())

	label, err := c.Predict([]float64{3, 1})
	require.NoError(t, err)
	assert.Equal(t, "cold", label)

	label, err = c.Predict([]float64{1, 3})
	require.NoError(t, err)
	assert.Equal(t, "hot", label)
}

func TestPredictDimensionMismatch(t *testing.T) {
	c, err := LoadClassifier(writeTestModel(t, testModelJSON))
	require.NoError(t, err)

	_, err = c.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPredictMultiLayerReLU(t *testing.T) {
	// hidden layer negates the input; ReLU clamps it to zero, so the
	// second class always wins regardless of input magnitude
	model := `{
		"labels": ["a", "b"],
		"layers": [
			{"weights": [[-1]], "bias": [0]},
			{"weights": [[1], [0]], "bias": [0, 1]}
		]
	}`
	c, err := LoadClassifier(writeTestModel(t, model))
	require.NoError(t, err)

	label, err := c.Predict([]float64{5})
	require.NoError(t, err)
	assert.Equal(t, "b", label)
}

func TestLoadClassifierErrors(t *testing.T) {
	_, err := LoadClassifier(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadClassifier(writeTestModel(t, `{"layers": []}`))
	assert.Error(t, err)

	_, err = LoadClassifier(writeTestModel(t, `{not json`))
	assert.Error(t, err)
}

func TestUnloadedClassifier(t *testing.T) {
	_, err := unloadedClassifier{}.Predict([]float64{1, 2})
	assert.ErrorIs(t, err, ErrModelNotLoaded)
}
