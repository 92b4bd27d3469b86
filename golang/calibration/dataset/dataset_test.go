package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

func writeNpy(t *testing.T, name string, value interface{}) string {
	fileName := filepath.Join(t.TempDir(), name)
	f, err := os.Create(fileName)
	require.NoError(t, err)
	require.NoError(t, npyio.Write(f, value))
	require.NoError(t, f.Close())
	return fileName
}

func TestMatrixRoundTrip(t *testing.T) {
	probs := mat.NewDense(3, 2, []float64{
		0.1, 0.9,
		0.5, 0.5,
		0.75, 0.25,
	})
	fileName := filepath.Join(t.TempDir(), "probs.npy")
	require.NoError(t, WriteMatrix(fileName, probs))

	got, err := ReadMatrix(fileName)
	require.NoError(t, err)
	assert.True(t, mat.Equal(probs, got))
}

func TestReadVectorAsColumn(t *testing.T) {
	fileName := writeNpy(t, "p.npy", []float64{0, 0.5, 0.2})

	got, err := ReadMatrix(fileName)
	require.NoError(t, err)
	r, c := got.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, 0.5, got.At(1, 0))
}

func TestReadFloat32(t *testing.T) {
	fileName := writeNpy(t, "p.npy", []float32{0.25, 0.75})

	got, err := ReadMatrix(fileName)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, mat.Col(nil, 0, got))
}

func TestLabelsRoundTrip(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "bins.npy")
	require.NoError(t, WriteInts(fileName, []int{0, 2, 1, 3, 4, 4}))

	labels, err := ReadLabels(fileName)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 1, 3, 4, 4}, labels)
}

func TestReadOutcomesFromLabels(t *testing.T) {
	fileName := writeNpy(t, "labels.npy", []int64{2, 0, 1})

	outcomes, err := ReadOutcomes(fileName, 3)
	require.NoError(t, err)
	want := mat.NewDense(3, 3, []float64{
		0, 0, 1,
		1, 0, 0,
		0, 1, 0,
	})
	assert.True(t, mat.Equal(want, outcomes))

	_, err = ReadOutcomes(fileName, 2)
	assert.True(t, errors.Is(err, errs.ErrShape))
}

func TestReadOutcomesOneHot(t *testing.T) {
	onehot := mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	fileName := writeNpy(t, "outcomes.npy", onehot)

	outcomes, err := ReadOutcomes(fileName, 2)
	require.NoError(t, err)
	assert.True(t, mat.Equal(onehot, outcomes))

	_, err = ReadOutcomes(fileName, 3)
	assert.True(t, errors.Is(err, errs.ErrShape))
}

func TestReadBinaryOutcomesColumn(t *testing.T) {
	fileName := writeNpy(t, "y.npy", mat.NewDense(3, 1, []float64{1, 0, 1}))

	outcomes, err := ReadOutcomes(fileName, 2)
	require.NoError(t, err)
	want := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		1, 0,
	})
	assert.True(t, mat.Equal(want, outcomes))
}

func TestReadErrors(t *testing.T) {
	_, err := ReadMatrix(filepath.Join(t.TempDir(), "missing.npy"))
	assert.Error(t, err)

	fileName := writeNpy(t, "fractions.npy", []float64{0.5, 1})
	_, err = ReadLabels(fileName)
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))

	fileName = writeNpy(t, "negative.npy", []int64{1, -1})
	_, err = ReadLabels(fileName)
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))
}
