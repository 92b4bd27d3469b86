package distance

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

func TestDistances(t *testing.T) {
	x := []float64{0.6, 0.4}
	y := []float64{0.2, 0.8}

	assert.InDelta(t, 0.8, L1.Distance(x, y), 1e-12)
	assert.InDelta(t, 0.4, TV.Distance(x, y), 1e-12)
	assert.InDelta(t, 0.565685424949238, L2.Distance(x, y), 1e-12)

	for _, d := range []Distance{L1, TV, L2} {
		assert.Equal(t, 0.0, d.Distance(x, x), "%v", d)
	}
}

func TestFuncAdapter(t *testing.T) {
	maxDiff := Func(func(x, y []float64) float64 {
		return x[0] - y[0]
	})
	assert.Equal(t, 1.0, maxDiff.Distance([]float64{2}, []float64{1}))
}

func TestByName(t *testing.T) {
	for name, want := range map[string]string{
		"":   "TVDistance",
		"TV": "TVDistance",
		"l1": "L1Distance",
		"L2": "L2Distance",
	} {
		d, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, fmt.Sprint(d))
	}

	_, err := ByName("hellinger")
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "TVDistance", fmt.Sprint(OrDefault(nil)))
	assert.Equal(t, "L2Distance", fmt.Sprint(OrDefault(L2)))
}
