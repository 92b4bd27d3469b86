// Package distance provides the distance measures used to compare an average
// prediction with an average outcome inside a bin.
package distance

import (
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

// Distance measures the discrepancy between two probability vectors of the
// same length. Implementations must return a non-negative value.
type Distance interface {
	Distance(x, y []float64) float64
}

// Func adapts an ordinary function to the Distance interface.
type Func func(x, y []float64) float64

// Distance calls f(x, y).
func (f Func) Distance(x, y []float64) float64 {
	return f(x, y)
}

var (
	// L1 is the Manhattan distance.
	L1 = named{"L1Distance", func(x, y []float64) float64 {
		return floats.Distance(x, y, 1)
	}}

	// TV is the total variation distance, half of L1.
	TV = named{"TVDistance", func(x, y []float64) float64 {
		return floats.Distance(x, y, 1) / 2
	}}

	// L2 is the Euclidean distance.
	L2 = named{"L2Distance", func(x, y []float64) float64 {
		return floats.Distance(x, y, 2)
	}}
)

type named struct {
	name string
	fn   Func
}

func (n named) Distance(x, y []float64) float64 {
	return n.fn(x, y)
}

func (n named) String() string {
	return n.name
}

// ByName resolves "l1", "tv" and "l2" (case insensitive). An empty name
// selects the total variation distance.
func ByName(name string) (Distance, error) {
	switch strings.ToLower(name) {
	case "", "tv", "tvdistance":
		return TV, nil
	case "l1", "l1distance":
		return L1, nil
	case "l2", "l2distance":
		return L2, nil
	}
	return nil, errs.InvalidParameterf("distance must be 'l1', 'tv' or 'l2', got %q", name)
}

// OrDefault returns d, or TV when d is nil.
func OrDefault(d Distance) Distance {
	if d == nil {
		return TV
	}
	return d
}
