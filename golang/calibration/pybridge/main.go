// SPDX-License-Identifier: Apache-2.0

package main

/*
#cgo CFLAGS: -I.
#include <stdlib.h>
*/
import "C"

import (
	"log/slog"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/distance"
	"github.com/tarstars/calibration_trees/golang/calibration/logging"
	"github.com/tarstars/calibration_trees/golang/calibration/sample"
	"github.com/tarstars/calibration_trees/golang/calibration/stats"
)

var (
	handleMu   sync.Mutex
	nextHandle uint64 = 1
	trees             = make(map[uint64]*binning.Tree)

	lastErrorMu sync.Mutex
	lastError   string

	logSilenceOnce sync.Once
)

func setLastError(err error) {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if err != nil {
		lastError = err.Error()
	} else {
		lastError = ""
	}
}

func getLastError() string {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	return lastError
}

func begin() {
	setLastError(nil)
	logSilenceOnce.Do(func() {
		slog.SetDefault(logging.Discard())
	})
}

func storeTree(tree *binning.Tree) uint64 {
	handleMu.Lock()
	defer handleMu.Unlock()
	handle := nextHandle
	trees[handle] = tree
	nextHandle++
	return handle
}

func fetchTree(handle uint64) (*binning.Tree, error) {
	handleMu.Lock()
	defer handleMu.Unlock()
	tree, ok := trees[handle]
	if !ok {
		return nil, errors.New("invalid tree handle")
	}
	return tree, nil
}

//export FreeTree
func FreeTree(handle C.ulonglong) {
	handleMu.Lock()
	defer handleMu.Unlock()
	delete(trees, uint64(handle))
}

func copyFloatSlice(ptr *C.double, length int) ([]float64, error) {
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length == 0 {
		return nil, nil
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty slice")
	}
	src := unsafe.Slice((*float64)(unsafe.Pointer(ptr)), length)
	dst := make([]float64, length)
	copy(dst, src)
	return dst, nil
}

func outputSlice(ptr *C.double, length int) ([]float64, error) {
	if ptr == nil {
		return nil, errors.New("null output pointer")
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(ptr)), length), nil
}

func buildDense(ptr *C.double, rows, cols C.int) (*mat.Dense, error) {
	r := int(rows)
	c := int(cols)
	if r <= 0 || c <= 0 {
		return nil, errors.New("invalid matrix dimensions")
	}
	data, err := copyFloatSlice(ptr, r*c)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(r, c, data), nil
}

//buildOutcomes returns nil when no outcomes are passed, so consistent targets are sampled
func buildOutcomes(ptr *C.double, rows, cols C.int) (mat.Matrix, error) {
	if ptr == nil {
		return nil, nil
	}
	outcomes, err := buildDense(ptr, rows, cols)
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

//buildSplitter selects the uniform binning (kind 0, param is the number of bins)
//or the data dependent binning (kind 1, param is the minimal bin size)
func buildSplitter(kind, param, median C.int) (binning.Splitter, error) {
	switch kind {
	case 0:
		uniform, err := binning.NewUniformBinning(int(param))
		if err != nil {
			return nil, err
		}
		return uniform, nil
	case 1:
		threshold := "mean"
		if median != 0 {
			threshold = "median"
		}
		dataDependent, err := binning.NewDataDependentBinning(int(param), threshold)
		if err != nil {
			return nil, err
		}
		return dataDependent, nil
	default:
		return nil, errors.New("unsupported binning kind")
	}
}

func buildEstimator(distanceName *C.char, binningKind, binningParam, median C.int, seed C.ulonglong, resamples C.int) (stats.Estimator, error) {
	var name string
	if distanceName != nil {
		name = C.GoString(distanceName)
	}
	dist, err := distance.ByName(name)
	if err != nil {
		return stats.Estimator{}, err
	}
	splitter, err := buildSplitter(binningKind, binningParam, median)
	if err != nil {
		return stats.Estimator{}, err
	}
	return stats.Estimator{
		Distance:  dist,
		Binning:   splitter,
		Rand:      sample.New(uint64(seed)),
		Resamples: int(resamples),
	}, nil
}

//export ComputeECE
func ComputeECE(
	probsPtr *C.double,
	rows C.int,
	cols C.int,
	outcomesPtr *C.double,
	outcomesCols C.int,
	distanceName *C.char,
	binningKind C.int,
	binningParam C.int,
	median C.int,
	seed C.ulonglong,
	outputPtr *C.double,
) C.int {
	begin()

	probs, err := buildDense(probsPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 1
	}
	outcomes, err := buildOutcomes(outcomesPtr, rows, outcomesCols)
	if err != nil {
		setLastError(err)
		return 2
	}
	estimator, err := buildEstimator(distanceName, binningKind, binningParam, median, seed, 0)
	if err != nil {
		setLastError(err)
		return 3
	}
	out, err := outputSlice(outputPtr, 1)
	if err != nil {
		setLastError(err)
		return 4
	}

	ece, err := estimator.ECE(probs, outcomes)
	if err != nil {
		setLastError(err)
		return 5
	}
	out[0] = ece
	return 0
}

//export ComputeBootstrapECE
func ComputeBootstrapECE(
	probsPtr *C.double,
	rows C.int,
	cols C.int,
	outcomesPtr *C.double,
	outcomesCols C.int,
	distanceName *C.char,
	binningKind C.int,
	binningParam C.int,
	median C.int,
	seed C.ulonglong,
	resamples C.int,
	outputPtr *C.double,
) C.int {
	begin()

	probs, err := buildDense(probsPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 1
	}
	outcomes, err := buildDense(outcomesPtr, rows, outcomesCols)
	if err != nil {
		setLastError(err)
		return 2
	}
	if resamples < 1 {
		setLastError(errors.New("resamples must be positive"))
		return 3
	}
	estimator, err := buildEstimator(distanceName, binningKind, binningParam, median, seed, resamples)
	if err != nil {
		setLastError(err)
		return 3
	}
	out, err := outputSlice(outputPtr, 2)
	if err != nil {
		setLastError(err)
		return 4
	}

	ece, std, err := estimator.Bootstrap(probs, outcomes)
	if err != nil {
		setLastError(err)
		return 5
	}
	out[0], out[1] = ece, std
	return 0
}

//export ComputeConsistencyECE
func ComputeConsistencyECE(
	probsPtr *C.double,
	rows C.int,
	cols C.int,
	distanceName *C.char,
	binningKind C.int,
	binningParam C.int,
	median C.int,
	seed C.ulonglong,
	resamples C.int,
	outputPtr *C.double,
) C.int {
	begin()

	probs, err := buildDense(probsPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 1
	}
	if resamples < 1 {
		setLastError(errors.New("resamples must be positive"))
		return 3
	}
	estimator, err := buildEstimator(distanceName, binningKind, binningParam, median, seed, resamples)
	if err != nil {
		setLastError(err)
		return 3
	}
	out, err := outputSlice(outputPtr, 2)
	if err != nil {
		setLastError(err)
		return 4
	}

	mean, std, err := estimator.Consistency(probs)
	if err != nil {
		setLastError(err)
		return 5
	}
	out[0], out[1] = mean, std
	return 0
}

//export FitBinningTree
func FitBinningTree(
	probsPtr *C.double,
	rows C.int,
	cols C.int,
	binningKind C.int,
	binningParam C.int,
	median C.int,
) C.ulonglong {
	begin()

	probs, err := buildDense(probsPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 0
	}
	splitter, err := buildSplitter(binningKind, binningParam, median)
	if err != nil {
		setLastError(err)
		return 0
	}
	return C.ulonglong(storeTree(binning.NewTree(splitter).Fit(probs)))
}

//export TreeNumBins
func TreeNumBins(handle C.ulonglong) C.int {
	setLastError(nil)
	tree, err := fetchTree(uint64(handle))
	if err != nil {
		setLastError(err)
		return -1
	}
	n, err := tree.NumBins()
	if err != nil {
		setLastError(err)
		return -1
	}
	return C.int(n)
}

//TreeBinNumbers writes the bin number of each of the rows fitted samples to outputPtr
//
//export TreeBinNumbers
func TreeBinNumbers(handle C.ulonglong, outputPtr *C.longlong, rows C.int) C.int {
	setLastError(nil)
	tree, err := fetchTree(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	binNumbers, err := tree.BinNumbers()
	if err != nil {
		setLastError(err)
		return 2
	}
	if int(rows) != len(binNumbers) {
		setLastError(errors.Errorf("expected %d rows, the tree was fitted on %d", rows, len(binNumbers)))
		return 3
	}
	if outputPtr == nil {
		setLastError(errors.New("null output pointer"))
		return 4
	}
	out := unsafe.Slice((*int64)(unsafe.Pointer(outputPtr)), len(binNumbers))
	for ind, bin := range binNumbers {
		out[ind] = int64(bin)
	}
	return 0
}

//export GetLastError
func GetLastError() *C.char {
	errStr := getLastError()
	if errStr == "" {
		return nil
	}
	return C.CString(errStr)
}

//export FreeCString
func FreeCString(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

func main() {}
