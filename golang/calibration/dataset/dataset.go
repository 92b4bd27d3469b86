// Package dataset reads and writes the NumPy .npy arrays consumed and produced
// by the calibration tools.
package dataset

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/errs"
	"github.com/tarstars/calibration_trees/golang/calibration/sample"
)

// ReadMatrix reads a one- or two-dimensional numeric array as a float64 matrix.
// A vector of length N becomes an N×1 matrix.
func ReadMatrix(fileName string) (*mat.Dense, error) {
	data, shape, err := readArray(fileName)
	if err != nil {
		return nil, err
	}
	switch len(shape) {
	case 1:
		if shape[0] == 0 {
			return &mat.Dense{}, nil
		}
		return mat.NewDense(shape[0], 1, data), nil
	case 2:
		if shape[0] == 0 || shape[1] == 0 {
			return &mat.Dense{}, nil
		}
		return mat.NewDense(shape[0], shape[1], data), nil
	}
	return nil, errs.Shapef("%s: expected 1 or 2 dimensions (got %d)", fileName, len(shape))
}

// ReadOutcomes reads observed outcomes, either a vector of labels or a matrix
// of one-hot rows, and returns them as one-hot rows over classes. For two
// classes a single column y is read as the rows [y, 1-y].
func ReadOutcomes(fileName string, classes int) (*mat.Dense, error) {
	data, shape, err := readArray(fileName)
	if err != nil {
		return nil, err
	}
	switch len(shape) {
	case 1:
		labels, err := toLabels(data)
		if err != nil {
			return nil, errors.Wrap(err, fileName)
		}
		return sample.OneHot(labels, classes)
	case 2:
		if shape[1] == 1 && classes == 2 && shape[0] > 0 {
			return binning.Expand(mat.NewDense(shape[0], 1, data)), nil
		}
		if shape[1] != classes {
			return nil, errs.Shapef("%s: expected %d one-hot columns, got %d", fileName, classes, shape[1])
		}
		if shape[0] == 0 {
			return &mat.Dense{}, nil
		}
		return mat.NewDense(shape[0], shape[1], data), nil
	}
	return nil, errs.Shapef("%s: expected 1 or 2 dimensions (got %d)", fileName, len(shape))
}

// ReadLabels reads a vector of integer labels.
func ReadLabels(fileName string) ([]int, error) {
	data, shape, err := readArray(fileName)
	if err != nil {
		return nil, err
	}
	if len(shape) != 1 {
		return nil, errs.Shapef("%s: expected 1 dimension (got %d)", fileName, len(shape))
	}
	labels, err := toLabels(data)
	return labels, errors.Wrap(err, fileName)
}

// WriteMatrix stores m as a two-dimensional float64 array.
func WriteMatrix(fileName string, m mat.Matrix) error {
	return writeValue(fileName, m)
}

// WriteInts stores values as a one-dimensional int64 array.
func WriteInts(fileName string, values []int) error {
	converted := make([]int64, len(values))
	for ind, v := range values {
		converted[ind] = int64(v)
	}
	return writeValue(fileName, converted)
}

func writeValue(fileName string, value interface{}) (err error) {
	f, err := os.Create(fileName)
	if err != nil {
		return errors.Wrapf(err, "create %s", fileName)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return errors.Wrapf(npyio.Write(f, value), "write %s", fileName)
}

func toLabels(data []float64) ([]int, error) {
	labels := make([]int, len(data))
	for ind, v := range data {
		label := int(v)
		if float64(label) != v || label < 0 {
			return nil, errs.InvalidParameterf("entry %d (%v) is not a class label", ind, v)
		}
		labels[ind] = label
	}
	return labels, nil
}

// readArray reads the array in fileName as flat float64 data in row-major order.
func readArray(fileName string) (data []float64, shape []int, err error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", fileName)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read header of %s", fileName)
	}
	shape = r.Header.Descr.Shape
	if r.Header.Descr.Fortran && len(shape) > 1 {
		return nil, nil, errs.InvalidParameterf("%s: fortran ordered arrays are not supported", fileName)
	}

	switch dtype := strings.TrimLeft(r.Header.Descr.Type, "<>|="); dtype {
	case "f8":
		err = r.Read(&data)
	case "f4":
		data, err = readConverted[float32](r)
	case "i8":
		data, err = readConverted[int64](r)
	case "i4":
		data, err = readConverted[int32](r)
	case "u1":
		data, err = readConverted[uint8](r)
	default:
		return nil, nil, errs.InvalidParameterf("%s: unsupported dtype %q", fileName, r.Header.Descr.Type)
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", fileName)
	}
	return data, shape, nil
}

func readConverted[T float32 | int64 | int32 | uint8](r *npyio.Reader) ([]float64, error) {
	var values []T
	if err := r.Read(&values); err != nil {
		return nil, err
	}
	data := make([]float64, len(values))
	for ind, v := range values {
		data[ind] = float64(v)
	}
	return data, nil
}
