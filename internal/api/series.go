package api

import (
	"math"
	"strconv"

	"github.com/bytedance/sonic"
	"gonum.org/v1/gonum/mat"
)

// Float is a float64 that travels as JSON null when it is NaN or infinite.
type Float float64

func appendFloat(buf []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(buf, "null"...)
	}
	return strconv.AppendFloat(buf, v, 'g', -1, 64)
}

func (f Float) MarshalJSON() ([]byte, error) {
	return appendFloat(nil, float64(f)), nil
}

func (f *Float) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := sonic.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*f = Float(math.NaN())
		return nil
	}
	*f = Float(*v)
	return nil
}

// Series is a float64 slice whose missing samples travel as JSON null.
type Series []float64

func (s Series) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(s)*8)
	buf = append(buf, '[')
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendFloat(buf, v)
	}
	return append(buf, ']'), nil
}

func (s *Series) UnmarshalJSON(data []byte) error {
	var values []*float64
	if err := sonic.Unmarshal(data, &values); err != nil {
		return err
	}
	if values == nil {
		*s = nil
		return nil
	}
	out := make(Series, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	*s = out
	return nil
}

func seriesList(xs [][]float64) []Series {
	if xs == nil {
		return nil
	}
	out := make([]Series, len(xs))
	for i, x := range xs {
		out[i] = Series(x)
	}
	return out
}

// Matrix is a dense matrix as a list of rows.
type Matrix []Series

// MatrixFromDense copies m row by row.
func MatrixFromDense(m *mat.Dense) Matrix {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	out := make(Matrix, r)
	for i := range r {
		out[i] = Series(mat.Row(nil, i, m))
	}
	return out
}
