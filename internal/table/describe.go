package table

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnSummary captures per-column statistics of a loaded table.
type ColumnSummary struct {
	Name    string
	Kind    Kind
	NonNull int
	Missing int
	// Zeros counts numeric cells equal to 0, the usual "not detected" code.
	Zeros  int
	Unique int
	// Numeric stats over non-missing cells; NaN when there are none.
	Min  float64
	Max  float64
	Mean float64
	Std  float64
}

// Describe summarizes every column of t. Std is the sample standard deviation.
func Describe(t *Table) []ColumnSummary {
	out := make([]ColumnSummary, 0, len(t.Columns))
	for _, c := range t.Columns {
		s := ColumnSummary{Name: c.Name, Kind: c.Kind, Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), Std: math.NaN()}
		if c.Kind == KindText {
			seen := make(map[string]struct{})
			for _, v := range c.Text {
				if v == "" {
					s.Missing++
					continue
				}
				s.NonNull++
				seen[v] = struct{}{}
			}
			s.Unique = len(seen)
			out = append(out, s)
			continue
		}

		vals := make([]float64, 0, len(c.Num))
		for _, v := range c.Num {
			if math.IsNaN(v) {
				s.Missing++
				continue
			}
			if v == 0 {
				s.Zeros++
			}
			vals = append(vals, v)
		}
		s.NonNull = len(vals)
		if len(vals) > 0 {
			s.Min, s.Max = floats.Min(vals), floats.Max(vals)
			s.Mean = stat.Mean(vals, nil)
		}
		if len(vals) > 1 {
			s.Std = stat.StdDev(vals, nil)
		}
		out = append(out, s)
	}
	return out
}
