package preprocess

import (
	"math"

	"github.com/KaramelBytes/metaclean/internal/table"
	"gonum.org/v1/gonum/floats"
)

// NormalizeColumnWise returns a copy of t with every numeric column divided by
// the sum of its non-missing cells, so those cells sum to 1. NaN cells stay
// NaN. All-zero and all-NaN columns become NaN; neither case is an error.
func NormalizeColumnWise(t *table.Table) *table.Table {
	out := t.Clone()
	for _, c := range out.Columns {
		if c.Kind != table.KindNumeric {
			continue
		}
		floats.Scale(1/nanSum(c.Num), c.Num)
	}
	return out
}

// nanSum adds the non-NaN values of x; it is 0 when there are none.
func nanSum(x []float64) float64 {
	var sum float64
	for _, v := range x {
		if !math.IsNaN(v) {
			sum += v
		}
	}
	return sum
}
