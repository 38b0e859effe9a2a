package preprocess

import (
	"errors"
	"math"

	"github.com/KaramelBytes/metaclean/internal/table"
)

// ErrNoDetectionLimit is returned when a table has no positive numeric cell.
var ErrNoDetectionLimit = errors.New("no positive value to derive a detection limit from")

// CutoffLOD returns the smallest strictly positive numeric cell of t rounded to
// the nearest integer (ties to even). Zeros, NaNs and text columns are
// ignored. The result is NaN when no positive cell exists.
func CutoffLOD(t *table.Table) float64 {
	lowest := math.Inf(1)
	for _, c := range t.Columns {
		if c.Kind != table.KindNumeric {
			continue
		}
		for _, v := range c.Num {
			if v > 0 && v < lowest {
				lowest = v
			}
		}
	}
	if math.IsInf(lowest, 1) {
		return math.NaN()
	}
	return math.RoundToEven(lowest)
}

// CutoffLODStrict is CutoffLOD failing fast on the degenerate case.
func CutoffLODStrict(t *table.Table) (float64, error) {
	lod := CutoffLOD(t)
	if math.IsNaN(lod) {
		return lod, ErrNoDetectionLimit
	}
	return lod, nil
}
