package preprocess

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/metaclean/internal/table"
)

// IntSource draws uniform integers in [0, n). *rand.Rand from math/rand/v2
// satisfies it; tests can pass a deterministic source.
type IntSource interface {
	IntN(n int) int
}

// ImputeMissing returns a copy of t where every zero cell is replaced by its
// own draw from [0, lod). Non-zero cells, NaNs and text columns are unchanged.
// lod must be at least 1 so the range is not empty.
func ImputeMissing(t *table.Table, lod float64, rng IntSource) (*table.Table, error) {
	if math.IsNaN(lod) || lod < 1 {
		return nil, fmt.Errorf("impute: detection limit %v must be >= 1", lod)
	}
	upper := int(math.Ceil(lod))
	out := t.Clone()
	for _, c := range out.Columns {
		if c.Kind != table.KindNumeric {
			continue
		}
		for i, v := range c.Num {
			if v == 0 {
				c.Num[i] = float64(rng.IntN(upper))
			}
		}
	}
	return out, nil
}
