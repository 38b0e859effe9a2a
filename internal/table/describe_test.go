package table

import (
	"math"
	"testing"
)

func TestDescribe(t *testing.T) {
	tb := New([]string{"a", "b", "c", "d"},
		NumericColumn("x", []float64{0, 2, math.NaN(), 4}),
		TextColumn("g", []string{"A", "", "B", "A"}),
		NumericColumn("empty", []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()}),
	)
	got := Describe(tb)
	if len(got) != 3 {
		t.Fatalf("summaries = %d", len(got))
	}
	x := got[0]
	if x.NonNull != 3 || x.Missing != 1 || x.Zeros != 1 || x.Min != 0 || x.Max != 4 || x.Mean != 2 {
		t.Fatalf("x = %+v", x)
	}
	if math.Abs(x.Std-2) > 1e-12 {
		t.Fatalf("x std = %v", x.Std)
	}
	g := got[1]
	if g.Kind != KindText || g.NonNull != 3 || g.Missing != 1 || g.Unique != 2 {
		t.Fatalf("g = %+v", g)
	}
	if e := got[2]; e.NonNull != 0 || !math.IsNaN(e.Mean) || !math.IsNaN(e.Std) {
		t.Fatalf("empty = %+v", e)
	}
}
