package table

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func sample() *Table {
	return New([]string{"b", "a", "c"},
		NumericColumn("x", []float64{2, 1, 3}),
		TextColumn("group", []string{"B", "A", "C"}),
	)
}

func TestCloneIsDeep(t *testing.T) {
	orig := sample()
	cp := orig.Clone()
	cp.Index[0] = "zzz"
	cp.Columns[0].Num[0] = 99
	cp.Columns[1].Text[0] = "changed"
	cp.DropColumns("group")

	if orig.Index[0] != "b" || orig.Columns[0].Num[0] != 2 || orig.Columns[1].Text[0] != "B" {
		t.Fatalf("clone mutation leaked into original: %+v", orig)
	}
	if orig.NumCols() != 2 {
		t.Fatalf("expected original to keep 2 columns, got %d", orig.NumCols())
	}
}

func TestDropRowsAndColumns(t *testing.T) {
	tb := sample()
	tb.DropRows("a", "missing")
	tb.DropColumns("x")
	if !reflect.DeepEqual(tb.Index, []string{"b", "c"}) {
		t.Fatalf("index = %v", tb.Index)
	}
	if got := tb.ColumnNames(); !reflect.DeepEqual(got, []string{"group"}) {
		t.Fatalf("columns = %v", got)
	}
	if got := tb.Columns[0].Text; !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Fatalf("group cells = %v", got)
	}
	if err := tb.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSortByIndex(t *testing.T) {
	tb := sample()
	tb.SortByIndex()
	if !reflect.DeepEqual(tb.Index, []string{"a", "b", "c"}) {
		t.Fatalf("index = %v", tb.Index)
	}
	if !reflect.DeepEqual(tb.Columns[0].Num, []float64{1, 2, 3}) {
		t.Fatalf("x = %v", tb.Columns[0].Num)
	}
	if !reflect.DeepEqual(tb.Columns[1].Text, []string{"A", "B", "C"}) {
		t.Fatalf("group = %v", tb.Columns[1].Text)
	}
}

func TestSelectRows(t *testing.T) {
	tb := sample()
	out, err := tb.SelectRows([]string{"c", "b"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !reflect.DeepEqual(out.Columns[0].Num, []float64{3, 2}) {
		t.Fatalf("x = %v", out.Columns[0].Num)
	}
	if _, err := tb.SelectRows([]string{"nope"}); !errors.Is(err, ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}
}

func TestTranspose(t *testing.T) {
	tb := New([]string{"f1", "f2"},
		NumericColumn("s1", []float64{1, 2}),
		NumericColumn("s2", []float64{3, math.NaN()}),
	)
	tr, err := tb.Transpose()
	if err != nil {
		t.Fatalf("transpose: %v", err)
	}
	if !reflect.DeepEqual(tr.Index, []string{"s1", "s2"}) {
		t.Fatalf("index = %v", tr.Index)
	}
	if !reflect.DeepEqual(tr.ColumnNames(), []string{"f1", "f2"}) {
		t.Fatalf("columns = %v", tr.ColumnNames())
	}
	f2, _ := tr.Column("f2")
	if f2.Num[0] != 2 || !math.IsNaN(f2.Num[1]) {
		t.Fatalf("f2 = %v", f2.Num)
	}

	if _, err := sample().Transpose(); !errors.Is(err, ErrNotNumeric) {
		t.Fatalf("expected ErrNotNumeric, got %v", err)
	}
}

func TestHeadAndSummary(t *testing.T) {
	tb := sample()
	h := tb.Head(2)
	if h.Rows() != 2 || tb.Rows() != 3 {
		t.Fatalf("head rows = %d, orig rows = %d", h.Rows(), tb.Rows())
	}
	if got := tb.Summary(); got != "3 rows, 2 columns" {
		t.Fatalf("summary = %q", got)
	}
	var nilTable *Table
	if !nilTable.Empty() {
		t.Fatalf("nil table should be empty")
	}
}
