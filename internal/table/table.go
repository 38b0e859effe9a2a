// Package table provides the in-memory tabular structure shared by every
// preprocessing stage, plus loaders for delimited text and XLSX files and a
// TSV exporter.
package table

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
)

var (
	// ErrNotNumeric is returned by operations that require every column to be numeric.
	ErrNotNumeric = errors.New("table has non-numeric columns")
	// ErrUnknownLabel is returned when a requested row or column label is absent.
	ErrUnknownLabel = errors.New("unknown label")
)

// Column is a single named column. Exactly one of Num or Text is populated,
// according to Kind. Missing numeric cells are NaN.
type Column struct {
	Name string
	Kind Kind
	Num  []float64
	Text []string
}

// NumericColumn builds a numeric column. The slice is used as-is.
func NumericColumn(name string, vals []float64) *Column {
	return &Column{Name: name, Kind: KindNumeric, Num: vals}
}

// TextColumn builds a text column. The slice is used as-is.
func TextColumn(name string, vals []string) *Column {
	return &Column{Name: name, Kind: KindText, Text: vals}
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == KindNumeric {
		return len(c.Num)
	}
	return len(c.Text)
}

// String renders cell i the way the exporter writes it.
func (c *Column) String(i int) string {
	if c.Kind == KindNumeric {
		return formatFloat(c.Num[i])
	}
	return c.Text[i]
}

func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Num != nil {
		out.Num = append([]float64(nil), c.Num...)
	}
	if c.Text != nil {
		out.Text = append([]string(nil), c.Text...)
	}
	return out
}

// pick returns a new column holding the cells at the given row positions.
func (c *Column) pick(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == KindNumeric {
		out.Num = make([]float64, len(rows))
		for i, r := range rows {
			out.Num[i] = c.Num[r]
		}
		return out
	}
	out.Text = make([]string, len(rows))
	for i, r := range rows {
		out.Text[i] = c.Text[r]
	}
	return out
}

// Table is a labelled two-dimensional table: Index holds the row labels and
// Columns the named columns, each with len(Index) cells.
type Table struct {
	Name    string
	Index   []string
	Columns []*Column
}

// New builds a table from row labels and columns.
func New(index []string, cols ...*Column) *Table {
	return &Table{Index: index, Columns: cols}
}

// Rows returns the number of rows.
func (t *Table) Rows() int {
	if t == nil {
		return 0
	}
	return len(t.Index)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Empty reports whether the table has no rows or no columns.
func (t *Table) Empty() bool {
	return t.Rows() == 0 || t.NumCols() == 0
}

// Validate checks that every column has one cell per row label.
func (t *Table) Validate() error {
	for _, c := range t.Columns {
		if c.Len() != len(t.Index) {
			return fmt.Errorf("column %q has %d cells, index has %d", c.Name, c.Len(), len(t.Index))
		}
	}
	return nil
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// IsNumeric reports whether every column is numeric.
func (t *Table) IsNumeric() bool {
	for _, c := range t.Columns {
		if c.Kind != KindNumeric {
			return false
		}
	}
	return true
}

// Clone returns a deep copy; mutating the copy never touches t.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Index: append([]string(nil), t.Index...)}
	out.Columns = make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		out.Columns[i] = c.clone()
	}
	return out
}

// DropColumns removes the named columns in place. Unknown names are ignored.
func (t *Table) DropColumns(names ...string) {
	drop := toSet(names)
	kept := t.Columns[:0]
	for _, c := range t.Columns {
		if _, ok := drop[c.Name]; !ok {
			kept = append(kept, c)
		}
	}
	t.Columns = kept
}

// DropRows removes rows whose label is listed, in place. Unknown labels are ignored.
func (t *Table) DropRows(labels ...string) {
	drop := toSet(labels)
	rows := make([]int, 0, len(t.Index))
	for i, l := range t.Index {
		if _, ok := drop[l]; !ok {
			rows = append(rows, i)
		}
	}
	t.keepRows(rows)
}

// SelectRows returns a new table with the given rows, in the given order.
func (t *Table) SelectRows(labels []string) (*Table, error) {
	pos := make(map[string]int, len(t.Index))
	for i, l := range t.Index {
		if _, dup := pos[l]; !dup {
			pos[l] = i
		}
	}
	rows := make([]int, len(labels))
	for i, l := range labels {
		p, ok := pos[l]
		if !ok {
			return nil, fmt.Errorf("row %q: %w", l, ErrUnknownLabel)
		}
		rows[i] = p
	}
	out := &Table{Name: t.Name, Index: append([]string(nil), labels...)}
	for _, c := range t.Columns {
		out.Columns = append(out.Columns, c.pick(rows))
	}
	return out, nil
}

// SelectColumns returns a new table with copies of the named columns, in the given order.
func (t *Table) SelectColumns(names []string) (*Table, error) {
	out := &Table{Name: t.Name, Index: append([]string(nil), t.Index...)}
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, fmt.Errorf("column %q: %w", n, ErrUnknownLabel)
		}
		out.Columns = append(out.Columns, c.clone())
	}
	return out, nil
}

// SortByIndex sorts rows by label in place. The sort is stable so duplicate
// labels keep their relative order.
func (t *Table) SortByIndex() {
	rows := make([]int, len(t.Index))
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool { return t.Index[rows[a]] < t.Index[rows[b]] })
	t.keepRows(rows)
}

// Transpose swaps rows and columns. Every column must be numeric; column
// names become the new index and the old index becomes the column names.
func (t *Table) Transpose() (*Table, error) {
	if !t.IsNumeric() {
		return nil, ErrNotNumeric
	}
	out := &Table{Name: t.Name, Index: t.ColumnNames()}
	for r, label := range t.Index {
		vals := make([]float64, len(t.Columns))
		for j, c := range t.Columns {
			vals[j] = c.Num[r]
		}
		out.Columns = append(out.Columns, NumericColumn(label, vals))
	}
	return out, nil
}

// Head returns a copy of the first n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.Index) {
		n = len(t.Index)
	}
	if n < 0 {
		n = 0
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	out := &Table{Name: t.Name, Index: append([]string(nil), t.Index[:n]...)}
	for _, c := range t.Columns {
		out.Columns = append(out.Columns, c.pick(rows))
	}
	return out
}

// Summary is the one-line shape description shown above every table.
func (t *Table) Summary() string {
	return fmt.Sprintf("%d rows, %d columns", t.Rows(), t.NumCols())
}

func (t *Table) keepRows(rows []int) {
	index := make([]string, len(rows))
	for i, r := range rows {
		index[i] = t.Index[r]
	}
	t.Index = index
	for i, c := range t.Columns {
		t.Columns[i] = c.pick(rows)
	}
}

func toSet(vals []string) map[string]struct{} {
	s := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
