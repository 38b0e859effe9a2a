package preprocess

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/metaclean/internal/table"
)

// Reconciliation reports what Reconcile changed.
type Reconciliation struct {
	// Matched is true when both tables already described the same samples.
	Matched bool
	// DroppedColumns are feature-table columns that had no metadata row.
	DroppedColumns []string
	// DroppedRows are metadata rows that had no feature-table column.
	DroppedRows []string
	// Messages is the user-facing status: one success line, or warnings.
	Messages []string
}

// Reconcile aligns the feature table's columns with the metadata's row labels.
//
// Reconcile MUTATES BOTH ARGUMENTS: unmatched feature columns are dropped from
// ft and unmatched rows from md. It is the only transform in this package that
// does not work on a copy. Mismatches are reported, never returned as errors.
func Reconcile(md, ft *table.Table) Reconciliation {
	cols := ft.ColumnNames()
	if sameLabels(cols, md.Index) {
		return Reconciliation{
			Matched:  true,
			Messages: []string{fmt.Sprintf("All %d files are present in both meta data & feature table.", len(cols))},
		}
	}

	rep := Reconciliation{Messages: []string{"Not all files are present in both meta data & feature table."}}
	rows := make(map[string]struct{}, len(md.Index))
	for _, l := range md.Index {
		rows[l] = struct{}{}
	}
	for _, c := range cols {
		if _, ok := rows[c]; !ok {
			rep.DroppedColumns = append(rep.DroppedColumns, c)
		}
	}
	rep.Messages = append(rep.Messages, fmt.Sprintf(
		"These %d columns of feature table are not present in metadata table and will be removed:\n%s",
		len(rep.DroppedColumns), strings.Join(rep.DroppedColumns, ", ")))
	ft.DropColumns(rep.DroppedColumns...)

	present := make(map[string]struct{}, ft.NumCols())
	for _, c := range ft.ColumnNames() {
		present[c] = struct{}{}
	}
	for _, l := range md.Index {
		if _, ok := present[l]; !ok {
			rep.DroppedRows = append(rep.DroppedRows, l)
		}
	}
	rep.Messages = append(rep.Messages, fmt.Sprintf(
		"These %d rows of metadata table are not present in feature table and will be removed:\n%s",
		len(rep.DroppedRows), strings.Join(rep.DroppedRows, ", ")))
	md.DropRows(rep.DroppedRows...)
	return rep
}

// sameLabels compares two label lists as sorted multisets.
func sameLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
