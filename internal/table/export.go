package table

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteTSV writes t tab-separated: a header row with an empty first cell
// followed by the column names, then one line per row starting with its label.
// NaN cells are written empty.
func WriteTSV(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	fields := make([]string, 0, t.NumCols()+1)
	fields = append(fields, "")
	fields = append(fields, t.ColumnNames()...)
	if err := writeLine(bw, fields); err != nil {
		return err
	}
	for r, label := range t.Index {
		fields = fields[:0]
		fields = append(fields, label)
		for _, c := range t.Columns {
			fields = append(fields, c.String(r))
		}
		if err := writeLine(bw, fields); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush tsv: %w", err)
	}
	return nil
}

// EncodeTSV is WriteTSV into a byte slice, ready for a download response.
func EncodeTSV(t *Table) ([]byte, error) {
	var b strings.Builder
	if err := WriteTSV(&b, t); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// ExportName maps a table title to its download file name: spaces become
// dashes and ".tsv" is appended.
func ExportName(title string) string {
	return strings.ReplaceAll(strings.TrimSpace(title), " ", "-") + ".tsv"
}

func writeLine(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte('\t'); err != nil {
				return fmt.Errorf("write tsv: %w", err)
			}
		}
		if _, err := w.WriteString(escapeField(f)); err != nil {
			return fmt.Errorf("write tsv: %w", err)
		}
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write tsv: %w", err)
	}
	return nil
}

// escapeField quotes fields that would otherwise break the row structure.
func escapeField(f string) string {
	if !strings.ContainsAny(f, "\t\n\r\"") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}
