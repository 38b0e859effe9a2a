package cmd

import (
	"github.com/KaramelBytes/metaclean/internal/table"
	pretty "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := pretty.NewWriter()
	tw.SetStyle(pretty.StyleRounded)

	header := make(pretty.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(pretty.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]pretty.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, pretty.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderData renders a table with its row labels as the first column.
// Numeric columns are right aligned.
func renderData(t *table.Table) string {
	headers := append([]string{""}, t.ColumnNames()...)
	aligns := make([]columnAlignment, len(headers))
	for j, c := range t.Columns {
		if c.Kind == table.KindNumeric {
			aligns[j+1] = alignRight
		}
	}
	rows := make([][]string, t.Rows())
	for i, label := range t.Index {
		row := make([]string, 0, len(headers))
		row = append(row, label)
		for _, c := range t.Columns {
			row = append(row, c.String(i))
		}
		rows[i] = row
	}
	return renderTable(headers, rows, aligns)
}
