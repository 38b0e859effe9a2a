package cmd

import (
	"fmt"
	"math"
	"strconv"

	"github.com/KaramelBytes/metaclean/internal/table"
	"github.com/spf13/cobra"
)

var (
	inspectIndex   string
	inspectRows    int
	inspectSheet   string
	inspectStats   bool
	inspectLenient bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the shape and first rows of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := table.DefaultOptions()
		opt.IndexColumn = inspectIndex
		opt.SheetName = inspectSheet
		if c, err := requireConfig(); err == nil {
			opt.DecimalSeparator = c.Decimal()
		}
		var t *table.Table
		if inspectLenient {
			t = table.LoadOrEmpty(cmd.Context(), args[0], opt)
		} else {
			var err error
			if t, err = table.Load(args[0], opt); err != nil {
				return err
			}
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s\n", t.Name, t.Summary())
		if t.NumCols() > 0 {
			fmt.Fprintln(out, renderData(t.Head(inspectRows)))
		}
		if inspectStats {
			fmt.Fprintln(out, renderSummaries(table.Describe(t)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectIndex, "index", "", "column used as row labels")
	inspectCmd.Flags().IntVarP(&inspectRows, "rows", "n", 5, "number of rows to show")
	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "worksheet name for .xlsx files")
	inspectCmd.Flags().BoolVar(&inspectStats, "stats", false, "print per-column statistics")
	inspectCmd.Flags().BoolVar(&inspectLenient, "lenient", false, "report an unreadable file as an empty table instead of failing")
}

func renderSummaries(sums []table.ColumnSummary) string {
	num := func(v float64) string {
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', 4, 64)
	}
	rows := make([][]string, 0, len(sums))
	for _, s := range sums {
		kind := "numeric"
		if s.Kind == table.KindText {
			kind = "text"
		}
		rows = append(rows, []string{
			s.Name, kind, strconv.Itoa(s.NonNull), strconv.Itoa(s.Missing), strconv.Itoa(s.Zeros),
			num(s.Min), num(s.Max), num(s.Mean), num(s.Std),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
	return renderTable([]string{"Column", "Kind", "Non-null", "Missing", "Zeros", "Min", "Max", "Mean", "Std"}, rows, aligns)
}
