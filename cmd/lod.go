package cmd

import (
	"fmt"

	"github.com/KaramelBytes/metaclean/internal/preprocess"
	"github.com/KaramelBytes/metaclean/internal/table"
	"github.com/spf13/cobra"
)

var (
	lodIndex string
	lodRaw   bool
)

var lodCmd = &cobra.Command{
	Use:   "lod <feature-table>",
	Short: "Print the detection limit of a feature table",
	Long: `Print the smallest positive value of a feature table rounded to an integer.
By default the table is cleaned first so only sample peak-area columns count; --raw uses every numeric column.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		opt := table.DefaultOptions()
		opt.IndexColumn = c.FeatureIndex
		if cmd.Flags().Changed("index") {
			opt.IndexColumn = lodIndex
		}
		opt.DecimalSeparator = c.Decimal()
		t, err := table.Load(args[0], opt)
		if err != nil {
			return err
		}
		if !lodRaw {
			t = preprocess.CleanFeatureTable(t, preprocess.FeatureOptions{Marker: c.RawFileMarker, Suffix: c.PeakSuffix})
		}
		lod, err := preprocess.CutoffLODStrict(t)
		if err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%g\n", lod)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lodCmd)
	lodCmd.Flags().StringVar(&lodIndex, "index", "", "column used as row labels (overrides feature_index)")
	lodCmd.Flags().BoolVar(&lodRaw, "raw", false, "use every numeric column without cleaning")
}
