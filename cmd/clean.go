package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/metaclean/internal/config"
	"github.com/KaramelBytes/metaclean/internal/pipeline"
	"github.com/KaramelBytes/metaclean/internal/preprocess"
	"github.com/KaramelBytes/metaclean/internal/table"
	"github.com/spf13/cobra"
)

var (
	cleanBlankColumn    string
	cleanBlankValue     string
	cleanSampleValues   []string
	cleanBlankCutoff    float64
	cleanMaxMissing     float64
	cleanSeed           uint64
	cleanOutDir         string
	cleanNoExport       bool
	cleanStripExtension bool
	cleanFeatureIndex   string
	cleanMetadataIndex  string
	cleanSheet          string
)

var cleanCmd = &cobra.Command{
	Use:   "clean <feature-table> <metadata>",
	Short: "Run the full cleaning pipeline and export every table",
	Long: `Load a feature table (features x samples) and its metadata (samples x attributes),
clean both, drop samples missing from either side, remove blank features, impute values
below the detection limit, normalize every sample and z-score every feature.

Every intermediate table is written as TSV into a new run directory together with manifest.json.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		applyCleanFlags(cmd, c)
		if err := c.Validate(); err != nil {
			return err
		}
		opt := pipelineOptions(c, args[0], args[1])
		if cleanNoExport {
			opt.OutputDir = ""
		}

		res, err := pipeline.Run(cmd.Context(), opt)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderStages(res.Stages))
		fmt.Fprintf(out, "Detection limit: %g (seed %d)\n", res.LOD, res.Seed)
		fmt.Fprintf(out, "Total missing values in dataset (coded as <= %g): %g %%\n", res.LOD, res.Metrics.MissingPercent)
		fmt.Fprintf(out, "Metabolites with measurements in at least %g %% of the samples: %g %%\n",
			(1-c.MaxMissing)*100, res.Metrics.PresentPercent)
		if res.Manifest != nil {
			fmt.Fprintf(out, "✓ Run %s written to %s\n", res.RunID, res.Manifest.Dir())
		} else {
			fmt.Fprintln(out, "✓ Pipeline finished (export disabled)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	f := cleanCmd.Flags()
	f.StringVar(&cleanBlankColumn, "blank-column", "", "metadata attribute holding the sample type (empty skips blank removal)")
	f.StringVar(&cleanBlankValue, "blank-value", "", "sample type value marking blanks")
	f.StringSliceVar(&cleanSampleValues, "sample-values", nil, "sample type values kept as samples (default: every non-blank)")
	f.Float64Var(&cleanBlankCutoff, "blank-cutoff", 0, "blank/sample ratio below which a feature is real")
	f.Float64Var(&cleanMaxMissing, "max-missing", 0, "drop features at or below the detection limit in at least this fraction of samples")
	f.Uint64Var(&cleanSeed, "seed", 0, "seed for imputation (0 = random)")
	f.StringVarP(&cleanOutDir, "out", "o", "", "directory receiving the run directory")
	f.BoolVar(&cleanNoExport, "no-export", false, "do not write any files")
	f.BoolVar(&cleanStripExtension, "strip-extension", false, "drop the file extension from sample names")
	f.StringVar(&cleanFeatureIndex, "feature-index", "", "feature table column used as row labels")
	f.StringVar(&cleanMetadataIndex, "metadata-index", "", "metadata column holding the sample file names")
	f.StringVar(&cleanSheet, "sheet", "", "worksheet name for .xlsx inputs")
}

// applyCleanFlags overrides c with every clean flag set on the command line.
func applyCleanFlags(cmd *cobra.Command, c *cfgpkg.Global) {
	f := cmd.Flags()
	if f.Changed("blank-column") {
		c.BlankColumn = cleanBlankColumn
	}
	if f.Changed("blank-value") {
		c.BlankValue = cleanBlankValue
	}
	if f.Changed("sample-values") {
		c.SampleValues = cleanSampleValues
	}
	if f.Changed("blank-cutoff") {
		c.BlankCutoff = cleanBlankCutoff
	}
	if f.Changed("max-missing") {
		c.MaxMissing = cleanMaxMissing
	}
	if f.Changed("seed") {
		c.Seed = cleanSeed
	}
	if f.Changed("out") {
		c.OutputDir = cleanOutDir
	}
	if f.Changed("strip-extension") {
		c.StripExtension = cleanStripExtension
	}
	if f.Changed("feature-index") {
		c.FeatureIndex = cleanFeatureIndex
	}
	if f.Changed("metadata-index") {
		c.MetadataIndex = cleanMetadataIndex
	}
}

func pipelineOptions(c *cfgpkg.Global, featurePath, metadataPath string) pipeline.Options {
	fl := table.DefaultOptions()
	fl.IndexColumn = c.FeatureIndex
	fl.DecimalSeparator = c.Decimal()
	fl.SheetName = cleanSheet
	ml := fl
	ml.IndexColumn = c.MetadataIndex

	return pipeline.Options{
		FeaturePath:  featurePath,
		MetadataPath: metadataPath,
		FeatureLoad:  fl,
		MetadataLoad: ml,
		Features: preprocess.FeatureOptions{
			Marker:         c.RawFileMarker,
			Suffix:         c.PeakSuffix,
			StripExtension: c.StripExtension,
		},
		Split: preprocess.SplitOptions{
			Column:       c.BlankColumn,
			BlankValue:   c.BlankValue,
			SampleValues: c.SampleValues,
		},
		BlankCutoff: c.BlankCutoff,
		Scale:       preprocess.ScaleOptions{MaxMissing: c.MaxMissing},
		Seed:        c.Seed,
		OutputDir:   c.OutputDir,
	}
}

func renderStages(stages []pipeline.StageReport) string {
	rows := make([][]string, 0, len(stages))
	for _, s := range stages {
		var notes []string
		for _, m := range s.Messages {
			// Reconcile messages carry the label list on a second line.
			first, _, _ := strings.Cut(m, "\n")
			notes = append(notes, first)
		}
		rows = append(rows, []string{s.Name, strconv.Itoa(s.Rows), strconv.Itoa(s.Cols), strings.Join(notes, "\n")})
	}
	return renderTable([]string{"Stage", "Rows", "Cols", "Notes"}, rows, []columnAlignment{alignLeft, alignRight, alignRight, alignLeft})
}
