package preprocess

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/metaclean/internal/table"
	"gonum.org/v1/gonum/stat"
)

// DefaultMaxMissing is the fraction of samples at or below the detection
// limit from which a feature is dropped before scaling.
const DefaultMaxMissing = 0.5

// constantScale is the standard deviation below which a feature counts as
// constant and is only centred.
const constantScale = 10 * 2.220446049250313e-16

// Sample-order warnings raised by TransposeAndScale.
const (
	WarnSampleNamesDiffer       = "Sample names in feature and metadata table are NOT the same!"
	WarnSampleNamesIncomparable = "Sample names in feature and metadata table can NOT be compared. Please check your tables!"
)

// ScaleOptions configures TransposeAndScale.
type ScaleOptions struct {
	// MaxMissing keeps features whose fraction of samples at or below the
	// detection limit is strictly lower than this value.
	MaxMissing float64
}

// DefaultScaleOptions returns the 50% missingness rule.
func DefaultScaleOptions() ScaleOptions {
	return ScaleOptions{MaxMissing: DefaultMaxMissing}
}

// ScaleResult is the outcome of TransposeAndScale.
type ScaleResult struct {
	// Scaled holds z-scored features, indexed like the pruned, sorted input.
	Scaled *table.Table
	// Metadata is md restricted to the feature table's samples, sorted by label.
	Metadata *table.Table
	// MissingFraction is the share of all cells at or below the detection limit.
	MissingFraction float64
	// PresentFraction is the share of features measured (above the limit) in
	// at least 1-MaxMissing of the samples.
	PresentFraction float64
	// Dropped lists features removed for missingness.
	Dropped []string
	// Warnings holds sample-order problems; processing continues regardless.
	Warnings []string
}

// TransposeAndScale aligns ft (samples x features) with md, prunes features
// missing from too many samples and standardizes the rest to zero mean and
// unit variance. Neither argument is modified.
//
// Standardization uses the population variance and ignores NaN cells when
// fitting; NaNs stay NaN. A constant feature scales to all zeros.
func TransposeAndScale(ft, md *table.Table, lod float64, opt ScaleOptions) (ScaleResult, error) {
	if err := requireNumeric(ft, "feature table"); err != nil {
		return ScaleResult{}, err
	}
	if ft.Empty() {
		return ScaleResult{}, fmt.Errorf("feature table: %w", ErrEmptyTable)
	}

	present := toLabelSet(ft.Index)
	var keepRows []string
	for _, l := range md.Index {
		if _, ok := present[l]; ok {
			keepRows = append(keepRows, l)
		}
	}
	mdSamples, err := md.SelectRows(keepRows)
	if err != nil {
		return ScaleResult{}, err
	}

	features := ft.Clone()
	features.SortByIndex()
	mdSamples.SortByIndex()

	res := ScaleResult{Metadata: mdSamples}
	if w := compareOrder(features.Index, mdSamples.Index); w != "" {
		res.Warnings = append(res.Warnings, w)
	}

	n := float64(features.Rows())
	var atOrBelow, measured int
	var keep []*table.Column
	for _, c := range features.Columns {
		zeros := 0
		for _, v := range c.Num {
			if v <= lod {
				zeros++
			}
		}
		atOrBelow += zeros
		frac := float64(zeros) / n
		if frac <= opt.MaxMissing {
			measured++
		}
		if frac < opt.MaxMissing {
			keep = append(keep, c)
		} else {
			res.Dropped = append(res.Dropped, c.Name)
		}
	}
	res.MissingFraction = float64(atOrBelow) / (n * float64(features.NumCols()))
	res.PresentFraction = float64(measured) / float64(features.NumCols())

	scaled := &table.Table{Name: ft.Name, Index: features.Index}
	for _, c := range keep {
		scaled.Columns = append(scaled.Columns, table.NumericColumn(c.Name, zscore(c.Num)))
	}
	res.Scaled = scaled
	return res, nil
}

// compareOrder checks the label-wise correspondence of two sorted indexes.
func compareOrder(features, metadata []string) string {
	if len(features) != len(metadata) {
		return WarnSampleNamesIncomparable
	}
	for i := range features {
		if features[i] != metadata[i] {
			return WarnSampleNamesDiffer
		}
	}
	return ""
}

func zscore(x []float64) []float64 {
	finite := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	out := make([]float64, len(x))
	if len(finite) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	mean, variance := stat.PopMeanVariance(finite, nil)
	scale := math.Sqrt(variance)
	if scale < constantScale || math.IsNaN(scale) {
		scale = 1
	}
	for i, v := range x {
		out[i] = (v - mean) / scale
	}
	return out
}

func toLabelSet(labels []string) map[string]struct{} {
	s := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}
	return s
}
