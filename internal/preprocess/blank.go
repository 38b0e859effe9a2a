package preprocess

import (
	"fmt"

	"github.com/KaramelBytes/metaclean/internal/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/stat"
)

// DefaultBlankCutoff is the blank/sample ratio below which a feature is real.
const DefaultBlankCutoff = 0.3

// BlankResult is the outcome of RemoveBlankFeatures.
type BlankResult struct {
	// Samples is the sample table restricted to real features.
	Samples *table.Table
	// Background counts features classified as blank signal, including those
	// whose ratio is undefined.
	Background int
	// Real counts features kept.
	Real int
	// Ratios holds (mean_blank+1)/(mean_sample+1) per input feature, in column order.
	Ratios []float64
}

// RemoveBlankFeatures classifies each feature (column) of samples as real when
// (mean_blank + 1) / (mean_sample + 1) < cutoff. Means do not skip missing
// values, so a NaN anywhere in a feature makes its ratio NaN and the feature is
// counted as background. Both tables are samples x features and must share the
// same feature columns.
func RemoveBlankFeatures(blanks, samples *table.Table, cutoff float64) (BlankResult, error) {
	if err := requireNumeric(blanks, "blanks"); err != nil {
		return BlankResult{}, err
	}
	if err := requireNumeric(samples, "samples"); err != nil {
		return BlankResult{}, err
	}
	if !sameLabels(blanks.ColumnNames(), samples.ColumnNames()) {
		return BlankResult{}, fmt.Errorf("blanks vs samples: %w", ErrColumnMismatch)
	}

	res := BlankResult{Ratios: make([]float64, samples.NumCols())}
	var keep []string
	for i, c := range samples.Columns {
		b, _ := blanks.Column(c.Name)
		ratio := (stat.Mean(b.Num, nil) + 1) / (stat.Mean(c.Num, nil) + 1)
		res.Ratios[i] = ratio
		// NaN compares false, which leaves the feature out of the real set.
		if ratio < cutoff {
			keep = append(keep, c.Name)
		}
	}
	res.Real = len(keep)
	res.Background = samples.NumCols() - res.Real
	out, err := samples.SelectColumns(keep)
	if err != nil {
		return BlankResult{}, err
	}
	res.Samples = out
	return res, nil
}

// SplitOptions selects blank and sample rows by a metadata attribute.
type SplitOptions struct {
	// Column is the metadata attribute holding the sample type.
	Column string
	// BlankValue marks blank rows.
	BlankValue string
	// SampleValues marks sample rows; empty means every non-blank row.
	SampleValues []string
}

// SplitBlanks partitions ft (samples x features) into blank and sample rows
// using the metadata attribute opt.Column. Values are compared in canonical
// form, so "Blank " matches a cleaned "BLANK". Rows keep their order in ft.
func SplitBlanks(ft, md *table.Table, opt SplitOptions) (blanks, samples *table.Table, err error) {
	attr, ok := md.Column(opt.Column)
	if !ok {
		return nil, nil, fmt.Errorf("metadata column %q: %w", opt.Column, table.ErrUnknownLabel)
	}
	upper := cases.Upper(language.Und)
	blankValue := CanonicalValue(upper, opt.BlankValue)
	wanted := make(map[string]struct{}, len(opt.SampleValues))
	for _, v := range opt.SampleValues {
		wanted[CanonicalValue(upper, v)] = struct{}{}
	}
	group := make(map[string]string, md.Rows())
	for i, l := range md.Index {
		group[l] = CanonicalValue(upper, attr.String(i))
	}

	var blankRows, sampleRows []string
	for _, l := range ft.Index {
		g, ok := group[l]
		if !ok {
			return nil, nil, fmt.Errorf("sample %q has no metadata row: %w", l, table.ErrUnknownLabel)
		}
		switch {
		case g == blankValue:
			blankRows = append(blankRows, l)
		case len(wanted) == 0:
			sampleRows = append(sampleRows, l)
		default:
			if _, ok := wanted[g]; ok {
				sampleRows = append(sampleRows, l)
			}
		}
	}
	if blanks, err = ft.SelectRows(blankRows); err != nil {
		return nil, nil, err
	}
	if samples, err = ft.SelectRows(sampleRows); err != nil {
		return nil, nil, err
	}
	return blanks, samples, nil
}
