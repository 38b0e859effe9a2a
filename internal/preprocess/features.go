package preprocess

import (
	"strings"

	"github.com/KaramelBytes/metaclean/internal/table"
)

// FeatureOptions names the column conventions of a feature table export.
type FeatureOptions struct {
	// Marker must appear in a column name for it to count as an intensity column.
	Marker string
	// Suffix is removed from intensity column names.
	Suffix string
	// StripExtension additionally removes the raw-file extension (".mzML",
	// ".mzXML", ...) starting at Marker, leaving the bare sample name.
	StripExtension bool
}

// DefaultFeatureOptions matches MZmine-style exports: "<file>.mzML Peak area".
// Sample names keep their extension; set StripExtension for bare names.
func DefaultFeatureOptions() FeatureOptions {
	return FeatureOptions{Marker: ".mz", Suffix: " Peak area"}
}

// CleanFeatureTable returns a copy of ft holding only intensity columns, with
// the descriptor suffix and surrounding whitespace removed from their names.
func CleanFeatureTable(ft *table.Table, opt FeatureOptions) *table.Table {
	out := ft.Clone()
	kept := out.Columns[:0]
	for _, c := range out.Columns {
		if !strings.Contains(c.Name, opt.Marker) {
			continue
		}
		name := c.Name
		if opt.Suffix != "" {
			name = strings.ReplaceAll(name, opt.Suffix, "")
		}
		name = strings.TrimSpace(name)
		if opt.StripExtension {
			if i := strings.LastIndex(name, opt.Marker); i > 0 {
				name = name[:i]
			}
		}
		c.Name = name
		kept = append(kept, c)
	}
	out.Columns = kept
	return out
}
