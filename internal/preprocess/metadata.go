package preprocess

import (
	"regexp"
	"strings"

	"github.com/KaramelBytes/metaclean/internal/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanMetadata returns a copy of md with trimmed row labels and every text
// value trimmed, internal whitespace runs replaced by one underscore, and
// uppercased. Numeric columns pass through unchanged.
func CleanMetadata(md *table.Table) *table.Table {
	out := md.Clone()
	for i, label := range out.Index {
		out.Index[i] = strings.TrimSpace(label)
	}
	upper := cases.Upper(language.Und)
	for _, c := range out.Columns {
		if c.Kind != table.KindText {
			continue
		}
		for i, v := range c.Text {
			c.Text[i] = CanonicalValue(upper, v)
		}
	}
	return out
}

// CanonicalValue is the canonical form metadata values are compared in.
func CanonicalValue(upper cases.Caser, v string) string {
	return upper.String(whitespaceRun.ReplaceAllString(strings.TrimSpace(v), "_"))
}
