package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

type delimitedLoader struct {
	ext   string
	comma rune
}

func (l delimitedLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), l.ext)
}

func (l delimitedLoader) Records(r io.Reader, _ Options) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = l.comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var out [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("row %d: %w", len(out)+1, err)
		}
		if len(out) == 0 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
		}
		out = append(out, rec)
	}
	return out, nil
}
