package table

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ErrUnsupported indicates a file extension no loader accepts.
var ErrUnsupported = errors.New("unsupported table format")

// unnamedIndex is the header an index column gets when a table was saved
// together with its unnamed row index.
const unnamedIndex = "Unnamed: 0"

// Options controls how raw records become a Table.
type Options struct {
	// IndexColumn promotes the named column to row labels. Empty means
	// positional labels "0", "1", ...
	IndexColumn string
	// DecimalSeparator for numeric cells: '.' (default) or ','.
	DecimalSeparator rune
	// SheetName selects an XLSX sheet by name; SheetIndex (1-based) is used
	// when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{DecimalSeparator: '.', SheetIndex: 1}
}

// Loader reads one file format into raw string records, header first.
type Loader interface {
	CanLoad(filename string) bool
	Records(r io.Reader, opt Options) ([][]string, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(delimitedLoader{ext: ".csv", comma: ','})
	Register(delimitedLoader{ext: ".tsv", comma: '\t'})
	Register(delimitedLoader{ext: ".txt", comma: '\t'})
	Register(xlsxLoader{})
}

// Load reads the file at path, choosing the format from its extension.
func Load(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	return LoadReader(f, filepath.Base(path), opt)
}

// LoadReader reads an already opened file. name supplies the extension, as an
// uploaded file handle would.
func LoadReader(r io.Reader, name string, opt Options) (*Table, error) {
	for _, l := range registry {
		if !l.CanLoad(name) {
			continue
		}
		records, err := l.Records(r, opt)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		t, err := fromRecords(records, opt)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		t.Name = name
		return t, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrUnsupported)
}

// LoadOrEmpty is Load that never fails: any error yields an empty table named
// after the file and is logged at warn level on the context logger.
func LoadOrEmpty(ctx context.Context, path string, opt Options) *Table {
	t, err := Load(path, opt)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("could not load table")
		return &Table{Name: filepath.Base(path)}
	}
	return t
}

func fromRecords(records [][]string, opt Options) (*Table, error) {
	if len(records) == 0 {
		return &Table{}, nil
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		header[i] = h
	}
	body := records[1:]
	for i, rec := range body {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+2, len(rec), len(header))
		}
	}
	cell := func(row, col int) string {
		if col < len(body[row]) {
			return body[row][col]
		}
		return ""
	}

	indexCol := -1
	if opt.IndexColumn != "" {
		for i, h := range header {
			if h == opt.IndexColumn {
				indexCol = i
				break
			}
		}
		if indexCol < 0 {
			return nil, fmt.Errorf("index column %q: %w", opt.IndexColumn, ErrUnknownLabel)
		}
	}

	t := &Table{Index: make([]string, len(body))}
	for r := range body {
		if indexCol >= 0 {
			t.Index[r] = cell(r, indexCol)
		} else {
			t.Index[r] = strconv.Itoa(r)
		}
	}
	for j, name := range header {
		if j == indexCol || name == unnamedIndex {
			continue
		}
		raw := make([]string, len(body))
		for r := range body {
			raw[r] = cell(r, j)
		}
		t.Columns = append(t.Columns, inferColumn(name, raw, opt.DecimalSeparator))
	}
	return t, nil
}

// inferColumn yields a numeric column when every non-empty cell parses as a
// number, otherwise a text column with the raw cells.
func inferColumn(name string, raw []string, dec rune) *Column {
	nums := make([]float64, len(raw))
	for i, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			nums[i] = math.NaN()
			continue
		}
		v, ok := parseNumber(s, dec)
		if !ok {
			return TextColumn(name, raw)
		}
		nums[i] = v
	}
	return NumericColumn(name, nums)
}

func parseNumber(s string, dec rune) (float64, bool) {
	if dec == ',' {
		if strings.Contains(s, ".") {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
