package table

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadCSVDropsUnnamedIndex(t *testing.T) {
	p := writeFile(t, "ft.csv", ",row ID,a.mzML Peak area,note\n0,1,10,x\n1,2,,y\n")
	tb, err := Load(p, DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := tb.ColumnNames(); !reflect.DeepEqual(got, []string{"row ID", "a.mzML Peak area", "note"}) {
		t.Fatalf("columns = %v", got)
	}
	if !reflect.DeepEqual(tb.Index, []string{"0", "1"}) {
		t.Fatalf("index = %v", tb.Index)
	}
	c, _ := tb.Column("a.mzML Peak area")
	if c.Kind != KindNumeric || c.Num[0] != 10 || !math.IsNaN(c.Num[1]) {
		t.Fatalf("intensity column = %+v", c)
	}
	note, _ := tb.Column("note")
	if note.Kind != KindText {
		t.Fatalf("note kind = %s", note.Kind)
	}
	if tb.Name != "ft.csv" {
		t.Fatalf("name = %q", tb.Name)
	}
}

func TestLoadTSVAndTXTWithIndexColumn(t *testing.T) {
	for _, name := range []string{"md.tsv", "md.txt"} {
		t.Run(name, func(t *testing.T) {
			p := writeFile(t, name, "filename\tSample Type\tdose\ns1.mzML\tBlank\t0\ns2.mzML\tsample\t2.5\n")
			opt := DefaultOptions()
			opt.IndexColumn = "filename"
			tb, err := Load(p, opt)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !reflect.DeepEqual(tb.Index, []string{"s1.mzML", "s2.mzML"}) {
				t.Fatalf("index = %v", tb.Index)
			}
			if got := tb.ColumnNames(); !reflect.DeepEqual(got, []string{"Sample Type", "dose"}) {
				t.Fatalf("columns = %v", got)
			}
			dose, _ := tb.Column("dose")
			if dose.Kind != KindNumeric || dose.Num[1] != 2.5 {
				t.Fatalf("dose = %+v", dose)
			}
		})
	}
}

func TestLoadDecimalComma(t *testing.T) {
	p := writeFile(t, "x.tsv", "id\tv\na\t1,5\nb\t2\n")
	opt := DefaultOptions()
	opt.DecimalSeparator = ','
	tb, err := Load(p, opt)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	v, _ := tb.Column("v")
	if v.Kind != KindNumeric || v.Num[0] != 1.5 {
		t.Fatalf("v = %+v", v)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(writeFile(t, "x.json", "{}"), DefaultOptions()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv"), DefaultOptions()); err == nil {
		t.Fatalf("expected error for missing file")
	}
	opt := DefaultOptions()
	opt.IndexColumn = "nope"
	if _, err := Load(writeFile(t, "a.csv", "a,b\n1,2\n"), opt); !errors.Is(err, ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}
	if _, err := Load(writeFile(t, "wide.csv", "a,b\n1,2,3\n"), DefaultOptions()); err == nil {
		t.Fatalf("expected error for over-long row")
	}
}

func TestLoadOrEmpty(t *testing.T) {
	ctx := context.Background()
	tb := LoadOrEmpty(ctx, writeFile(t, "broken.xlsx", "not a zip"), DefaultOptions())
	if !tb.Empty() {
		t.Fatalf("expected empty table, got %s", tb.Summary())
	}
	tb = LoadOrEmpty(ctx, writeFile(t, "ok.csv", "a,b\n1,2\n"), DefaultOptions())
	if tb.Empty() {
		t.Fatalf("expected loaded table")
	}
}

// buildXLSX assembles a minimal workbook with a single sheet named "Data".
func buildXLSX(t *testing.T, sheetRows string, shared []string) []byte {
	t.Helper()
	var sst strings.Builder
	sst.WriteString(`<?xml version="1.0" encoding="UTF-8"?><sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">`)
	for _, s := range shared {
		sst.WriteString("<si><t>" + s + "</t></si>")
	}
	sst.WriteString("</sst>")
	files := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Data" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="/xl/worksheets/sheet1.xml"/></Relationships>`,
		"xl/sharedStrings.xml": sst.String(),
		"xl/worksheets/sheet1.xml": `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>` + sheetRows + `</sheetData></worksheet>`,
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestLoadXLSX(t *testing.T) {
	rows := `<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="inlineStr"><is><t>group</t></is></c></row>` +
		`<row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>12.5</v></c><c r="C2" t="inlineStr"><is><t>ctrl</t></is></c></row>` +
		`<row r="3"><c r="A3" t="s"><v>3</v></c><c r="C3" t="inlineStr"><is><t>treat</t></is></c></row>`
	data := buildXLSX(t, rows, []string{"filename", "intensity", "s1.mzML", "s2.mzML"})
	p := filepath.Join(t.TempDir(), "md.xlsx")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	opt := DefaultOptions()
	opt.IndexColumn = "filename"
	tb, err := Load(p, opt)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(tb.Index, []string{"s1.mzML", "s2.mzML"}) {
		t.Fatalf("index = %v", tb.Index)
	}
	in, _ := tb.Column("intensity")
	if in.Kind != KindNumeric || in.Num[0] != 12.5 || !math.IsNaN(in.Num[1]) {
		t.Fatalf("intensity = %+v", in)
	}
	g, _ := tb.Column("group")
	if !reflect.DeepEqual(g.Text, []string{"ctrl", "treat"}) {
		t.Fatalf("group = %v", g.Text)
	}

	opt.SheetName = "Other"
	if _, err := Load(p, opt); err == nil || !strings.Contains(err.Error(), "available sheets: Data") {
		t.Fatalf("expected missing sheet error, got %v", err)
	}
}

func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet2.xml", "xl/worksheets/sheet2.xml"},
	}
	for _, tt := range tests {
		if got := normalizeRelPath(tt.input); got != tt.expected {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestColIndexFromRef(t *testing.T) {
	cases := map[string]int{"A1": 0, "C12": 2, "Z3": 25, "AA1": 26, "12": -1}
	for ref, want := range cases {
		if got := colIndexFromRef(ref); got != want {
			t.Errorf("colIndexFromRef(%q) = %d, want %d", ref, got, want)
		}
	}
}
