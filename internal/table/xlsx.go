package table

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Records reads the selected worksheet of an XLSX workbook. Only cell values
// are read; formulas contribute their cached result.
func (xlsxLoader) Records(r io.Reader, opt Options) ([][]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	var wb workbookXML
	if err := unmarshalZipEntry(zr, "xl/workbook.xml", &wb); err != nil {
		return nil, err
	}
	var rels relationshipsXML
	if err := unmarshalZipEntry(zr, "xl/_rels/workbook.xml.rels", &rels); err != nil {
		return nil, err
	}
	var sst sharedStringsXML
	if zipEntry(zr, "xl/sharedStrings.xml") != nil {
		if err := unmarshalZipEntry(zr, "xl/sharedStrings.xml", &sst); err != nil {
			return nil, err
		}
	}

	target, err := resolveSheet(wb, rels, opt)
	if err != nil {
		return nil, err
	}
	f := zipEntry(zr, target)
	if f == nil {
		return nil, fmt.Errorf("worksheet %s missing from archive", target)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target, err)
	}
	defer rc.Close()
	return readSheetRows(xml.NewDecoder(rc), sst.strings())
}

type workbookXML struct {
	Sheets []struct {
		Name    string `xml:"name,attr"`
		SheetID int    `xml:"sheetId,attr"`
		RID     string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type sharedStringsXML struct {
	Items []struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

func (s sharedStringsXML) strings() []string {
	out := make([]string, len(s.Items))
	for i, it := range s.Items {
		if len(it.Runs) == 0 {
			out[i] = it.T
			continue
		}
		var b strings.Builder
		for _, r := range it.Runs {
			b.WriteString(r.T)
		}
		out[i] = b.String()
	}
	return out
}

// resolveSheet maps the requested sheet (by name, else by 1-based index) to
// its path inside the archive.
func resolveSheet(wb workbookXML, rels relationshipsXML, opt Options) (string, error) {
	targets := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		targets[r.ID] = r.Target
	}
	if opt.SheetName != "" {
		names := make([]string, 0, len(wb.Sheets))
		for _, s := range wb.Sheets {
			if strings.EqualFold(s.Name, opt.SheetName) {
				if t, ok := targets[s.RID]; ok {
					return normalizeRelPath(t), nil
				}
			}
			names = append(names, s.Name)
		}
		return "", fmt.Errorf("sheet %q not found; available sheets: %s", opt.SheetName, strings.Join(names, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx <= len(wb.Sheets) {
		if t, ok := targets[wb.Sheets[idx-1].RID]; ok {
			return normalizeRelPath(t), nil
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", idx), nil
}

// readSheetRows streams <row> elements, placing each cell by its reference so
// that sparse rows keep their column positions.
func readSheetRows(dec *xml.Decoder, shared []string) ([][]string, error) {
	var rows [][]string
	var cur []string
	var cellRef, cellType string
	var inValue bool
	var value strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode worksheet: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "row":
				cur = nil
			case "c":
				cellRef, cellType = "", ""
				value.Reset()
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "r":
						cellRef = a.Value
					case "t":
						cellType = a.Value
					}
				}
			case "v", "t":
				inValue = true
			}
		case xml.CharData:
			if inValue {
				value.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "v", "t":
				inValue = false
			case "c":
				col := colIndexFromRef(cellRef)
				if col < 0 {
					col = len(cur)
				}
				for len(cur) <= col {
					cur = append(cur, "")
				}
				cur[col] = cellText(value.String(), cellType, shared)
			case "row":
				rows = append(rows, cur)
			}
		}
	}
}

func cellText(v, cellType string, shared []string) string {
	switch cellType {
	case "s":
		idx := atoiSafe(v)
		if idx >= 0 && idx < len(shared) {
			return shared[idx]
		}
		return ""
	case "b":
		if v == "1" {
			return "TRUE"
		}
		return "FALSE"
	}
	return v
}

func zipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func unmarshalZipEntry(zr *zip.Reader, name string, v any) error {
	f := zipEntry(zr, name)
	if f == nil {
		return fmt.Errorf("%s missing from archive", name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// colIndexFromRef turns a cell reference like "C12" into a 0-based column
// index, or -1 when the reference has no column letters.
func colIndexFromRef(ref string) int {
	idx := 0
	n := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			break
		}
		idx = idx*26 + int(c-'A'+1)
		n++
	}
	if n == 0 {
		return -1
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			if i == 0 {
				return -1
			}
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath maps a workbook relationship target to its archive path.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
