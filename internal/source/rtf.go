package source

import (
	"strconv"
	"strings"
)

// Tokens of the Polish RTF report. The report is a sequence of district
// blocks separated by a line break paragraph; each block starts with a
// "Powiat: <name>}" heading followed by table rows separated by \trql. A
// table cell is
//
//	\pard \intbl \q<l|r> \cbpat<N> {\fs12 \f1 <text>}
//
// Left-aligned cells are installation type labels, right-aligned cells are
// values. The k-th label of a row owns values 2k (count) and 2k+1 (capacity).
const (
	rtfBlockSeparator = `{\fs12 \f1 \line }`
	rtfRowSeparator   = `\trql`
	rtfDistrictMarker = "Powiat:"
	rtfCellMarker     = `\pard \intbl \q`
	rtfPatternMarker  = `\cbpat`
	rtfTextOpen       = `{\fs12 \f1 `
)

// Background patterns of label and value cells. Header cells use others.
var (
	rtfLabelPatterns = []int{2, 3, 4}
	rtfValuePatterns = []int{3, 4}
)

// rtfEscapes repairs the Unicode escapes the report leaves in district names.
// Each escape may be followed by a space that belongs to it.
var rtfEscapes = func() *strings.Replacer {
	table := []struct{ escape, char string }{
		{`\uc0\u322`, "ł"},
		{`\uc0\u380`, "ż"},
		{`\uc0\u243`, "ó"},
		{`\uc0\u347`, "ś"},
		{`\uc0\u324`, "ń"},
		{`\uc0\u261`, "ą"},
		{`\uc0\u281`, "ę"},
		{`\uc0\u263`, "ć"},
		{`\uc0\u321`, "Ł"},
		{`\uc0\u378`, "ź"},
		{`\uc0\u346`, "Ś"},
		{`\uc0\u379`, "Ż"},
	}
	pairs := make([]string, 0, len(table)*4)
	for _, e := range table {
		pairs = append(pairs, e.escape+" ", e.char)
	}
	for _, e := range table {
		pairs = append(pairs, e.escape, e.char)
	}
	return strings.NewReplacer(pairs...)
}()

// PLRow is one installation type of one district as printed in the report.
type PLRow struct {
	District string
	Label    string
	Count    string
	Capacity string
}

type rtfCell struct {
	align   byte
	pattern int
	text    string
}

// RepairEscapes replaces the known Polish Unicode escapes with their letters.
func RepairEscapes(s string) string {
	return rtfEscapes.Replace(s)
}

// ScanReport extracts the (district, label, count, capacity) rows of the
// report. Blocks without a district heading and rows without values are
// skipped.
func ScanReport(doc string) []PLRow {
	var rows []PLRow
	for _, block := range strings.Split(doc, rtfBlockSeparator) {
		district, ok := scanDistrict(block)
		if !ok {
			continue
		}
		for _, segment := range strings.Split(block, rtfRowSeparator) {
			rows = append(rows, pairCells(district, scanCells(segment))...)
		}
	}
	return rows
}

func scanDistrict(block string) (string, bool) {
	i := strings.Index(block, rtfDistrictMarker)
	if i < 0 {
		return "", false
	}
	rest := block[i+len(rtfDistrictMarker):]
	end := strings.IndexByte(rest, '}')
	if end < 0 {
		return "", false
	}
	name := strings.TrimSpace(RepairEscapes(rest[:end]))
	return name, name != ""
}

func scanCells(segment string) []rtfCell {
	var cells []rtfCell
	rest := segment
	for {
		i := strings.Index(rest, rtfCellMarker)
		if i < 0 || i+len(rtfCellMarker) >= len(rest) {
			return cells
		}
		rest = rest[i+len(rtfCellMarker):]
		cell := rtfCell{align: rest[0], pattern: -1}

		open := strings.Index(rest, rtfTextOpen)
		if open < 0 {
			return cells
		}
		if p := strings.Index(rest[:open], rtfPatternMarker); p >= 0 {
			cell.pattern = leadingInt(rest[p+len(rtfPatternMarker) : open])
		}

		body := rest[open+len(rtfTextOpen):]
		end := strings.IndexByte(body, '}')
		if end < 0 {
			return cells
		}
		cell.text = strings.TrimSpace(RepairEscapes(body[:end]))
		cells = append(cells, cell)
		rest = body[end+1:]
	}
}

// pairCells assigns values to labels by position. A row with fewer values
// than its labels need yields only the complete pairs.
func pairCells(district string, cells []rtfCell) []PLRow {
	var labels, values []string
	for _, c := range cells {
		switch {
		case c.align == 'l' && hasPattern(rtfLabelPatterns, c.pattern):
			labels = append(labels, c.text)
		case c.align == 'r' && hasPattern(rtfValuePatterns, c.pattern):
			values = append(values, c.text)
		}
	}

	var rows []PLRow
	for k, label := range labels {
		if 2*k+1 >= len(values) {
			break
		}
		rows = append(rows, PLRow{
			District: district,
			Label:    label,
			Count:    values[2*k],
			Capacity: values[2*k+1],
		})
	}
	return rows
}

func hasPattern(patterns []int, p int) bool {
	for _, want := range patterns {
		if p == want {
			return true
		}
	}
	return false
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return -1
	}
	return n
}
