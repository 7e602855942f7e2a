package source

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
)

// Suppressed installation counts. The French statistic hides counts below
// three behind the letter "s".
const (
	frSuppressedCount  = "s"
	frSuppressedMarker = "< 3"
)

// frIndexColumns is the number of leading columns identifying a municipality
// (INSEE code, name).
const frIndexColumns = 2

// FRCrossTab is the French municipality × energy source statistic. Each data
// column belongs to an energy source group and carries one measure.
type FRCrossTab struct {
	Name     string
	Groups   []string // energy source per data column
	Measures []string // measure header per data column
	Rows     []FRMunicipality
}

// FRMunicipality is one row of the cross tabulation.
type FRMunicipality struct {
	Code  string
	Name  string
	Cells []string // aligned with Groups and Measures
}

// FRCell is one (municipality, energy source) pair of the stacked table.
type FRCell struct {
	Ordinal      int
	Code         string
	Municipality string
	EnergySource string
	Count        string
	Capacity     string
	CapacityInKW bool
}

// ParseFRSheet reads the two-level header of the French sheet: t.Header holds
// the energy source groups (merged cells, so only the first column of each
// group is filled), the first data row holds the measures.
func ParseFRSheet(t Table) (FRCrossTab, error) {
	if err := checkHeader(t); err != nil {
		return FRCrossTab{}, err
	}
	if len(t.Rows) == 0 || len(t.Header) <= frIndexColumns {
		return FRCrossTab{}, fmt.Errorf("%s: %w: two header rows", t.Name, ErrMissingColumn)
	}

	width := len(t.Header) - frIndexColumns
	x := FRCrossTab{
		Name:     t.Name,
		Groups:   make([]string, width),
		Measures: make([]string, width),
	}
	group := ""
	for i := range width {
		if g := strings.TrimSpace(t.Header[frIndexColumns+i]); g != "" {
			group = g
		}
		x.Groups[i] = group
		if j := frIndexColumns + i; j < len(t.Rows[0]) {
			x.Measures[i] = strings.TrimSpace(t.Rows[0][j])
		}
	}

	for _, raw := range t.Rows[1:] {
		if blank(raw) {
			continue
		}
		m := FRMunicipality{Cells: make([]string, width)}
		if len(raw) > 0 {
			m.Code = strings.TrimSpace(raw[0])
		}
		if len(raw) > 1 {
			m.Name = strings.TrimSpace(raw[1])
		}
		for i := range width {
			if j := frIndexColumns + i; j < len(raw) {
				m.Cells[i] = strings.TrimSpace(raw[j])
			}
		}
		x.Rows = append(x.Rows, m)
	}
	return x, nil
}

// Stack melts the cross tabulation into one cell per municipality and energy
// source, in row then group order. Pairs with neither count nor capacity are
// dropped.
func (x FRCrossTab) Stack(tr *domain.Translator) ([]FRCell, error) {
	type slot struct{ count, capacity int }
	var groups []string
	slots := make(map[string]*slot)
	inKW := false
	for i, g := range x.Groups {
		if g == "" {
			continue
		}
		s, ok := slots[g]
		if !ok {
			s = &slot{count: -1, capacity: -1}
			slots[g] = s
			groups = append(groups, g)
		}
		switch measure := tr.Column(domain.CountryFR, x.Measures[i]); measure {
		case colNumberOfInstallations:
			s.count = i
		case colElectricalCapacity:
			s.capacity = i
		case colElectricalCapacity + kWSuffix:
			s.capacity = i
			inKW = true
		}
	}
	for _, g := range groups {
		if slots[g].count < 0 && slots[g].capacity < 0 {
			return nil, fmt.Errorf("%s: %w: measures of %q", x.Name, ErrMissingColumn, g)
		}
	}

	var cells []FRCell
	ordinal := 0
	for _, m := range x.Rows {
		for _, g := range groups {
			s := slots[g]
			c := FRCell{Code: m.Code, Municipality: m.Name, EnergySource: g, CapacityInKW: inKW}
			if s.count >= 0 {
				c.Count = m.Cells[s.count]
			}
			if s.capacity >= 0 {
				c.Capacity = m.Cells[s.capacity]
			}
			if c.Count == "" && c.Capacity == "" {
				continue
			}
			ordinal++
			c.Ordinal = ordinal
			cells = append(cells, c)
		}
	}
	return cells, nil
}

// FR converts the French cross tabulation into records.
func FR(x FRCrossTab, tr *domain.Translator) ([]domain.Record, error) {
	cells, err := x.Stack(tr)
	if err != nil {
		return nil, fmt.Errorf("stack %s: %w", domain.SourceGouvFR, err)
	}

	out := make([]domain.Record, 0, len(cells))
	for _, c := range cells {
		out = append(out, frRecord(c, tr))
	}
	return out, nil
}

func frRecord(c FRCell, tr *domain.Translator) domain.Record {
	source, subtype := tr.HarmonizeEnergySource(domain.CountryFR, c.EnergySource)
	code := normalizeINSEE(c.Code)

	rec := domain.Record{
		ID:                  domain.NewRecordID(domain.CountryFR, domain.SourceGouvFR, c.Ordinal, code, c.EnergySource),
		Country:             domain.CountryFR,
		DataSource:          domain.SourceGouvFR,
		EnergySource:        source,
		EnergySourceSubtype: subtype,
		Municipality:        c.Municipality,
		MunicipalityCode:    code,
	}

	capacity := domain.ParseNumber(c.Capacity, domain.PointDecimal)
	if c.CapacityInKW {
		capacity = domain.KWToMW(capacity)
	}
	rec.ElectricalCapacity = capacity

	if strings.EqualFold(c.Count, frSuppressedCount) {
		rec.InstallationCountMarker = frSuppressedMarker
	} else {
		rec.NumberOfInstallations = domain.ParseCount(c.Count, domain.PointDecimal)
	}
	return rec
}

// normalizeINSEE restores the leading zero spreadsheets strip from numeric
// INSEE municipality codes ("1001" → "01001").
func normalizeINSEE(code string) string {
	code = strings.TrimSpace(code)
	code = strings.TrimSuffix(code, ".0")
	if len(code) == 4 && strings.Trim(code, "0123456789") == "" {
		return "0" + code
	}
	return code
}
