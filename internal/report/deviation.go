package report

import (
	"github.com/shopspring/decimal"
)

// TotalCategory names the deviation row comparing the sum of all categories.
const TotalCategory = "total"

// Reference is an external yearly statistic of cumulated capacity in MW,
// keyed by year and reference column.
type Reference map[int]map[string]float64

// ReferenceMapping lists the reference columns whose sum a category is
// compared against. The TotalCategory entry maps the overall total.
type ReferenceMapping map[string][]string

// DefaultReferenceMapping follows the layout of the German federal ministry
// statistic, which splits biomass into solid, liquid and gaseous and lists
// sewage and landfill gas separately.
func DefaultReferenceMapping() ReferenceMapping {
	return ReferenceMapping{
		"hydro":         {"hydro"},
		"wind_onshore":  {"wind_onshore"},
		"wind_offshore": {"wind_offshore"},
		"solar":         {"solar"},
		"biomass":       {"biomass", "biomass_liquid", "biomass_gas"},
		"gas":           {"sewage_gas", "landfill_gas"},
		"geothermal":    {"geothermal"},
		TotalCategory:   {"total"},
	}
}

// Deviation compares computed and reference capacity of one category in one
// year. Absolute is computed minus reference; Relative is Absolute divided by
// the reference, or zero when the reference is zero.
type Deviation struct {
	Year      int
	Category  string
	Computed  float64
	Reference float64
	Absolute  float64
	Relative  float64
}

// Compare evaluates the yearly series against the reference for every year
// the reference covers. Rows are ordered by year, then by series column, then
// the total. Categories without a mapping are skipped; missing reference
// values count as zero.
func Compare(yearly TimeSeries, ref Reference, mapping ReferenceMapping) []Deviation {
	var out []Deviation
	for i, p := range yearly.Grid.Points {
		year := p.Year()
		refYear, ok := ref[year]
		if !ok {
			continue
		}

		total := decimal.Zero
		for j, name := range yearly.Columns {
			computed := decimal.NewFromFloat(yearly.Values[i][j])
			total = total.Add(computed)
			cols, ok := mapping[name]
			if !ok {
				continue
			}
			out = append(out, deviation(year, name, computed, sumColumns(refYear, cols)))
		}
		if cols, ok := mapping[TotalCategory]; ok {
			out = append(out, deviation(year, TotalCategory, total, sumColumns(refYear, cols)))
		}
	}
	return out
}

func deviation(year int, category string, computed, reference decimal.Decimal) Deviation {
	absolute := computed.Sub(reference)
	relative := decimal.Zero
	if !reference.IsZero() {
		relative = absolute.Div(reference)
	}
	return Deviation{
		Year:      year,
		Category:  category,
		Computed:  computed.InexactFloat64(),
		Reference: reference.InexactFloat64(),
		Absolute:  absolute.InexactFloat64(),
		Relative:  relative.InexactFloat64(),
	}
}

func sumColumns(values map[string]float64, cols []string) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range cols {
		sum = sum.Add(decimal.NewFromFloat(values[c]))
	}
	return sum
}
