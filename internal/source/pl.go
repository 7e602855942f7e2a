package source

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
)

// PLInput is the decoded text of the Polish RTF report.
type PLInput struct {
	Document string
}

type plGroup struct {
	district, energySource, subtype string
}

type plTotals struct {
	capacity    decimal.Decimal
	hasCapacity bool
	count       int
	hasCount    bool
}

// PL converts the Polish report into one record per district, energy source
// and subtype, summing capacity and installation count over the report rows
// of each group. Records are returned sorted by district, energy source and
// subtype. A report without any parsable district block is an error.
func PL(in PLInput, tr *domain.Translator) ([]domain.Record, error) {
	rows := ScanReport(in.Document)
	if len(rows) == 0 {
		return nil, fmt.Errorf("decode %s: %w", domain.SourceURE, ErrEmptySource)
	}

	totals := make(map[plGroup]*plTotals)
	for _, row := range rows {
		source, subtype := tr.HarmonizeEnergySource(domain.CountryPL, row.Label)
		g := plGroup{district: row.District, energySource: source, subtype: subtype}
		t, ok := totals[g]
		if !ok {
			t = &plTotals{}
			totals[g] = t
		}
		if c := domain.ParseNumber(row.Capacity, domain.GroupedPoint); c != nil {
			t.capacity = t.capacity.Add(decimal.NewFromFloat(*c))
			t.hasCapacity = true
		}
		if n := domain.ParseCount(row.Count, domain.GroupedPoint); n != nil {
			t.count += *n
			t.hasCount = true
		}
	}

	groups := make([]plGroup, 0, len(totals))
	for g := range totals {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b plGroup) int {
		return cmp.Or(
			cmp.Compare(a.district, b.district),
			cmp.Compare(a.energySource, b.energySource),
			cmp.Compare(a.subtype, b.subtype),
		)
	})

	out := make([]domain.Record, 0, len(groups))
	for i, g := range groups {
		t := totals[g]
		rec := domain.Record{
			ID:                  domain.NewRecordID(domain.CountryPL, domain.SourceURE, i+1, g.district, g.energySource, g.subtype),
			Country:             domain.CountryPL,
			DataSource:          domain.SourceURE,
			District:            g.district,
			EnergySource:        g.energySource,
			EnergySourceSubtype: g.subtype,
		}
		if t.hasCapacity {
			rec.ElectricalCapacity = domain.Ptr(t.capacity.InexactFloat64())
		}
		if t.hasCount {
			rec.NumberOfInstallations = domain.Ptr(t.count)
		}
		out = append(out, rec)
	}
	return out, nil
}
