package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func plant(source, subtype string, capacity float64, commissioned time.Time) domain.Record {
	return domain.Record{
		Country:             domain.CountryDE,
		EnergySource:        source,
		EnergySourceSubtype: subtype,
		ElectricalCapacity:  domain.Ptr(capacity),
		CommissioningDate:   domain.Ptr(commissioned),
	}
}

func TestSplit(t *testing.T) {
	in := []domain.Record{
		{ID: "a"},
		{ID: "b", Comment: []string{"R_2"}},
		{ID: "c"},
	}

	clean, suspect := Split(in)

	require.Len(t, clean, 2)
	require.Len(t, suspect, 1)
	assert.Equal(t, "a", clean[0].ID)
	assert.Equal(t, "c", clean[1].ID)
	assert.Equal(t, "b", suspect[0].ID)
}

func TestCategoryOf(t *testing.T) {
	cats := DefaultCategories()

	tests := []struct {
		rec  domain.Record
		want string
	}{
		{domain.Record{EnergySource: "Wind", EnergySourceSubtype: "Wind onshore"}, "wind_onshore"},
		{domain.Record{EnergySource: "Wind", EnergySourceSubtype: "Wind offshore"}, "wind_offshore"},
		{domain.Record{EnergySource: "Solar", EnergySourceSubtype: "Photovoltaics"}, "solar"},
		{domain.Record{EnergySource: "Biomass", EnergySourceSubtype: "Biogas"}, "biomass"},
	}
	for _, tt := range tests {
		i := CategoryOf(tt.rec, cats)
		require.GreaterOrEqual(t, i, 0, tt.want)
		assert.Equal(t, tt.want, cats[i].Name)
	}

	assert.Equal(t, -1, CategoryOf(domain.Record{EnergySource: "Wind"}, cats), "wind without subtype has no column")
	assert.Equal(t, -1, CategoryOf(domain.Record{EnergySource: "Storage"}, cats))
}

func TestFilterCountry(t *testing.T) {
	in := []domain.Record{{ID: "1", Country: domain.CountryDE}, {ID: "2", Country: domain.CountryDK}}
	assert.Len(t, FilterCountry(in, ""), 2)
	got := FilterCountry(in, domain.CountryDK)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestGrids(t *testing.T) {
	daily := DailyGrid(day(2015, 12, 30), day(2016, 1, 2))
	assert.Equal(t, Daily, daily.Granularity)
	assert.Equal(t, []time.Time{day(2015, 12, 30), day(2015, 12, 31), day(2016, 1, 1), day(2016, 1, 2)}, daily.Points)

	yearly := YearlyGrid(2013, 2015)
	assert.Equal(t, []time.Time{day(2013, 12, 31), day(2014, 12, 31), day(2015, 12, 31)}, yearly.Points)
}

func TestCumulate(t *testing.T) {
	cats := []Category{
		{Name: "solar", EnergySource: "Solar"},
		{Name: "wind_onshore", EnergySource: "Wind", Subtype: "Wind onshore"},
	}
	retired := plant("Wind", "Wind onshore", 2.0, day(2015, 1, 2))
	retired.DecommissioningDate = domain.Ptr(day(2015, 1, 4))
	records := []domain.Record{
		plant("Solar", "Photovoltaics", 0.5, day(2015, 1, 2)),
		plant("Solar", "Photovoltaics", 0.25, day(2015, 1, 4)),
		plant("Solar", "Photovoltaics", 1.0, day(2010, 6, 1)),
		retired,
		{EnergySource: "Solar", ElectricalCapacity: domain.Ptr(9.0)}, // no date
		{EnergySource: "Solar", CommissioningDate: domain.Ptr(day(2015, 1, 1))},
	}

	ts := Cumulate(records, cats, DailyGrid(day(2015, 1, 1), day(2015, 1, 5)))

	assert.Equal(t, []string{"solar", "wind_onshore"}, ts.Columns)
	assert.Equal(t, []float64{1.0, 1.5, 1.5, 1.75, 1.75}, ts.Column("solar"), "history before the grid is carried in")
	assert.Equal(t, []float64{0, 2, 2, 0, 0}, ts.Column("wind_onshore"))
	assert.Nil(t, ts.Column("hydro"))

	values, ok := ts.At(day(2015, 1, 4))
	require.True(t, ok)
	assert.Equal(t, []float64{1.75, 0}, values)
}

func TestCumulate_Deterministic(t *testing.T) {
	records := []domain.Record{
		plant("Solar", "", 0.1, day(2014, 3, 1)),
		plant("Solar", "", 0.2, day(2014, 2, 1)),
		plant("Hydro", "", 3, day(1990, 1, 1)),
	}
	grid := YearlyGrid(2012, 2015)

	a := Cumulate(records, DefaultCategories(), grid)
	b := Cumulate([]domain.Record{records[2], records[0], records[1]}, DefaultCategories(), grid)

	assert.Equal(t, a, b)
	assert.InDelta(t, 0.3, a.Column("solar")[2], 1e-12)
}

func TestCompare(t *testing.T) {
	yearly := TimeSeries{
		Grid:    YearlyGrid(2014, 2015),
		Columns: []string{"biomass", "gas", "solar", "unmapped"},
		Values: [][]float64{
			{10, 2, 100, 1},
			{12, 3, 110, 1},
		},
	}
	ref := Reference{
		2015: {"biomass": 8, "biomass_liquid": 1, "biomass_gas": 1, "sewage_gas": 0, "landfill_gas": 0, "solar": 100, "total": 120},
	}
	mapping := DefaultReferenceMapping()

	got := Compare(yearly, ref, mapping)

	assert.Equal(t, []Deviation{
		{Year: 2015, Category: "biomass", Computed: 12, Reference: 10, Absolute: 2, Relative: 0.2},
		{Year: 2015, Category: "gas", Computed: 3, Reference: 0, Absolute: 3, Relative: 0},
		{Year: 2015, Category: "solar", Computed: 110, Reference: 100, Absolute: 10, Relative: 0.1},
		{Year: 2015, Category: "total", Computed: 126, Reference: 120, Absolute: 6, Relative: 0.05},
	}, got)
}

func TestBuild(t *testing.T) {
	dk := plant("Solar", "Photovoltaics", 5, day(2015, 6, 1))
	dk.Country = domain.CountryDK
	flagged := plant("Solar", "Photovoltaics", 7, day(2015, 6, 1))
	flagged.Comment = []string{"R_1"}
	records := []domain.Record{
		plant("Solar", "Photovoltaics", 0.5, day(2015, 3, 1)),
		flagged,
		dk,
	}

	out := Build(records, Options{
		Country:    domain.CountryDE,
		Categories: DefaultCategories(),
		Daily:      DailyGrid(day(2015, 12, 31), day(2015, 12, 31)),
		Yearly:     YearlyGrid(2015, 2015),
		Reference:  Reference{2015: {"solar": 0.5, "total": 1}},
		Mapping:    DefaultReferenceMapping(),
	})

	assert.Len(t, out.Records, 3, "master table keeps suspect records")
	assert.Equal(t, 2, out.Clean)
	assert.Equal(t, 1, out.Suspect)
	assert.Equal(t, []float64{0.5}, out.Yearly.Column("solar"), "flagged and foreign records excluded")
	assert.Equal(t, []float64{0.5}, out.Daily.Column("solar"))
	require.NotEmpty(t, out.Deviations)
	last := out.Deviations[len(out.Deviations)-1]
	assert.Equal(t, TotalCategory, last.Category)
	assert.Equal(t, -0.5, last.Absolute)
}
