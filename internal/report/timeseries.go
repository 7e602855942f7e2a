package report

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
)

// Granularity of a time grid.
type Granularity string

const (
	Daily  Granularity = "daily"
	Yearly Granularity = "yearly"
)

// Grid is the ordered set of instants a time series is sampled at.
type Grid struct {
	Granularity Granularity
	Points      []time.Time
}

// DailyGrid returns every day from start to end inclusive, at midnight UTC.
func DailyGrid(start, end time.Time) Grid {
	g := Grid{Granularity: Daily}
	start = truncateDay(start)
	end = truncateDay(end)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		g.Points = append(g.Points, d)
	}
	return g
}

// YearlyGrid returns the last day of each year from firstYear to lastYear.
func YearlyGrid(firstYear, lastYear int) Grid {
	g := Grid{Granularity: Yearly}
	for y := firstYear; y <= lastYear; y++ {
		g.Points = append(g.Points, time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC))
	}
	return g
}

// TimeSeries holds cumulated capacity in MW per category at each grid point.
// Values[i][j] is category Columns[j] at Grid.Points[i].
type TimeSeries struct {
	Grid    Grid
	Columns []string
	Values  [][]float64
}

// Column returns the series of one category, or nil when unknown.
func (ts TimeSeries) Column(name string) []float64 {
	j := slices.Index(ts.Columns, name)
	if j < 0 {
		return nil
	}
	out := make([]float64, len(ts.Values))
	for i := range ts.Values {
		out[i] = ts.Values[i][j]
	}
	return out
}

// At returns the values at the grid point equal to t.
func (ts TimeSeries) At(t time.Time) ([]float64, bool) {
	for i, p := range ts.Grid.Points {
		if p.Equal(t) {
			return ts.Values[i], true
		}
	}
	return nil, false
}

type event struct {
	at    time.Time
	delta decimal.Decimal
}

// Cumulate builds the installed capacity of each category over the grid.
// A record adds its capacity from its commissioning date on and removes it
// again from its decommissioning date on. Each grid point carries the sum of
// all changes up to and including that day, so days without changes repeat
// the previous value and days before the first change are zero. Records
// without capacity, commissioning date or category are ignored.
func Cumulate(records []domain.Record, categories []Category, grid Grid) TimeSeries {
	events := make([][]event, len(categories))
	for i := range records {
		rec := records[i]
		if rec.ElectricalCapacity == nil || rec.CommissioningDate == nil {
			continue
		}
		j := CategoryOf(rec, categories)
		if j < 0 {
			continue
		}
		capacity := decimal.NewFromFloat(*rec.ElectricalCapacity)
		events[j] = append(events[j], event{at: truncateDay(*rec.CommissioningDate), delta: capacity})
		if rec.DecommissioningDate != nil {
			events[j] = append(events[j], event{at: truncateDay(*rec.DecommissioningDate), delta: capacity.Neg()})
		}
	}

	ts := TimeSeries{Grid: grid, Columns: make([]string, len(categories)), Values: make([][]float64, len(grid.Points))}
	for j, c := range categories {
		ts.Columns[j] = c.Name
	}
	for i := range ts.Values {
		ts.Values[i] = make([]float64, len(categories))
	}

	for j := range categories {
		evs := events[j]
		slices.SortStableFunc(evs, func(a, b event) int { return a.at.Compare(b.at) })

		sum := decimal.Zero
		k := 0
		for i, p := range grid.Points {
			for k < len(evs) && !evs[k].at.After(p) {
				sum = sum.Add(evs[k].delta)
				k++
			}
			ts.Values[i][j] = sum.InexactFloat64()
		}
	}
	return ts
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
