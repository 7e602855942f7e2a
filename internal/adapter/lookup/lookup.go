// Package lookup loads the auxiliary tables the pipeline needs besides the
// registries: the column and value translation tables, the postcode and
// municipality centroids and the reference statistic.
package lookup

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/adapter/tabular"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/source"
)

// ErrMalformed is returned for lookup tables missing a required column.
var ErrMalformed = errors.New("malformed lookup table")

// Translation table columns.
const (
	colCountry      = "country"
	colOriginal     = "original_name"
	colCanonical    = "opsd_name"
	colEnergySource = "energy_source"
)

// Centroid table columns. A table carries either lat and lon or one combined
// "Geo Point" column holding "lat, lon".
const (
	colLat      = "lat"
	colLon      = "lon"
	colGeoPoint = "Geo Point"
	colYear     = "year"
)

// CentroidSpec describes one centroid table.
type CentroidSpec struct {
	Path    string
	Country domain.Country
	KeyCol  string
	Options tabular.Options
}

// ColumnEntries loads the column translation table.
func ColumnEntries(path string) ([]domain.ColumnEntry, error) {
	t, err := tabular.ReadCSV(path, tabular.Options{})
	if err != nil {
		return nil, err
	}
	idx, err := index(t, colCountry, colOriginal, colCanonical)
	if err != nil {
		return nil, err
	}

	var out []domain.ColumnEntry
	for _, row := range t.Rows {
		e := domain.ColumnEntry{
			Country:   domain.Country(cell(row, idx[colCountry])),
			Original:  cell(row, idx[colOriginal]),
			Canonical: cell(row, idx[colCanonical]),
		}
		if e.Original == "" || e.Canonical == "" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ValueEntries loads the value translation table. The energy_source column
// is optional.
func ValueEntries(path string) ([]domain.ValueEntry, error) {
	t, err := tabular.ReadCSV(path, tabular.Options{})
	if err != nil {
		return nil, err
	}
	idx, err := index(t, colCountry, colOriginal, colCanonical)
	if err != nil {
		return nil, err
	}
	parent := slices.Index(t.Header, colEnergySource)

	var out []domain.ValueEntry
	for _, row := range t.Rows {
		e := domain.ValueEntry{
			Country:   domain.Country(cell(row, idx[colCountry])),
			Original:  cell(row, idx[colOriginal]),
			Canonical: cell(row, idx[colCanonical]),
		}
		if e.Original == "" || e.Canonical == "" {
			continue
		}
		if parent >= 0 {
			e.EnergySource = cell(row, parent)
		}
		out = append(out, e)
	}
	return out, nil
}

// Centroids loads a centroid table. Rows with unparsable coordinates are
// skipped.
func Centroids(spec CentroidSpec) ([]domain.CentroidEntry, error) {
	tables, err := tabular.Read(spec.Path, spec.Options)
	if err != nil {
		return nil, err
	}

	var out []domain.CentroidEntry
	for _, t := range tables {
		entries, err := centroids(t, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

func centroids(t source.Table, spec CentroidSpec) ([]domain.CentroidEntry, error) {
	key := slices.Index(t.Header, spec.KeyCol)
	if key < 0 {
		return nil, fmt.Errorf("%s: %w: no column %q", t.Name, ErrMalformed, spec.KeyCol)
	}
	lat, lon := slices.Index(t.Header, colLat), slices.Index(t.Header, colLon)
	geo := slices.Index(t.Header, colGeoPoint)
	if (lat < 0 || lon < 0) && geo < 0 {
		return nil, fmt.Errorf("%s: %w: no coordinate columns", t.Name, ErrMalformed)
	}

	var out []domain.CentroidEntry
	for _, row := range t.Rows {
		var p domain.Point
		var ok bool
		if lat >= 0 && lon >= 0 {
			p, ok = point(cell(row, lat), cell(row, lon))
		} else {
			a, b, found := strings.Cut(cell(row, geo), ",")
			ok = found
			if ok {
				p, ok = point(a, b)
			}
		}
		if !ok {
			continue
		}
		out = append(out, domain.CentroidEntry{Country: spec.Country, Key: cell(row, key), Point: p})
	}
	return out, nil
}

// Reference loads the yearly reference statistic: a year column followed by
// one numeric column per category. Missing values count as zero.
func Reference(path string) (report.Reference, error) {
	t, err := tabular.ReadCSV(path, tabular.Options{})
	if err != nil {
		return nil, err
	}
	year := slices.Index(t.Header, colYear)
	if year < 0 {
		return nil, fmt.Errorf("%s: %w: no column %q", t.Name, ErrMalformed, colYear)
	}

	ref := make(report.Reference, len(t.Rows))
	for _, row := range t.Rows {
		y, err := strconv.Atoi(cell(row, year))
		if err != nil {
			continue
		}
		values := make(map[string]float64, len(t.Header)-1)
		for i, name := range t.Header {
			if i == year {
				continue
			}
			if v := domain.ParseNumber(cell(row, i), domain.PointDecimal); v != nil {
				values[strings.TrimSpace(name)] = *v
			}
		}
		ref[y] = values
	}
	return ref, nil
}

func index(t source.Table, names ...string) (map[string]int, error) {
	idx := make(map[string]int, len(names))
	for _, n := range names {
		i := slices.Index(t.Header, n)
		if i < 0 {
			return nil, fmt.Errorf("%s: %w: no column %q", t.Name, ErrMalformed, n)
		}
		idx[n] = i
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func point(lat, lon string) (domain.Point, bool) {
	a := domain.ParseNumber(lat, domain.PointDecimal)
	b := domain.ParseNumber(lon, domain.PointDecimal)
	if a == nil || b == nil {
		return domain.Point{}, false
	}
	return domain.Point{Lat: *a, Lon: *b}, true
}
