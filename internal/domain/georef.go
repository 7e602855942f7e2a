package domain

import (
	"cmp"
	"slices"
)

// Georeferencer fills in missing coordinates from the location fields a
// record carries. Strategies are tried in a fixed order and the first that
// succeeds wins:
//
//  1. coordinates already present are kept
//  2. UTM zone/easting/northing, converted to WGS-84
//  3. postcode centroid
//  4. municipality code centroid
//
// Records no strategy can place keep null coordinates.
type Georeferencer struct {
	postcodes      Locator
	municipalities Locator
}

// NewGeoreferencer creates a Georeferencer over postcode and municipality
// code centroids. Either locator may be nil.
func NewGeoreferencer(postcodes, municipalities Locator) *Georeferencer {
	return &Georeferencer{postcodes: postcodes, municipalities: municipalities}
}

// Resolve returns rec with latitude, longitude and geo source filled in where
// possible. No other field is modified.
func (g *Georeferencer) Resolve(rec Record) Record {
	if rec.HasCoordinates() {
		if rec.GeoSource == "" {
			rec.GeoSource = GeoOriginal
		}
		return rec
	}

	if rec.UTMZone != nil && rec.UTMEast != nil && rec.UTMNorth != nil {
		if p, ok := UTMToLatLon(*rec.UTMEast, *rec.UTMNorth, *rec.UTMZone); ok {
			return place(rec, p, GeoUTM)
		}
	}
	if g.postcodes != nil && rec.Postcode != "" {
		if p, ok := g.postcodes.Locate(rec.Country, rec.Postcode); ok {
			return place(rec, p, GeoPostcode)
		}
	}
	if g.municipalities != nil && rec.MunicipalityCode != "" {
		if p, ok := g.municipalities.Locate(rec.Country, rec.MunicipalityCode); ok {
			return place(rec, p, GeoMunicipalityCode)
		}
	}

	rec.Latitude, rec.Longitude, rec.GeoSource = nil, nil, ""
	return rec
}

// Apply resolves every record and returns the enriched copies in input order.
func (g *Georeferencer) Apply(records []Record) []Record {
	out := make([]Record, len(records))
	for i := range records {
		out[i] = g.Resolve(records[i])
	}
	return out
}

func place(rec Record, p Point, source string) Record {
	rec.Latitude = Ptr(p.Lat)
	rec.Longitude = Ptr(p.Lon)
	rec.GeoSource = source
	return rec
}

// NullCoordinateCount is the number of records of one data source and energy
// source left without coordinates.
type NullCoordinateCount struct {
	DataSource   string
	EnergySource string
	Count        int
}

// NullCoordinates counts records without coordinates per data source and
// energy source, sorted by both.
func NullCoordinates(records []Record) []NullCoordinateCount {
	type key struct{ dataSource, energySource string }
	counts := make(map[key]int)
	for i := range records {
		if !records[i].HasCoordinates() {
			counts[key{records[i].DataSource, records[i].EnergySource}]++
		}
	}

	out := make([]NullCoordinateCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, NullCoordinateCount{DataSource: k.dataSource, EnergySource: k.energySource, Count: n})
	}
	slices.SortFunc(out, func(a, b NullCoordinateCount) int {
		return cmp.Or(cmp.Compare(a.DataSource, b.DataSource), cmp.Compare(a.EnergySource, b.EnergySource))
	})
	return out
}
