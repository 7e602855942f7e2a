// Package report derives the published statistics from the validated master
// table: the clean/suspect split, cumulated capacity time series and the
// deviation from an external reference statistic.
package report

import "github.com/couchcryptid/renewable-power-plants-etl/internal/domain"

// Category is a statistics column. A record belongs to the first category
// whose energy source matches and whose subtype, when set, matches too.
type Category struct {
	Name         string
	EnergySource string
	Subtype      string
}

// DefaultCategories splits wind into on- and offshore and keeps the other
// energy sources whole.
func DefaultCategories() []Category {
	return []Category{
		{Name: "biomass", EnergySource: domain.EnergyBiomass},
		{Name: "wind_onshore", EnergySource: domain.EnergyWind, Subtype: domain.SubtypeWindOnshore},
		{Name: "wind_offshore", EnergySource: domain.EnergyWind, Subtype: domain.SubtypeWindOffshore},
		{Name: "solar", EnergySource: domain.EnergySolar},
		{Name: "gas", EnergySource: domain.EnergyGas},
		{Name: "geothermal", EnergySource: domain.EnergyGeothermal},
		{Name: "hydro", EnergySource: domain.EnergyHydro},
	}
}

// CategoryOf returns the index of the category rec belongs to, or -1.
func CategoryOf(rec domain.Record, categories []Category) int {
	for i, c := range categories {
		if c.EnergySource != rec.EnergySource {
			continue
		}
		if c.Subtype == "" || c.Subtype == rec.EnergySourceSubtype {
			return i
		}
	}
	return -1
}

// Split partitions records by comment: records without validation tags are
// clean, all others suspect. Input order is kept in both.
func Split(records []domain.Record) (clean, suspect []domain.Record) {
	for i := range records {
		if len(records[i].Comment) == 0 {
			clean = append(clean, records[i])
		} else {
			suspect = append(suspect, records[i])
		}
	}
	return clean, suspect
}

// FilterCountry returns the records of one country. An empty country keeps
// every record.
func FilterCountry(records []domain.Record, country domain.Country) []domain.Record {
	if country == "" {
		return records
	}
	var out []domain.Record
	for i := range records {
		if records[i].Country == country {
			out = append(out, records[i])
		}
	}
	return out
}
