package pipeline

import (
	"fmt"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/adapter/lookup"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/config"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

// Default key columns of the centroid tables.
const (
	defaultPostcodeKey     = "postcode"
	defaultMunicipalityKey = "municipality_code"
)

// Lookups holds the immutable auxiliary tables shared by every run.
type Lookups struct {
	Columns       []domain.ColumnEntry
	Values        []domain.ValueEntry
	Georeferencer *domain.Georeferencer
	// Reference is nil when no reference statistic is configured.
	Reference report.Reference
}

// Translator builds a fresh translator over the tables, so each run counts
// its own misses.
func (l Lookups) Translator(onMiss func(domain.Miss)) *domain.Translator {
	return domain.NewTranslator(l.Columns, l.Values, domain.WithMissHook(onMiss))
}

// LoadLookups reads the translation, centroid and reference tables.
func LoadLookups(def config.Lookups) (Lookups, error) {
	var l Lookups
	var err error
	if l.Columns, err = lookup.ColumnEntries(def.Columns); err != nil {
		return Lookups{}, fmt.Errorf("load column translations: %w", err)
	}
	if l.Values, err = lookup.ValueEntries(def.Values); err != nil {
		return Lookups{}, fmt.Errorf("load value translations: %w", err)
	}

	postcodes, err := loadCentroids(def.Postcodes, defaultPostcodeKey)
	if err != nil {
		return Lookups{}, fmt.Errorf("load postcode centroids: %w", err)
	}
	municipalities, err := loadCentroids(def.Municipalities, defaultMunicipalityKey)
	if err != nil {
		return Lookups{}, fmt.Errorf("load municipality centroids: %w", err)
	}
	l.Georeferencer = domain.NewGeoreferencer(postcodes, municipalities)

	if def.Reference != "" {
		if l.Reference, err = lookup.Reference(def.Reference); err != nil {
			return Lookups{}, fmt.Errorf("load reference statistic: %w", err)
		}
	}
	return l, nil
}

func loadCentroids(specs []config.CentroidSpec, defaultKey string) (*domain.CentroidIndex, error) {
	var entries []domain.CentroidEntry
	for _, s := range specs {
		key := s.Key
		if key == "" {
			key = defaultKey
		}
		e, err := lookup.Centroids(lookup.CentroidSpec{
			Path:    s.File,
			Country: s.Country,
			KeyCol:  key,
			Options: tableOptions(s.FileSpec),
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, e...)
	}
	return domain.NewCentroidIndex(entries), nil
}
