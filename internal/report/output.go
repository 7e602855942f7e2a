package report

import "github.com/couchcryptid/renewable-power-plants-etl/internal/domain"

// Options configures Build.
type Options struct {
	// Country limits the statistics to one country; empty means all.
	Country    domain.Country
	Categories []Category
	Daily      Grid
	Yearly     Grid
	// Reference is optional; without it no deviation rows are produced.
	Reference Reference
	Mapping   ReferenceMapping
}

// Output is everything a run publishes.
type Output struct {
	Records    []domain.Record // full master table, suspect records included
	Clean      int
	Suspect    int
	Daily      TimeSeries
	Yearly     TimeSeries
	Deviations []Deviation
}

// Build splits the validated master table and derives the statistics from
// its clean records.
func Build(records []domain.Record, opts Options) Output {
	clean, suspect := Split(records)
	scoped := FilterCountry(clean, opts.Country)

	out := Output{
		Records: records,
		Clean:   len(clean),
		Suspect: len(suspect),
		Daily:   Cumulate(scoped, opts.Categories, opts.Daily),
		Yearly:  Cumulate(scoped, opts.Categories, opts.Yearly),
	}
	if len(opts.Reference) > 0 {
		out.Deviations = Compare(out.Yearly, opts.Reference, opts.Mapping)
	}
	return out
}
