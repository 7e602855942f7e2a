package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

// Source roles select the adapter slot an extract feeds.
const (
	RoleTSO      = "tso"
	RoleBNetzAPV = "bnetza_pv"
	RoleBNetzA   = "bnetza"
	RoleDKWind   = "dk_wind"
	RoleDKSolar  = "dk_solar"
	RoleFR       = "fr"
	RolePL       = "pl"
)

var roleCountry = map[string]domain.Country{
	RoleTSO:      domain.CountryDE,
	RoleBNetzAPV: domain.CountryDE,
	RoleBNetzA:   domain.CountryDE,
	RoleDKWind:   domain.CountryDK,
	RoleDKSolar:  domain.CountryDK,
	RoleFR:       domain.CountryFR,
	RolePL:       domain.CountryPL,
}

// ErrInvalidPipeline is returned for a pipeline definition that cannot run.
var ErrInvalidPipeline = errors.New("invalid pipeline definition")

// FileSpec locates one input file and describes how to read it.
type FileSpec struct {
	// File is the local path. Relative paths resolve against the cache
	// directory for sources and against the input directory for lookups.
	File string `mapstructure:"file"`
	// URL, when set, is downloaded into the cache directory if File is
	// missing or stale.
	URL string `mapstructure:"url"`
	// Member names the file inside a zip archive.
	Member string `mapstructure:"member"`

	Delimiter  string `mapstructure:"delimiter"`
	Encoding   string `mapstructure:"encoding"`
	SkipRows   int    `mapstructure:"skip_rows"`
	SkipFooter int    `mapstructure:"skip_footer"`
	Sheet      string `mapstructure:"sheet"`
	AllSheets  bool   `mapstructure:"all_sheets"`
	NoHeader   bool   `mapstructure:"no_header"`
}

// SourceSpec is one registry extract.
type SourceSpec struct {
	FileSpec `mapstructure:",squash"`
	// Name is the data source tag of the records.
	Name string `mapstructure:"name"`
	Role string `mapstructure:"role"`
	// Decimal is the number notation: "point", "comma" or "grouped".
	Decimal string `mapstructure:"decimal"`
}

// Country returns the country the source's role belongs to.
func (s SourceSpec) Country() domain.Country {
	return roleCountry[s.Role]
}

// NumberFormat maps Decimal to the parser notation.
func (s SourceSpec) NumberFormat() domain.NumberFormat {
	switch strings.ToLower(s.Decimal) {
	case "comma":
		return domain.CommaDecimal
	case "grouped":
		return domain.GroupedPoint
	default:
		return domain.PointDecimal
	}
}

// CentroidSpec is one centroid lookup table.
type CentroidSpec struct {
	FileSpec `mapstructure:",squash"`
	Country  domain.Country `mapstructure:"country"`
	Key      string         `mapstructure:"key"`
}

// Lookups names the auxiliary tables.
type Lookups struct {
	Columns        string         `mapstructure:"columns"`
	Values         string         `mapstructure:"values"`
	Postcodes      []CentroidSpec `mapstructure:"postcodes"`
	Municipalities []CentroidSpec `mapstructure:"municipalities"`
	Reference      string         `mapstructure:"reference"`
}

// Pipeline is the parsed pipeline definition.
type Pipeline struct {
	Sources []SourceSpec
	Lookups Lookups
	Rules   domain.RuleConfig
	Report  report.Options
}

// Countries returns the distinct countries of the configured sources in
// DE, DK, FR, PL order.
func (p *Pipeline) Countries() []domain.Country {
	var out []domain.Country
	for _, c := range []domain.Country{domain.CountryDE, domain.CountryDK, domain.CountryFR, domain.CountryPL} {
		if slices.ContainsFunc(p.Sources, func(s SourceSpec) bool { return s.Country() == c }) {
			out = append(out, c)
		}
	}
	return out
}

// rawPipeline mirrors the YAML layout before dates and defaults are applied.
type rawPipeline struct {
	Sources []SourceSpec `mapstructure:"sources"`
	Lookups Lookups      `mapstructure:"lookups"`
	Rules   struct {
		StaleCutoff           string            `mapstructure:"stale_cutoff"`
		StaleSources          []string          `mapstructure:"stale_sources"`
		StatusSource          string            `mapstructure:"status_source"`
		CommissionedStatus    string            `mapstructure:"commissioned_status"`
		EarliestCommissioning map[string]string `mapstructure:"earliest_commissioning"`
		UnavailableSource     string            `mapstructure:"unavailable_source"`
	} `mapstructure:"rules"`
	Report struct {
		Country string `mapstructure:"country"`
		Daily   struct {
			Start string `mapstructure:"start"`
			End   string `mapstructure:"end"`
		} `mapstructure:"daily"`
		Yearly struct {
			First int `mapstructure:"first"`
			Last  int `mapstructure:"last"`
		} `mapstructure:"yearly"`
		Categories []struct {
			Name         string `mapstructure:"name"`
			EnergySource string `mapstructure:"energy_source"`
			Subtype      string `mapstructure:"subtype"`
		} `mapstructure:"categories"`
		Mapping map[string][]string `mapstructure:"mapping"`
	} `mapstructure:"report"`
}

func setDefaults(v *viper.Viper) {
	rules := domain.DefaultRuleConfig()
	v.SetDefault("rules.stale_cutoff", rules.StaleCutoff.Format(time.DateOnly))
	v.SetDefault("rules.stale_sources", rules.StaleSources)
	v.SetDefault("rules.status_source", rules.StatusSource)
	v.SetDefault("rules.commissioned_status", rules.CommissionedStatus)
	v.SetDefault("rules.unavailable_source", rules.UnavailableSource)

	v.SetDefault("lookups.columns", "column_translation_list.csv")
	v.SetDefault("lookups.values", "value_translation_list.csv")

	v.SetDefault("report.country", string(domain.CountryDE))
	v.SetDefault("report.daily.start", "2005-01-01")
	v.SetDefault("report.daily.end", "2016-01-31")
	v.SetDefault("report.yearly.first", 1990)
	v.SetDefault("report.yearly.last", 2015)
}

// LoadPipeline reads the pipeline definition at path. Relative lookup paths
// are resolved against inputDir.
func LoadPipeline(path, inputDir string) (*Pipeline, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read pipeline definition: %w", err)
	}
	return decodePipeline(v, inputDir)
}

func decodePipeline(v *viper.Viper, inputDir string) (*Pipeline, error) {
	var raw rawPipeline
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decode pipeline definition: %w", err)
	}

	p := &Pipeline{Sources: raw.Sources, Lookups: raw.Lookups}
	if err := p.validateSources(); err != nil {
		return nil, err
	}
	p.Lookups.Columns = resolve(inputDir, p.Lookups.Columns)
	p.Lookups.Values = resolve(inputDir, p.Lookups.Values)
	if p.Lookups.Reference != "" {
		p.Lookups.Reference = resolve(inputDir, p.Lookups.Reference)
	}
	for _, specs := range [][]CentroidSpec{p.Lookups.Postcodes, p.Lookups.Municipalities} {
		for i := range specs {
			specs[i].File = resolve(inputDir, specs[i].File)
		}
	}

	rules, err := decodeRules(raw)
	if err != nil {
		return nil, err
	}
	p.Rules = rules

	opts, err := decodeReport(raw)
	if err != nil {
		return nil, err
	}
	p.Report = opts
	return p, nil
}

func (p *Pipeline) validateSources() error {
	for i, s := range p.Sources {
		if _, ok := roleCountry[s.Role]; !ok {
			return fmt.Errorf("%w: source %d has unknown role %q", ErrInvalidPipeline, i, s.Role)
		}
		if s.File == "" && s.URL == "" {
			return fmt.Errorf("%w: source %q needs file or url", ErrInvalidPipeline, s.Name)
		}
		if s.Name == "" {
			return fmt.Errorf("%w: source %d has no name", ErrInvalidPipeline, i)
		}
	}
	if n := countRole(p.Sources, RoleBNetzA); n > 1 {
		return fmt.Errorf("%w: %d sources with role %s", ErrInvalidPipeline, n, RoleBNetzA)
	}
	for _, role := range []string{RoleDKWind, RoleDKSolar, RoleFR, RolePL} {
		if n := countRole(p.Sources, role); n > 1 {
			return fmt.Errorf("%w: %d sources with role %s", ErrInvalidPipeline, n, role)
		}
	}
	return nil
}

func countRole(sources []SourceSpec, role string) int {
	n := 0
	for _, s := range sources {
		if s.Role == role {
			n++
		}
	}
	return n
}

func decodeRules(raw rawPipeline) (domain.RuleConfig, error) {
	r := raw.Rules
	cutoff, err := parseDate("rules.stale_cutoff", r.StaleCutoff)
	if err != nil {
		return domain.RuleConfig{}, err
	}
	cfg := domain.RuleConfig{
		StaleCutoff:        cutoff,
		StaleSources:       r.StaleSources,
		StatusSource:       r.StatusSource,
		CommissionedStatus: r.CommissionedStatus,
		UnavailableSource:  r.UnavailableSource,
	}

	if r.EarliestCommissioning == nil {
		cfg.EarliestCommissioning = domain.DefaultRuleConfig().EarliestCommissioning
		return cfg, nil
	}
	cfg.EarliestCommissioning = make(map[string]time.Time, len(r.EarliestCommissioning))
	for source, s := range r.EarliestCommissioning {
		d, err := parseDate("rules.earliest_commissioning."+source, s)
		if err != nil {
			return domain.RuleConfig{}, err
		}
		cfg.EarliestCommissioning[canonicalSource(source)] = d
	}
	return cfg, nil
}

// canonicalSource restores the capitalization viper folds map keys to.
func canonicalSource(key string) string {
	for _, s := range []string{
		domain.EnergyWind, domain.EnergySolar, domain.EnergyBiomass,
		domain.EnergyHydro, domain.EnergyGas, domain.EnergyGeothermal,
	} {
		if strings.EqualFold(s, key) {
			return s
		}
	}
	return key
}

func decodeReport(raw rawPipeline) (report.Options, error) {
	r := raw.Report
	start, err := parseDate("report.daily.start", r.Daily.Start)
	if err != nil {
		return report.Options{}, err
	}
	end, err := parseDate("report.daily.end", r.Daily.End)
	if err != nil {
		return report.Options{}, err
	}
	if end.Before(start) {
		return report.Options{}, fmt.Errorf("%w: report.daily.end before start", ErrInvalidPipeline)
	}
	if r.Yearly.Last < r.Yearly.First {
		return report.Options{}, fmt.Errorf("%w: report.yearly.last before first", ErrInvalidPipeline)
	}

	opts := report.Options{
		Country: domain.Country(strings.ToUpper(r.Country)),
		Daily:   report.DailyGrid(start, end),
		Yearly:  report.YearlyGrid(r.Yearly.First, r.Yearly.Last),
		Mapping: report.DefaultReferenceMapping(),
	}

	opts.Categories = report.DefaultCategories()
	if len(r.Categories) > 0 {
		opts.Categories = make([]report.Category, len(r.Categories))
		for i, c := range r.Categories {
			if c.Name == "" || c.EnergySource == "" {
				return report.Options{}, fmt.Errorf("%w: category %d needs name and energy_source", ErrInvalidPipeline, i)
			}
			opts.Categories[i] = report.Category{Name: c.Name, EnergySource: c.EnergySource, Subtype: c.Subtype}
		}
	}
	if len(r.Mapping) > 0 {
		opts.Mapping = report.ReferenceMapping(r.Mapping)
	}
	return opts, nil
}

func parseDate(key, s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %w", ErrInvalidPipeline, key, err)
	}
	return t, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}
