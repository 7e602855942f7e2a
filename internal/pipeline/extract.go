package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/adapter/fetch"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/adapter/tabular"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/config"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/source"
)

// FileExtractor reads the configured registry extracts through the download
// cache and feeds them to the country adapters.
type FileExtractor struct {
	sources []config.SourceSpec
	cache   *fetch.Cache
	logger  *slog.Logger
}

// NewFileExtractor creates an extractor over the given sources.
func NewFileExtractor(sources []config.SourceSpec, cache *fetch.Cache, logger *slog.Logger) *FileExtractor {
	return &FileExtractor{sources: sources, cache: cache, logger: logger}
}

// Extract implements Extractor.
func (e *FileExtractor) Extract(ctx context.Context, country domain.Country, tr *domain.Translator) ([]domain.Record, error) {
	switch country {
	case domain.CountryDE:
		in, err := e.deInput(ctx)
		if err != nil {
			return nil, err
		}
		return source.DE(in, tr)
	case domain.CountryDK:
		in, err := e.dkInput(ctx)
		if err != nil {
			return nil, err
		}
		return source.DK(in, tr)
	case domain.CountryFR:
		spec, _ := e.role(config.RoleFR)
		t, err := e.table(ctx, spec)
		if err != nil {
			return nil, err
		}
		x, err := source.ParseFRSheet(t)
		if err != nil {
			return nil, err
		}
		return source.FR(x, tr)
	case domain.CountryPL:
		spec, _ := e.role(config.RolePL)
		path, err := e.localPath(ctx, spec.FileSpec)
		if err != nil {
			return nil, err
		}
		doc, err := tabular.ReadText(path, spec.Encoding)
		if err != nil {
			return nil, err
		}
		return source.PL(source.PLInput{Document: doc}, tr)
	default:
		return nil, fmt.Errorf("no adapter for country %q", country)
	}
}

func (e *FileExtractor) deInput(ctx context.Context) (source.DEInput, error) {
	var in source.DEInput
	for _, s := range e.sources {
		switch s.Role {
		case config.RoleTSO:
			t, err := e.table(ctx, s)
			if err != nil {
				return source.DEInput{}, err
			}
			in.TSO = append(in.TSO, source.DEExtract{DataSource: s.Name, Format: s.NumberFormat(), Table: t})
		case config.RoleBNetzAPV:
			tables, err := e.tables(ctx, s)
			if err != nil {
				return source.DEInput{}, err
			}
			for _, t := range tables {
				in.BNetzAPV = append(in.BNetzAPV, source.DEExtract{DataSource: s.Name, Format: s.NumberFormat(), Table: t})
			}
		case config.RoleBNetzA:
			t, err := e.table(ctx, s)
			if err != nil {
				return source.DEInput{}, err
			}
			in.BNetzA = &source.DEExtract{DataSource: s.Name, Format: s.NumberFormat(), Table: t}
		}
	}
	return in, nil
}

func (e *FileExtractor) dkInput(ctx context.Context) (source.DKInput, error) {
	var in source.DKInput
	if s, ok := e.role(config.RoleDKWind); ok {
		t, err := e.table(ctx, s)
		if err != nil {
			return source.DKInput{}, err
		}
		in.Wind = &t
	}
	if s, ok := e.role(config.RoleDKSolar); ok {
		t, err := e.table(ctx, s)
		if err != nil {
			return source.DKInput{}, err
		}
		in.Solar = &t
	}
	return in, nil
}

func (e *FileExtractor) role(role string) (config.SourceSpec, bool) {
	for _, s := range e.sources {
		if s.Role == role {
			return s, true
		}
	}
	return config.SourceSpec{}, false
}

// table reads a source into one table, concatenating the rows of every
// selected sheet under the header of the first.
func (e *FileExtractor) table(ctx context.Context, s config.SourceSpec) (source.Table, error) {
	tables, err := e.tables(ctx, s)
	if err != nil {
		return source.Table{}, err
	}
	if len(tables) == 0 {
		return source.Table{}, fmt.Errorf("read %s: no table", s.Name)
	}
	t := tables[0]
	for _, more := range tables[1:] {
		t.Rows = append(t.Rows, more.Rows...)
	}
	return t, nil
}

func (e *FileExtractor) tables(ctx context.Context, s config.SourceSpec) ([]source.Table, error) {
	path, err := e.localPath(ctx, s.FileSpec)
	if err != nil {
		return nil, err
	}
	tables, err := tabular.Read(path, tableOptions(s.FileSpec))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Name, err)
	}
	e.logger.Debug("source read", "source", s.Name, "path", path, "tables", len(tables))
	return tables, nil
}

// localPath makes the file of spec available locally: downloaded when a URL
// is configured and the cached copy is missing or stale, unpacked when it
// names an archive member.
func (e *FileExtractor) localPath(ctx context.Context, spec config.FileSpec) (string, error) {
	path, err := e.cache.Fetch(ctx, spec.URL, spec.File)
	if err != nil {
		return "", err
	}
	if spec.Member == "" {
		return path, nil
	}
	return e.cache.Extract(path, spec.Member)
}

func tableOptions(spec config.FileSpec) tabular.Options {
	opts := tabular.Options{
		Encoding:   spec.Encoding,
		NoHeader:   spec.NoHeader,
		SkipRows:   spec.SkipRows,
		SkipFooter: spec.SkipFooter,
		Sheet:      spec.Sheet,
		AllSheets:  spec.AllSheets,
	}
	switch spec.Delimiter {
	case "":
	case `\t`, "tab":
		opts.Delimiter = '\t'
	default:
		opts.Delimiter, _ = utf8.DecodeRuneInString(spec.Delimiter)
	}
	return opts
}
