package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

// Export format names accepted by New.
const (
	FormatCSV    = "csv"
	FormatXLSX   = "xlsx"
	FormatSQLite = "sqlite"
)

// ErrUnknownFormat is returned by New for an unrecognized format name.
var ErrUnknownFormat = errors.New("unknown export format")

// Loader writes the outputs of one run.
// It implements pipeline.Loader.
type Loader interface {
	Load(ctx context.Context, out report.Output) error
}

// New returns one loader per format name, writing into dir. The rules feed
// the validation marker tables.
func New(formats []string, dir string, rules []domain.Rule, logger *slog.Logger) ([]Loader, error) {
	loaders := make([]Loader, 0, len(formats))
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case FormatCSV:
			loaders = append(loaders, &CSVLoader{Dir: dir, Rules: rules, Logger: logger})
		case FormatXLSX:
			loaders = append(loaders, &XLSXLoader{Dir: dir, Rules: rules, Logger: logger})
		case FormatSQLite:
			loaders = append(loaders, &SQLiteLoader{Dir: dir, Rules: rules, Logger: logger})
		case "":
		default:
			return nil, fmt.Errorf("%w %q", ErrUnknownFormat, f)
		}
	}
	return loaders, nil
}

// CSVLoader writes the master table, both time series and the validation
// report as CSV files, plus the deviation table when present.
type CSVLoader struct {
	Dir    string
	Rules  []domain.Rule
	Logger *slog.Logger
}

// DeviationFile is the CSV name of the deviation table.
const DeviationFile = "renewable_capacity_deviation.csv"

type outputFile struct {
	name  string
	write func(io.Writer) error
}

func (l *CSVLoader) Load(ctx context.Context, out report.Output) error {
	files := []outputFile{
		{MasterBase + ".csv", func(w io.Writer) error { return WriteMasterCSV(w, out.Records) }},
		{DailyFile, func(w io.Writer) error { return WriteSeriesCSV(w, out.Daily) }},
		{YearlyFile, func(w io.Writer) error { return WriteSeriesCSV(w, out.Yearly) }},
		{ValidationReport, func(w io.Writer) error { return WriteValidationReport(w, l.Rules, out.Records) }},
	}
	if len(out.Deviations) > 0 {
		files = append(files, outputFile{DeviationFile, func(w io.Writer) error { return WriteDeviationCSV(w, out.Deviations) }})
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(l.Dir, f.name), f.write); err != nil {
			return err
		}
	}
	if l.Logger != nil {
		l.Logger.Info("csv export written", "dir", l.Dir, "files", len(files))
	}
	return nil
}

// writeFile writes through a temporary file that is renamed into place, so
// readers never see a partial output.
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
