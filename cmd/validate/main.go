// Command validate audits an exported master table: it checks the column
// layout, record integrity and coordinates, re-runs the plausibility rules
// against every record and recomputes the cumulated capacity series written
// next to the master table.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -pipeline pipeline.yml \
//	  -output-dir output
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/adapter/export"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/config"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

var countries = []domain.Country{domain.CountryDE, domain.CountryDK, domain.CountryFR, domain.CountryPL}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	pipelinePath := flag.String("pipeline", "pipeline.yml", "pipeline definition the export was produced with")
	inputDir := flag.String("input-dir", "input", "directory relative lookup paths resolve against")
	outputDir := flag.String("output-dir", "output", "directory containing the exported CSV files")
	flag.Parse()

	if code := run(*pipelinePath, *inputDir, *outputDir); code != 0 {
		os.Exit(code)
	}
}

func run(pipelinePath, inputDir, outputDir string) int {
	fmt.Println("=== Renewable Power Plants Export Validation ===")
	fmt.Println()

	def, err := config.LoadPipeline(pipelinePath, inputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load pipeline definition: %v\n", err)
		return 1
	}

	masterPath := filepath.Join(outputDir, export.MasterBase+".csv")
	header, err := readHeader(masterPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read master header: %v\n", err)
		return 1
	}
	records, err := readMaster(masterPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load master table: %v\n", err)
		return 1
	}

	validator := domain.NewValidator(def.Rules)
	phases := []*phase{
		validateLayout(header),
		validateIntegrity(records),
		validateTags(records, validator),
		validateSeries(records, def.Report, outputDir),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	clean, suspect := report.Split(records)
	fmt.Println()
	fmt.Printf("Records: %d total, %d clean, %d suspect\n", len(records), len(clean), len(suspect))
	for _, row := range export.ReportRows(validator.Rules(), records) {
		fmt.Printf("  %-5s %-28s %8s  %s\n", row[0], row[1], row[2], row[3])
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).Read()
}

func readMaster(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return export.ReadMasterCSV(f)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).ReadAll()
}

// ── Phase 1: column layout ──

func validateLayout(header []string) *phase {
	p := &phase{name: "Master table layout"}
	fmt.Println("Phase 1: Master table layout")

	want := export.MasterColumns()
	if slices.Equal(header, want) {
		return p
	}
	for _, col := range want {
		if !slices.Contains(header, col) {
			p.errorf("missing column %q", col)
		}
	}
	for _, col := range header {
		if !slices.Contains(want, col) {
			p.errorf("unexpected column %q", col)
		}
	}
	if p.passed() {
		p.errorf("columns out of order: got %s", strings.Join(header, ","))
	}
	return p
}

// ── Phase 2: record integrity ──

func validateIntegrity(records []domain.Record) *phase {
	p := &phase{name: "Record integrity"}
	fmt.Println("Phase 2: Record integrity")

	seen := make(map[string]int, len(records))
	for i := range records {
		rec := &records[i]
		row := i + 2
		switch {
		case rec.ID == "":
			p.errorf("row %d: empty id", row)
		case seen[rec.ID] > 0:
			p.errorf("row %d: id %s duplicates row %d", row, rec.ID, seen[rec.ID])
		default:
			seen[rec.ID] = row
		}

		if !slices.Contains(countries, rec.Country) {
			p.errorf("row %d: unknown country %q", row, rec.Country)
		}
		if rec.DataSource == "" {
			p.errorf("row %d: empty data source", row)
		}
		if rec.EnergySourceSubtype != "" && rec.EnergySource == "" {
			p.errorf("row %d: subtype %q without energy source", row, rec.EnergySourceSubtype)
		}
		checkCoordinates(p, row, rec)
	}
	return p
}

func checkCoordinates(p *phase, row int, rec *domain.Record) {
	if (rec.Latitude == nil) != (rec.Longitude == nil) {
		p.errorf("row %d: only one of lat/lon set", row)
		return
	}
	if !rec.HasCoordinates() {
		if rec.GeoSource != "" {
			p.errorf("row %d: geo source %q without coordinates", row, rec.GeoSource)
		}
		return
	}
	if *rec.Latitude < -90 || *rec.Latitude > 90 || *rec.Longitude < -180 || *rec.Longitude > 180 {
		p.errorf("row %d: coordinates out of range (%v, %v)", row, *rec.Latitude, *rec.Longitude)
	}
	if rec.GeoSource == "" {
		p.errorf("row %d: coordinates without geo source", row)
	}
}

// ── Phase 3: validation tags ──

func validateTags(records []domain.Record, v *domain.Validator) *phase {
	p := &phase{name: "Validation tags"}
	fmt.Println("Phase 3: Validation tags")

	for i := range records {
		untagged := records[i]
		untagged.Comment = nil
		want := v.Check(untagged).Comment
		if !slices.Equal(want, records[i].Comment) {
			p.errorf("row %d (%s): exported tags %q, rules give %q",
				i+2, records[i].ID, records[i].CommentText(), strings.Join(want, domain.CommentSeparator))
		}
	}
	return p
}

// ── Phase 4: cumulated series ──

func validateSeries(records []domain.Record, opts report.Options, outputDir string) *phase {
	p := &phase{name: "Cumulated capacity series"}
	fmt.Println("Phase 4: Cumulated capacity series")

	out := report.Build(records, opts)
	for _, s := range []struct {
		file string
		ts   report.TimeSeries
	}{
		{export.DailyFile, out.Daily},
		{export.YearlyFile, out.Yearly},
	} {
		got, err := readCSV(filepath.Join(outputDir, s.file))
		if err != nil {
			p.errorf("%s: %v", s.file, err)
			continue
		}
		header, rows := export.SeriesRows(s.ts)
		compareSeries(p, s.file, got, append([][]string{header}, rows...))
	}
	return p
}

func compareSeries(p *phase, file string, got, want [][]string) {
	if len(got) != len(want) {
		p.errorf("%s: %d rows, expected %d", file, len(got), len(want))
		return
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			p.errorf("%s line %d: got %s, expected %s", file, i+1, strings.Join(got[i], ","), strings.Join(want[i], ","))
		}
	}
}
