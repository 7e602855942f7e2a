package export

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

// WriteMasterCSV writes the master table with a header row.
func WriteMasterCSV(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MasterColumns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range records {
		if err := cw.Write(RecordRow(records[i])); err != nil {
			return fmt.Errorf("write record %s: %w", records[i].ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMasterCSV reads a master table written by WriteMasterCSV.
func ReadMasterCSV(r io.Reader) ([]domain.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read master table: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]domain.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := ParseRecordRow(header, row)
		if err != nil {
			return nil, fmt.Errorf("read master table row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// SeriesRows renders a time series as a header and one row per grid point.
// The first column is the date; yearly series use the year.
func SeriesRows(ts report.TimeSeries) (header []string, rows [][]string) {
	first := "day"
	if ts.Grid.Granularity == report.Yearly {
		first = "year"
	}
	header = append([]string{first}, ts.Columns...)

	rows = make([][]string, len(ts.Grid.Points))
	for i, p := range ts.Grid.Points {
		row := make([]string, 0, len(ts.Columns)+1)
		row = append(row, gridLabel(ts.Grid.Granularity, p))
		for _, v := range ts.Values[i] {
			row = append(row, FormatFloat(v))
		}
		rows[i] = row
	}
	return header, rows
}

// WriteSeriesCSV writes a cumulated capacity time series.
func WriteSeriesCSV(w io.Writer, ts report.TimeSeries) error {
	header, rows := SeriesRows(ts)
	return writeAll(w, header, rows)
}

// DeviationHeader is the column layout of the deviation table.
var DeviationHeader = []string{"year", "category", "computed", "reference", "absolute", "relative"}

// DeviationRows renders deviation rows in input order.
func DeviationRows(devs []report.Deviation) [][]string {
	rows := make([][]string, len(devs))
	for i, d := range devs {
		rows[i] = []string{
			strconv.Itoa(d.Year),
			d.Category,
			FormatFloat(d.Computed),
			FormatFloat(d.Reference),
			FormatFloat(d.Absolute),
			FormatFloat(d.Relative),
		}
	}
	return rows
}

// WriteDeviationCSV writes the deviation table.
func WriteDeviationCSV(w io.Writer, devs []report.Deviation) error {
	return writeAll(w, DeviationHeader, DeviationRows(devs))
}

// MarkerHeader is the column layout of the validation marker table.
var MarkerHeader = []string{"validation_marker", "explanation"}

// MarkerRows lists every rule with its explanation.
func MarkerRows(rules []domain.Rule) [][]string {
	rows := make([][]string, len(rules))
	for i, r := range rules {
		rows[i] = []string{r.ID, r.Description}
	}
	return rows
}

// ReportHeader is the column layout of the validation report.
var ReportHeader = []string{"validation_marker", "data_source", "count", "explanation"}

// ReportRows counts flagged records per rule and data source. Rows follow
// rule order, then data source name; rules without hits are omitted.
func ReportRows(rules []domain.Rule, records []domain.Record) [][]string {
	type key struct{ rule, source string }
	counts := make(map[key]int)
	for i := range records {
		for _, tag := range records[i].Comment {
			counts[key{tag, records[i].DataSource}]++
		}
	}

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	order := make(map[string]int, len(rules))
	desc := make(map[string]string, len(rules))
	for i, r := range rules {
		order[r.ID] = i
		desc[r.ID] = r.Description
	}
	slices.SortFunc(keys, func(a, b key) int {
		return cmp.Or(
			cmp.Compare(order[a.rule], order[b.rule]),
			cmp.Compare(a.rule, b.rule),
			cmp.Compare(a.source, b.source),
		)
	})

	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k.rule, k.source, strconv.Itoa(counts[k]), desc[k.rule]}
	}
	return rows
}

// WriteValidationReport writes the per-rule and per-source flag counts.
func WriteValidationReport(w io.Writer, rules []domain.Rule, records []domain.Record) error {
	return writeAll(w, ReportHeader, ReportRows(rules, records))
}

func gridLabel(g report.Granularity, t time.Time) string {
	if g == report.Yearly {
		return strconv.Itoa(t.Year())
	}
	return t.Format(time.DateOnly)
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
