package export

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

// SQLiteLoader writes every output table into one SQLite database.
type SQLiteLoader struct {
	Dir    string
	Rules  []domain.Rule
	Logger *slog.Logger
}

// masterIndexes speed up the usual filters on the master table.
var masterIndexes = []string{"data_source", "energy_source", "commissioning_date", "postcode"}

// table is a column layout with typed rows ready for insertion.
type table struct {
	name    string
	columns []string
	types   []string
	rows    [][]any
}

func (l *SQLiteLoader) Load(ctx context.Context, out report.Output) error {
	path := filepath.Join(l.Dir, MasterBase+".sqlite")
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp := path + ".tmp"
	_ = os.Remove(tmp)
	defer os.Remove(tmp)

	tables := []table{
		masterTable(out.Records),
		stringTable(TableMarker, MarkerHeader, MarkerRows(l.Rules)),
		seriesTable(TableDaily, out.Daily),
		seriesTable(TableYearly, out.Yearly),
		deviationTable(out.Deviations),
	}
	if err := writeDatabase(ctx, tmp, tables); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	if l.Logger != nil {
		l.Logger.Info("sqlite export written", "path", path, "tables", len(tables))
	}
	return nil
}

func writeDatabase(ctx context.Context, path string, tables []table) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, t := range tables {
		if err := insertTable(ctx, tx, t); err != nil {
			return err
		}
	}
	for _, col := range masterIndexes {
		stmt := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)`, TableMaster, col, TableMaster, col)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index on %s: %w", col, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite: %w", err)
	}
	return nil
}

func insertTable(ctx context.Context, tx *sql.Tx, t table) error {
	defs := make([]string, len(t.columns))
	for i, c := range t.columns {
		defs[i] = fmt.Sprintf("%q %s", c, t.types[i])
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, t.name)); err != nil {
		return fmt.Errorf("drop table %s: %w", t.name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, t.name, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create table %s: %w", t.name, err)
	}

	query, _, err := sq.Insert(t.name).
		Columns(t.columns...).
		Values(make([]any, len(t.columns))...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert %s: %w", t.name, err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", t.name, err)
	}
	defer stmt.Close()

	for i, row := range t.rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", t.name, i+1, err)
		}
	}
	return nil
}

func masterTable(records []domain.Record) table {
	t := table{name: TableMaster, columns: MasterColumns(), types: make([]string, len(fields))}
	for i, f := range fields {
		t.types[i] = sqlType(f.kind)
	}
	t.rows = make([][]any, len(records))
	for i := range records {
		row := make([]any, len(fields))
		for j, f := range fields {
			row[j] = f.value(&records[i])
		}
		t.rows[i] = row
	}
	return t
}

func seriesTable(name string, ts report.TimeSeries) table {
	header, _ := SeriesRows(ts)
	t := table{name: name, columns: header, types: make([]string, len(header))}
	t.types[0] = "TEXT"
	if ts.Grid.Granularity == report.Yearly {
		t.types[0] = "INTEGER"
	}
	for i := 1; i < len(header); i++ {
		t.types[i] = "REAL"
	}
	t.rows = make([][]any, len(ts.Grid.Points))
	for i, p := range ts.Grid.Points {
		row := make([]any, 0, len(header))
		if ts.Grid.Granularity == report.Yearly {
			row = append(row, p.Year())
		} else {
			row = append(row, gridLabel(ts.Grid.Granularity, p))
		}
		for _, v := range ts.Values[i] {
			row = append(row, v)
		}
		t.rows[i] = row
	}
	return t
}

func deviationTable(devs []report.Deviation) table {
	t := table{
		name:    TableDeviation,
		columns: DeviationHeader,
		types:   []string{"INTEGER", "TEXT", "REAL", "REAL", "REAL", "REAL"},
		rows:    make([][]any, len(devs)),
	}
	for i, d := range devs {
		t.rows[i] = []any{d.Year, d.Category, d.Computed, d.Reference, d.Absolute, d.Relative}
	}
	return t
}

func stringTable(name string, header []string, rows [][]string) table {
	t := table{name: name, columns: header, types: make([]string, len(header)), rows: make([][]any, len(rows))}
	for i := range header {
		t.types[i] = "TEXT"
	}
	for i, r := range rows {
		t.rows[i] = toAny(r)
	}
	return t
}

func sqlType(k kind) string {
	switch k {
	case kindReal:
		return "REAL"
	case kindInteger:
		return "INTEGER"
	default:
		return "TEXT"
	}
}
