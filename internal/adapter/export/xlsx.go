package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

// MaxSheetRows is the number of data rows per master table sheet. Larger
// tables are split over several sheets.
const MaxSheetRows = 1_000_000

// XLSXLoader writes the master table and the validation marker table into
// one workbook.
type XLSXLoader struct {
	Dir    string
	Rules  []domain.Rule
	Logger *slog.Logger
	// PartRows overrides MaxSheetRows when positive.
	PartRows int
}

func (l *XLSXLoader) Load(ctx context.Context, out report.Output) error {
	path := filepath.Join(l.Dir, MasterBase+".xlsx")
	parts := 0
	err := writeFile(path, func(w io.Writer) error {
		f := excelize.NewFile()
		defer f.Close()

		var err error
		parts, err = l.writeMaster(ctx, f, out.Records)
		if err != nil {
			return err
		}
		if err := writeSheet(f, TableMarker, MarkerHeader, MarkerRows(l.Rules)); err != nil {
			return err
		}
		_, err = f.WriteTo(w)
		return err
	})
	if err != nil {
		return err
	}
	if l.Logger != nil {
		l.Logger.Info("xlsx export written", "path", path, "sheets", parts)
	}
	return nil
}

// SheetName returns the name of master table part i, counted from zero.
func SheetName(i int) string {
	if i == 0 {
		return TableMaster
	}
	return TableMaster + "_" + strconv.Itoa(i+1)
}

func (l *XLSXLoader) writeMaster(ctx context.Context, f *excelize.File, records []domain.Record) (int, error) {
	size := MaxSheetRows
	if l.PartRows > 0 {
		size = l.PartRows
	}

	parts := 0
	for start := 0; start == 0 || start < len(records); start += size {
		if err := ctx.Err(); err != nil {
			return parts, err
		}
		end := min(start+size, len(records))
		name := SheetName(parts)
		if parts == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return parts, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return parts, fmt.Errorf("create sheet %s: %w", name, err)
		}

		sw, err := f.NewStreamWriter(name)
		if err != nil {
			return parts, fmt.Errorf("open sheet %s: %w", name, err)
		}
		if err := sw.SetRow("A1", toAny(MasterColumns())); err != nil {
			return parts, fmt.Errorf("write sheet %s header: %w", name, err)
		}
		for i, rec := range records[start:end] {
			row := make([]any, len(fields))
			for j, fd := range fields {
				row[j] = fd.value(&rec)
			}
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := sw.SetRow(cell, row); err != nil {
				return parts, fmt.Errorf("write sheet %s row %d: %w", name, i+2, err)
			}
		}
		if err := sw.Flush(); err != nil {
			return parts, fmt.Errorf("flush sheet %s: %w", name, err)
		}
		parts++
	}
	return parts, nil
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]string) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("open sheet %s: %w", name, err)
	}
	if err := sw.SetRow("A1", toAny(header)); err != nil {
		return fmt.Errorf("write sheet %s header: %w", name, err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, toAny(row)); err != nil {
			return fmt.Errorf("write sheet %s row %d: %w", name, i+2, err)
		}
	}
	return sw.Flush()
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
