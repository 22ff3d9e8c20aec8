// Package export writes cleaned datasets to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/okian/campaignboard/internal/domain/dataset"
	"github.com/okian/campaignboard/internal/domain/model"
)

// Sheet names.
const (
	DataSheet  = "Data"
	ChartSheet = "Chart"
)

// percentFormat is the built-in "0.00%" number format.
const percentFormat = 10

// chartHeader is the header row of the Chart sheet.
var chartHeader = []string{"Panel", "Year", "CalendarKey", "Date", "Value"}

// WriteXLSX writes ds to w as a workbook. Missing cells are left blank. When
// spec is not nil its points are listed on a second sheet.
func WriteXLSX(w io.Writer, ds *model.Dataset, spec *model.ChartSpec) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DataSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	pct, err := f.NewStyle(&excelize.Style{NumFmt: percentFormat})
	if err != nil {
		return fmt.Errorf("create percent style: %w", err)
	}

	if err := writeData(f, ds, bold, pct); err != nil {
		return err
	}
	if spec != nil {
		if err := writeChart(f, spec, bold, pct); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeData(f *excelize.File, ds *model.Dataset, bold, pct int) error {
	df := dataset.Frame(ds)
	names := df.Names()
	for i, name := range names {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(DataSheet, cell, name); err != nil {
			return fmt.Errorf("write header %s: %w", name, err)
		}
	}
	if len(names) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(names), 1)
		if err := f.SetCellStyle(DataSheet, "A1", last, bold); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	for colIdx, name := range names {
		col := df.Col(name)
		for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
			val, ok := cellValue(col.Elem(rowIdx), col.Type())
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(DataSheet, cell, val); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
		if c, _ := ds.Column(name); c.Kind == model.KindPercent && df.Nrow() > 0 {
			top, _ := excelize.CoordinatesToCellName(colIdx+1, 2)
			bottom, _ := excelize.CoordinatesToCellName(colIdx+1, df.Nrow()+1)
			if err := f.SetCellStyle(DataSheet, top, bottom, pct); err != nil {
				return fmt.Errorf("style %s: %w", name, err)
			}
		}
	}
	return nil
}

func writeChart(f *excelize.File, spec *model.ChartSpec, bold, pct int) error {
	if _, err := f.NewSheet(ChartSheet); err != nil {
		return fmt.Errorf("add chart sheet: %w", err)
	}
	if err := f.SetSheetRow(ChartSheet, "A1", &chartHeader); err != nil {
		return fmt.Errorf("write chart header: %w", err)
	}
	if err := f.SetCellStyle(ChartSheet, "A1", "E1", bold); err != nil {
		return fmt.Errorf("style chart header: %w", err)
	}

	row := 2
	for _, p := range spec.Panels {
		for _, s := range p.Series {
			for _, pt := range s.Points {
				cells := []any{p.Facet, s.Year, pt.Key.String(), nil, nil}
				if !pt.Date.IsZero() {
					cells[3] = pt.Date.Format("2006-01-02")
				}
				if !math.IsNaN(pt.Value) {
					cells[4] = pt.Value
				}
				cell, _ := excelize.CoordinatesToCellName(1, row)
				if err := f.SetSheetRow(ChartSheet, cell, &cells); err != nil {
					return fmt.Errorf("write chart row %d: %w", row, err)
				}
				row++
			}
		}
	}
	if spec.Percent && row > 2 {
		bottom, _ := excelize.CoordinatesToCellName(5, row-1)
		if err := f.SetCellStyle(ChartSheet, "E2", bottom, pct); err != nil {
			return fmt.Errorf("style chart values: %w", err)
		}
	}
	return nil
}

// cellValue returns the value to write for one frame element, or false when
// the cell is missing.
func cellValue(e series.Element, t series.Type) (any, bool) {
	if e.IsNA() {
		return nil, false
	}
	switch t {
	case series.Float:
		v := e.Float()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		return v, true
	case series.Int:
		v, err := e.Int()
		if err != nil {
			return nil, false
		}
		return v, true
	default:
		return e.String(), true
	}
}
