package dataset

import (
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/okian/campaignboard/internal/domain/model"
)

// dateLayout is how cleaned dates are written back out.
const dateLayout = "2006-01-02"

// Frame returns the cleaned dataset as a gota DataFrame, one series per
// column in dataset order. Missing text is "NaN"; missing numbers are NaN.
func Frame(ds *model.Dataset) dataframe.DataFrame {
	n := len(ds.Records)
	cols := make([]series.Series, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		switch c.Kind {
		case model.KindDate:
			cells := make([]string, n)
			for i, r := range ds.Records {
				cells[i] = "NaN"
				if r.HasDate() {
					cells[i] = r.Date.Format(dateLayout)
				}
			}
			cols = append(cols, series.New(cells, series.String, c.Name))
		case model.KindIdentifier:
			cells := make([]string, n)
			for i, r := range ds.Records {
				cells[i] = r.Labels[c.Name]
			}
			cols = append(cols, series.New(cells, series.String, c.Name))
		case model.KindNumeric, model.KindPercent:
			vals := make([]float64, n)
			for i, r := range ds.Records {
				vals[i] = r.Value(c.Name)
			}
			cols = append(cols, series.New(vals, series.Float, c.Name))
		case model.KindDerived:
			cells := make([]string, n)
			for i, r := range ds.Records {
				cells[i] = "NaN"
				switch {
				case c.Name == model.ColumnYear && r.Year != 0:
					cells[i] = strconv.Itoa(r.Year)
				case c.Name == model.ColumnCalendarKey && r.Key.Valid():
					cells[i] = r.Key.String()
				}
			}
			t := series.String
			if c.Name == model.ColumnYear {
				t = series.Int
			}
			cols = append(cols, series.New(cells, t, c.Name))
		}
	}
	return dataframe.New(cols...)
}

// Table is a page of cleaned rows ready for display. Missing cells are nil.
type Table struct {
	Columns []model.Column
	Rows    [][]any
	Offset  int
	Total   int
}

// Preview returns up to limit rows starting at offset.
func Preview(ds *model.Dataset, offset, limit int) Table {
	t := Table{Columns: ds.Columns, Offset: offset, Total: len(ds.Records)}
	if offset < 0 {
		t.Offset, offset = 0, 0
	}
	if limit <= 0 || offset >= len(ds.Records) {
		return t
	}
	end := offset + limit
	if end > len(ds.Records) {
		end = len(ds.Records)
	}
	idx := make([]int, 0, end-offset)
	for i := offset; i < end; i++ {
		idx = append(idx, i)
	}

	page := Frame(ds).Subset(idx)
	t.Rows = make([][]any, page.Nrow())
	for i := range t.Rows {
		t.Rows[i] = make([]any, len(ds.Columns))
	}
	for c, col := range ds.Columns {
		s := page.Col(col.Name)
		for i := 0; i < s.Len(); i++ {
			t.Rows[i][c] = cellValue(s.Elem(i), s.Type())
		}
	}
	return t
}

func cellValue(e series.Element, t series.Type) any {
	if e.IsNA() {
		return nil
	}
	switch t {
	case series.Float:
		v := e.Float()
		if math.IsNaN(v) {
			return nil
		}
		return v
	case series.Int:
		v, err := e.Int()
		if err != nil {
			return nil
		}
		return v
	default:
		return e.String()
	}
}

// Distinct returns the values of an identifier column in first appearance
// order. Empty cells are listed as model.BlankLabel.
func Distinct(ds *model.Dataset, column string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range ds.Records {
		if _, ok := r.Labels[column]; !ok {
			continue
		}
		v := r.Label(column)
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Years returns the distinct years of rows with a parseable date, ascending.
func Years(ds *model.Dataset) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, r := range ds.Records {
		if r.Year == 0 {
			continue
		}
		if _, dup := seen[r.Year]; dup {
			continue
		}
		seen[r.Year] = struct{}{}
		out = append(out, r.Year)
	}
	sort.Ints(out)
	return out
}

// MetricColumns returns numeric and percent columns in source order,
// skipping the names in exclude.
func MetricColumns(ds *model.Dataset, exclude []string) []string {
	var out []string
	for _, c := range ds.Columns {
		if c.IsMetric() && !contains(exclude, c.Name) {
			out = append(out, c.Name)
		}
	}
	return out
}
