package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/okian/campaignboard/internal/domain/model"
)

// Read opens path and cleans it with schema. A missing or unreadable file
// wraps ErrSourceUnavailable.
func Read(ctx context.Context, path string, schema Schema) (*model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceUnavailable, path)
	}

	ds, err := Parse(ctx, f, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ds.Source = path
	ds.ModTime = info.ModTime()
	ds.Size = info.Size()
	return ds, nil
}

// Parse cleans CSV text from r.
func Parse(ctx context.Context, r io.Reader, schema Schema) (*model.Dataset, error) {
	if schema.DateColumn == "" {
		schema.DateColumn = DefaultDateColumn
	}
	if schema.ReferenceYear <= 0 {
		schema.ReferenceYear = model.DefaultReferenceYear
	}

	raw, err := readText(r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !contains(raw.Names(), schema.DateColumn) {
		return nil, fmt.Errorf("%w: %q", ErrMissingDateColumn, schema.DateColumn)
	}

	return clean(raw, schema), nil
}

// readText loads every cell as a gota String series. Headers are trimmed,
// empty headers become "Unnamed: N" and repeated headers get ".N" suffixes.
func readText(r io.Reader) (dataframe.DataFrame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %w", ErrMalformedSource, err)
	}
	if len(rows) == 0 {
		return dataframe.DataFrame{}, ErrEmptySource
	}

	names := headerNames(rows[0])
	body := rows[1:]
	columns := make([]series.Series, len(names))
	for c, name := range names {
		cells := make([]string, len(body))
		for i, row := range body {
			if c < len(row) {
				cells[i] = strings.TrimSpace(row[c])
			}
		}
		columns[c] = series.New(cells, series.String, name)
	}

	df := dataframe.New(columns...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %w", ErrMalformedSource, df.Err)
	}
	return df, nil
}

func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

// clean types the text frame into a Dataset.
func clean(raw dataframe.DataFrame, schema Schema) *model.Dataset {
	percent := schema.PercentColumns
	if schema.detectPercent() {
		exclude := append([]string{schema.DateColumn}, schema.Identifiers...)
		percent = DetectPercentColumns(raw, exclude)
	}

	ds := &model.Dataset{
		DateColumn: schema.DateColumn,
		LoadedAt:   time.Now(),
	}

	type typedColumn struct {
		model.Column
		cells []string
	}
	var cols []typedColumn
	for _, name := range raw.Names() {
		if name == model.ColumnYear || name == model.ColumnCalendarKey {
			continue
		}
		kind := model.KindNumeric
		switch {
		case name == schema.DateColumn:
			kind = model.KindDate
		case schema.isIdentifier(name):
			kind = model.KindIdentifier
		case contains(percent, name):
			kind = model.KindPercent
		}
		cols = append(cols, typedColumn{
			Column: model.Column{Name: name, Kind: kind},
			cells:  raw.Col(name).Records(),
		})
		ds.Columns = append(ds.Columns, model.Column{Name: name, Kind: kind})
	}
	ds.Columns = append(ds.Columns,
		model.Column{Name: model.ColumnYear, Kind: model.KindDerived},
		model.Column{Name: model.ColumnCalendarKey, Kind: model.KindDerived},
	)

	n := raw.Nrow()
	ds.Records = make([]model.Record, n)
	for i := 0; i < n; i++ {
		rec := model.Record{
			Row:    i,
			Labels: make(map[string]string),
			Values: make(map[string]float64),
		}
		for _, col := range cols {
			cell := col.cells[i]
			switch col.Kind {
			case model.KindDate:
				if cell == "NaN" {
					cell = ""
				}
				rec.RawDate = cell
				if t, ok := ParseDate(cell); ok {
					rec.Date = t
					rec.Year = t.Year()
					rec.Key = model.NewCalendarKey(schema.ReferenceYear, t)
				} else {
					ds.MissingCells++
				}
			case model.KindIdentifier:
				if cell == "NaN" {
					cell = ""
				}
				rec.Labels[col.Name] = cell
			default:
				v := ParseNumber(cell, col.Kind == model.KindPercent)
				if math.IsNaN(v) {
					ds.MissingCells++
				}
				rec.Values[col.Name] = v
			}
		}
		ds.Records[i] = rec
	}
	return ds
}

// IsUnavailable reports whether err means the source file could not be read.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}
