// Package model contains domain models passed between layers.
package model

import (
	"math"
	"time"
)

// Names of the columns every cleaned dataset gains.
const (
	ColumnYear        = "Year"
	ColumnCalendarKey = "CalendarKey"
)

// ColumnKind tells how a column was typed during cleaning.
type ColumnKind string

// Column kinds.
const (
	KindDate       ColumnKind = "date"
	KindIdentifier ColumnKind = "identifier"
	KindNumeric    ColumnKind = "numeric"
	KindPercent    ColumnKind = "percent"
	KindDerived    ColumnKind = "derived"
)

// Column describes one column of a cleaned dataset.
type Column struct {
	Name string
	Kind ColumnKind
}

// IsMetric reports whether the column holds plottable numbers.
func (c Column) IsMetric() bool {
	return c.Kind == KindNumeric || c.Kind == KindPercent
}

// Record is one cleaned source row.
type Record struct {
	// Row is the zero-based position of the row in the source file.
	Row int
	// Date is zero when the source text could not be parsed.
	Date time.Time
	// RawDate keeps the source text of the date cell.
	RawDate string
	// Year is 0 when Date is missing.
	Year int
	Key  CalendarKey
	// Labels holds identifier columns as trimmed text.
	Labels map[string]string
	// Values holds metric columns; NaN marks a missing cell.
	Values map[string]float64
}

// HasDate reports whether the row made it onto the time axis.
func (r Record) HasDate() bool { return !r.Date.IsZero() }

// Value returns the metric value or NaN when the column is absent.
func (r Record) Value(column string) float64 {
	v, ok := r.Values[column]
	if !ok {
		return math.NaN()
	}
	return v
}

// BlankLabel stands for an empty identifier cell in selectors and facets.
const BlankLabel = "(blank)"

// Label returns the identifier text for a column, or BlankLabel when the
// cell is empty.
func (r Record) Label(column string) string {
	if v := r.Labels[column]; v != "" {
		return v
	}
	return BlankLabel
}

// Dataset is the cleaned, typed form of one source file.
type Dataset struct {
	Source     string
	DateColumn string
	Columns    []Column
	Records    []Record
	// MissingCells counts metric cells and dates that were coerced to missing.
	MissingCells int
	ModTime      time.Time
	Size         int64
	LoadedAt     time.Time
}

// Column returns the named column.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Shape returns rows and columns, like a dataframe would.
func (d *Dataset) Shape() (int, int) {
	return len(d.Records), len(d.Columns)
}
