// Package dataset turns campaign CSV exports into typed, cleaned datasets.
//
// Every cell is read as text first so that thousands separators, stray
// whitespace and percent signs can be handled before numeric coercion.
// Bad cells never fail a load; they become missing values.
package dataset

import (
	"github.com/okian/campaignboard/internal/domain/model"
)

// DefaultDateColumn is the column parsed into Date when none is configured.
const DefaultDateColumn = "Date"

// Schema tells the loader how to type the columns of one source.
type Schema struct {
	// DateColumn is parsed into Record.Date and always treated as an identifier.
	DateColumn string
	// Identifiers are kept as text and never coerced to numbers.
	Identifiers []string
	// PercentColumns lists the columns holding "NN%" values. When empty,
	// percent columns are detected from the cell text instead.
	PercentColumns []string
	// ReferenceYear is the year CalendarKeys are stamped onto.
	ReferenceYear int
}

// Option configures a Schema.
type Option func(*Schema)

// WithDateColumn sets the date column name.
func WithDateColumn(name string) Option {
	return func(s *Schema) {
		if name != "" {
			s.DateColumn = name
		}
	}
}

// WithIdentifiers sets the identifier columns.
func WithIdentifiers(names ...string) Option {
	return func(s *Schema) {
		s.Identifiers = append([]string(nil), names...)
	}
}

// WithPercentColumns pins the percent columns and disables detection.
func WithPercentColumns(names ...string) Option {
	return func(s *Schema) {
		s.PercentColumns = append([]string(nil), names...)
	}
}

// WithReferenceYear sets the CalendarKey year.
func WithReferenceYear(year int) Option {
	return func(s *Schema) {
		if year > 0 {
			s.ReferenceYear = year
		}
	}
}

// NewSchema builds a Schema with defaults: a "Date" column, "Region" as the
// only other identifier, detected percent columns and reference year 2000.
func NewSchema(opts ...Option) Schema {
	s := Schema{
		DateColumn:    DefaultDateColumn,
		Identifiers:   []string{"Region"},
		ReferenceYear: model.DefaultReferenceYear,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// isIdentifier reports whether name is kept as text.
func (s Schema) isIdentifier(name string) bool {
	return name == s.DateColumn || contains(s.Identifiers, name)
}

// detectPercent reports whether percent columns come from the cell text.
func (s Schema) detectPercent() bool {
	return len(s.PercentColumns) == 0
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
