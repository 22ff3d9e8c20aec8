// Package sampledata writes synthetic campaign exports in the shape of the
// stock dashboard pages so the service can run without production data.
package sampledata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidConfig is returned for unusable generator settings.
var ErrInvalidConfig = errors.New("invalid sample data config")

// Config holds configuration for a generator run
type Config struct {
	OutDir  string // Directory the CSV files are written to
	Years   []int  // Calendar years to cover, one row per day and group
	Seed    int64  // Seed for the value noise; equal seeds give equal files
	Verbose bool   // Log every written file
}

// File describes one written export.
type File struct {
	Path    string
	Rows    int
	Columns int
}

// Validate checks the settings before anything is written.
func (c *Config) Validate() error {
	if c.OutDir == "" {
		return fmt.Errorf("%w: output directory must not be empty", ErrInvalidConfig)
	}
	if len(c.Years) == 0 {
		return fmt.Errorf("%w: no years", ErrInvalidConfig)
	}
	for _, y := range c.Years {
		if y < minYear || y > maxYear {
			return fmt.Errorf("%w: year %d out of range", ErrInvalidConfig, y)
		}
	}
	return nil
}

// ParseYears reads a comma separated list ("2023,2024") or a range
// ("2022-2025").
func ParseYears(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if from, to, ok := strings.Cut(s, "-"); ok {
		a, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("%w: years %q: %w", ErrInvalidConfig, s, err)
		}
		b, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("%w: years %q: %w", ErrInvalidConfig, s, err)
		}
		if b < a {
			return nil, fmt.Errorf("%w: years %q: range is inverted", ErrInvalidConfig, s)
		}
		out := make([]int, 0, b-a+1)
		for y := a; y <= b; y++ {
			out = append(out, y)
		}
		return out, nil
	}

	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: years %q: %w", ErrInvalidConfig, s, err)
		}
		out = append(out, y)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no years in %q", ErrInvalidConfig, s)
	}
	return out, nil
}
