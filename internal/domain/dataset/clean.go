package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// dateLayouts are tried in order. Slashed dates are month-first. Layouts
// with seconds also take a fractional part.
var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05-0700",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"2006.01.02",
	"02-Jan-2006",
	"2-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon, 02 Jan 2006",
	"20060102",
}

// nullTokens are cell texts that mean "no value".
var nullTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
	"-":    {},
	"--":   {},
	"#n/a": {},
}

// ParseDate parses s with the tolerated layouts. It returns false for blanks
// and anything no layout accepts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if isNull(s) {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber coerces cell text to a float. Thousands separators and spaces
// are dropped. With percent set, "%" signs are stripped and the number is
// divided by 100. Anything unparseable is NaN.
func ParseNumber(s string, percent bool) float64 {
	s = strings.TrimSpace(s)
	if percent {
		s = strings.ReplaceAll(s, "%", "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if isNull(s) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	if percent {
		v /= 100
	}
	return v
}

// DetectPercentColumns returns, in frame order, the columns outside exclude
// whose text contains "%" in any cell.
func DetectPercentColumns(frame dataframe.DataFrame, exclude []string) []string {
	var out []string
	for _, name := range frame.Names() {
		if contains(exclude, name) {
			continue
		}
		for _, cell := range frame.Col(name).Records() {
			if strings.Contains(cell, "%") {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

func isNull(s string) bool {
	_, ok := nullTokens[strings.ToLower(s)]
	return ok
}
