package model

import (
	"time"
)

// MetricSelection is the user's current filter and metric choice. A nil or
// empty slice on an active filter selects nothing.
type MetricSelection struct {
	Metric  string
	Regions []string
	Years   []int
	Modes   []string
}

// CampaignWindow is a fixed calendar range highlighted on every chart.
type CampaignWindow struct {
	Name    string
	Label   string
	Start   CalendarKey
	End     CalendarKey
	Color   string
	Opacity float64
}

// Point is one plotted value. Value is NaN where the line has a gap.
type Point struct {
	Key   CalendarKey
	Date  time.Time
	Value float64
}

// Series is the line of one year.
type Series struct {
	Year   int
	Points []Point
}

// Panel is one facet of a chart. Facet is empty for an unfaceted chart.
type Panel struct {
	Facet  string
	Series []Series
}

// ChartSpec is the render-only description of a year-over-year chart.
type ChartSpec struct {
	Title       string
	Metric      string
	Percent     bool
	FacetColumn string
	Panels      []Panel
	Years       []int
	Windows     []CampaignWindow
	// Domain is the x axis range on the reference year.
	Domain [2]CalendarKey
}

// Empty reports whether nothing was selected.
func (c ChartSpec) Empty() bool { return len(c.Panels) == 0 }
