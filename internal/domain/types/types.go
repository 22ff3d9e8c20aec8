// Package types contains the read shapes shared by the service and its
// HTTP and CLI front ends.
package types

import (
	"math"
	"time"

	"github.com/okian/campaignboard/internal/domain/model"
)

// PageSummary is a dashboard page as listed in navigation.
type PageSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Caption     string `json:"caption,omitempty"`
	Source      string `json:"source"`
}

// ColumnInfo describes one column of a cleaned dataset.
type ColumnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Controls are the options and defaults of a page's selectors. A nil list
// means the page has no such selector.
type Controls struct {
	Regions        []string `json:"regions,omitempty"`
	Years          []int    `json:"years"`
	Modes          []string `json:"modes,omitempty"`
	Metrics        []string `json:"metrics"`
	DefaultRegions []string `json:"default_regions,omitempty"`
	DefaultYears   []int    `json:"default_years"`
	DefaultModes   []string `json:"default_modes,omitempty"`
	DefaultMetric  string   `json:"default_metric"`
}

// PageDetail is a page with its loaded dataset shape and selectors.
type PageDetail struct {
	PageSummary
	Rows         int          `json:"rows"`
	Columns      int          `json:"columns"`
	MissingCells int          `json:"missing_cells"`
	LoadedAt     time.Time    `json:"loaded_at"`
	ModTime      time.Time    `json:"modified_at"`
	Schema       []ColumnInfo `json:"schema"`
	FacetColumn  string       `json:"facet_column,omitempty"`
	Windows      []WindowView `json:"windows"`
	Controls     Controls     `json:"controls"`
}

// Preview is a page of cleaned rows. Missing cells are null.
type Preview struct {
	Columns []ColumnInfo `json:"columns"`
	Rows    [][]any      `json:"rows"`
	Offset  int          `json:"offset"`
	Limit   int          `json:"limit"`
	Total   int          `json:"total"`
}

// SelectionQuery is a user selection before defaults are applied. A nil list
// means "use the page default"; a non-nil empty list selects nothing.
type SelectionQuery struct {
	Metric  string
	Regions []string
	Years   []int
	Modes   []string
}

// Columns converts dataset columns for display.
func Columns(cols []model.Column) []ColumnInfo {
	out := make([]ColumnInfo, len(cols))
	for i, c := range cols {
		out[i] = ColumnInfo{Name: c.Name, Kind: string(c.Kind)}
	}
	return out
}

// WindowView is a campaign window in JSON form.
type WindowView struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Start   string  `json:"start"`
	End     string  `json:"end"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

// PointView is one chart point. Value is null for a gap.
type PointView struct {
	Key   string   `json:"x"`
	Date  string   `json:"date,omitempty"`
	Value *float64 `json:"y"`
}

// SeriesView is one year's line.
type SeriesView struct {
	Year   int         `json:"year"`
	Points []PointView `json:"points"`
}

// PanelView is one facet panel.
type PanelView struct {
	Facet  string       `json:"facet,omitempty"`
	Series []SeriesView `json:"series"`
}

// ChartView is a ChartSpec that encodes to JSON.
type ChartView struct {
	Title       string       `json:"title"`
	Metric      string       `json:"metric"`
	Percent     bool         `json:"percent"`
	FacetColumn string       `json:"facet_column,omitempty"`
	Years       []int        `json:"years"`
	Domain      [2]string    `json:"domain"`
	Windows     []WindowView `json:"windows"`
	Panels      []PanelView  `json:"panels"`
	Empty       bool         `json:"empty"`
}

// Windows converts campaign windows for display.
func Windows(ws []model.CampaignWindow) []WindowView {
	out := make([]WindowView, len(ws))
	for i, w := range ws {
		out[i] = WindowView{
			Name:    w.Name,
			Label:   w.Label,
			Start:   w.Start.String(),
			End:     w.End.String(),
			Color:   w.Color,
			Opacity: w.Opacity,
		}
	}
	return out
}

// NewChartView converts spec, turning NaN values into nulls.
func NewChartView(spec model.ChartSpec) ChartView {
	v := ChartView{
		Title:       spec.Title,
		Metric:      spec.Metric,
		Percent:     spec.Percent,
		FacetColumn: spec.FacetColumn,
		Years:       append([]int{}, spec.Years...),
		Domain:      [2]string{spec.Domain[0].String(), spec.Domain[1].String()},
		Windows:     Windows(spec.Windows),
		Panels:      make([]PanelView, 0, len(spec.Panels)),
		Empty:       spec.Empty(),
	}
	for _, p := range spec.Panels {
		pv := PanelView{Facet: p.Facet, Series: make([]SeriesView, 0, len(p.Series))}
		for _, s := range p.Series {
			sv := SeriesView{Year: s.Year, Points: make([]PointView, 0, len(s.Points))}
			for _, pt := range s.Points {
				point := PointView{Key: pt.Key.String()}
				if !pt.Date.IsZero() {
					point.Date = pt.Date.Format("2006-01-02")
				}
				if !math.IsNaN(pt.Value) && !math.IsInf(pt.Value, 0) {
					val := pt.Value
					point.Value = &val
				}
				sv.Points = append(sv.Points, point)
			}
			pv.Series = append(pv.Series, sv)
		}
		v.Panels = append(v.Panels, pv)
	}
	return v
}
