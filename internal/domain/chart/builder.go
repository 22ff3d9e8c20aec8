// Package chart turns a cleaned dataset and a selection into a year-over-year
// chart description. It does no drawing.
package chart

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/campaignboard/internal/domain/model"
)

// MetricPlaceholder is replaced by the metric name in Layout.TitleTemplate.
const MetricPlaceholder = "{metric}"

// Layout is the per-page chart configuration.
type Layout struct {
	// RegionColumn enables the region filter when set.
	RegionColumn string
	// ModeColumn enables the match-mode filter when set.
	ModeColumn string
	// FacetColumn splits the chart into one panel per value when set.
	FacetColumn   string
	TitleTemplate string
	Windows       []model.CampaignWindow
	ReferenceYear int
}

// Title expands the layout's title template for metric.
func Title(layout Layout, metric string) string {
	if layout.TitleTemplate == "" {
		return metric
	}
	return strings.ReplaceAll(layout.TitleTemplate, MetricPlaceholder, metric)
}

// Filter returns the records inside the selection, in source order. Records
// without a year never match the year filter.
func Filter(ds *model.Dataset, layout Layout, sel model.MetricSelection) []model.Record {
	regions := toSet(sel.Regions)
	modes := toSet(sel.Modes)
	years := make(map[int]struct{}, len(sel.Years))
	for _, y := range sel.Years {
		years[y] = struct{}{}
	}

	var out []model.Record
	for _, r := range ds.Records {
		if _, ok := years[r.Year]; !ok || r.Year == 0 {
			continue
		}
		if layout.RegionColumn != "" {
			if _, ok := regions[r.Label(layout.RegionColumn)]; !ok {
				continue
			}
		}
		if layout.ModeColumn != "" {
			if _, ok := modes[r.Label(layout.ModeColumn)]; !ok {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Build filters ds by sel and groups the rows into panels and yearly series.
// An empty selection gives a spec without panels. A metric that is not a
// numeric column of ds is ErrUnknownMetric.
func Build(ds *model.Dataset, layout Layout, sel model.MetricSelection) (model.ChartSpec, error) {
	col, ok := ds.Column(sel.Metric)
	if !ok || !col.IsMetric() {
		return model.ChartSpec{}, fmt.Errorf("%w: %q", ErrUnknownMetric, sel.Metric)
	}
	if layout.FacetColumn != "" {
		if fc, ok := ds.Column(layout.FacetColumn); !ok || fc.Kind != model.KindIdentifier {
			return model.ChartSpec{}, fmt.Errorf("%w: %q", ErrUnknownFacet, layout.FacetColumn)
		}
	}

	refYear := layout.ReferenceYear
	if refYear <= 0 {
		refYear = model.DefaultReferenceYear
	}

	spec := model.ChartSpec{
		Title:       Title(layout, sel.Metric),
		Metric:      sel.Metric,
		Percent:     col.Kind == model.KindPercent,
		FacetColumn: layout.FacetColumn,
		Windows:     layout.Windows,
		Domain:      domain(refYear),
	}

	type panelRows struct {
		facet string
		byYr  map[int][]model.Point
	}
	var panels []*panelRows
	index := make(map[string]*panelRows)
	yearSet := make(map[int]struct{})

	for _, r := range Filter(ds, layout, sel) {
		if !r.Key.Valid() {
			continue
		}
		facet := ""
		if layout.FacetColumn != "" {
			facet = r.Label(layout.FacetColumn)
		}
		p, ok := index[facet]
		if !ok {
			p = &panelRows{facet: facet, byYr: make(map[int][]model.Point)}
			index[facet] = p
			panels = append(panels, p)
		}
		p.byYr[r.Year] = append(p.byYr[r.Year], model.Point{
			Key:   r.Key,
			Date:  r.Date,
			Value: r.Value(sel.Metric),
		})
		yearSet[r.Year] = struct{}{}
	}

	for y := range yearSet {
		spec.Years = append(spec.Years, y)
	}
	sort.Ints(spec.Years)

	for _, p := range panels {
		panel := model.Panel{Facet: p.facet}
		for _, y := range spec.Years {
			points, ok := p.byYr[y]
			if !ok {
				continue
			}
			sort.SliceStable(points, func(i, j int) bool {
				return points[i].Key.Before(points[j].Key)
			})
			panel.Series = append(panel.Series, model.Series{Year: y, Points: points})
		}
		spec.Panels = append(spec.Panels, panel)
	}
	return spec, nil
}

// DefaultWindows returns the two campaign windows highlighted on every chart.
func DefaultWindows(refYear int) []model.CampaignWindow {
	if refYear <= 0 {
		refYear = model.DefaultReferenceYear
	}
	at := func(m time.Month, d int) model.CalendarKey {
		return model.NewCalendarKey(refYear, time.Date(refYear, m, d, 0, 0, 0, 0, time.UTC))
	}
	return []model.CampaignWindow{
		{
			Name:    "nb1",
			Label:   "NB1 Period",
			Start:   at(time.January, 10),
			End:     at(time.February, 9),
			Color:   "#4169E1",
			Opacity: 0.2,
		},
		{
			Name:    "nb2",
			Label:   "NB2 Period",
			Start:   at(time.July, 30),
			End:     at(time.August, 31),
			Color:   "#FFA500",
			Opacity: 0.15,
		},
	}
}

func domain(refYear int) [2]model.CalendarKey {
	return [2]model.CalendarKey{
		model.NewCalendarKey(refYear, time.Date(refYear, time.January, 1, 0, 0, 0, 0, time.UTC)),
		model.NewCalendarKey(refYear, time.Date(refYear, time.December, 31, 0, 0, 0, 0, time.UTC)),
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
