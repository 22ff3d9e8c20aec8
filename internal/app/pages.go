package service

import (
	"fmt"
	"path/filepath"

	"github.com/okian/campaignboard/internal/adapters/repository"
	"github.com/okian/campaignboard/internal/config"
	"github.com/okian/campaignboard/internal/domain/chart"
	"github.com/okian/campaignboard/internal/domain/dataset"
	"github.com/okian/campaignboard/internal/domain/model"
	"github.com/okian/campaignboard/internal/domain/types"
)

// page is a configured page compiled into a loader schema and chart layout.
type page struct {
	cfg    config.Page
	source string
	// key is source as the store and watcher name it.
	key    string
	schema dataset.Schema
	layout chart.Layout
}

func (s *Service) compilePages() ([]*page, error) {
	windows := make(map[string]model.CampaignWindow, len(s.campaigns))
	for _, c := range s.campaigns {
		start, end, err := c.Window(s.referenceYear)
		if err != nil {
			return nil, err
		}
		windows[c.Name] = model.CampaignWindow{
			Name:    c.Name,
			Label:   c.Label,
			Start:   start,
			End:     end,
			Color:   c.Color,
			Opacity: c.Opacity,
		}
	}

	out := make([]*page, 0, len(s.pages))
	seen := make(map[string]struct{}, len(s.pages))
	for _, p := range s.pages {
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate page %q", p.ID)
		}
		seen[p.ID] = struct{}{}

		layout := chart.Layout{
			RegionColumn:  p.RegionColumn,
			ModeColumn:    p.ModeColumn,
			FacetColumn:   p.FacetColumn,
			TitleTemplate: p.TitleTemplate,
			ReferenceYear: s.referenceYear,
		}
		for _, name := range p.Campaigns {
			w, ok := windows[name]
			if !ok {
				return nil, fmt.Errorf("page %q names unknown campaign %q", p.ID, name)
			}
			layout.Windows = append(layout.Windows, w)
		}

		opts := []dataset.Option{
			dataset.WithDateColumn(p.DateColumn),
			dataset.WithIdentifiers(p.Identifiers...),
			dataset.WithReferenceYear(s.referenceYear),
		}
		if len(p.PercentColumns) > 0 {
			opts = append(opts, dataset.WithPercentColumns(p.PercentColumns...))
		}

		source := p.Source
		if !filepath.IsAbs(source) {
			source = filepath.Join(s.dataDir, source)
		}
		key, err := repository.Key(source)
		if err != nil {
			key = source
		}
		out = append(out, &page{
			cfg:    p,
			source: source,
			key:    key,
			schema: dataset.NewSchema(opts...),
			layout: layout,
		})
	}
	return out, nil
}

func (p *page) summary() types.PageSummary {
	return types.PageSummary{
		ID:          p.cfg.ID,
		Title:       p.cfg.Title,
		Description: p.cfg.Description,
		Caption:     p.cfg.Caption,
		Source:      p.source,
	}
}

// metrics returns the metrics the page offers on ds: the configured list
// where it names metric columns of ds, or every metric column when no list
// is configured.
func (p *page) metrics(ds *model.Dataset) []string {
	if len(p.cfg.Metrics) == 0 {
		return dataset.MetricColumns(ds, p.cfg.ExcludeMetrics)
	}
	out := make([]string, 0, len(p.cfg.Metrics))
	for _, m := range p.cfg.Metrics {
		if c, ok := ds.Column(m); ok && c.IsMetric() {
			out = append(out, m)
		}
	}
	return out
}

// controls lists the selector options and defaults of the page on ds.
func (p *page) controls(ds *model.Dataset) types.Controls {
	c := types.Controls{
		Years:   dataset.Years(ds),
		Metrics: p.metrics(ds),
	}
	if c.Years == nil {
		c.Years = []int{}
	}
	if c.Metrics == nil {
		c.Metrics = []string{}
	}
	c.DefaultYears = c.Years
	if len(c.Metrics) > 0 {
		c.DefaultMetric = c.Metrics[0]
	}

	if p.layout.RegionColumn != "" {
		c.Regions = nonNil(dataset.Distinct(ds, p.layout.RegionColumn))
		c.DefaultRegions = c.Regions
	}
	if p.layout.ModeColumn != "" {
		c.Modes = nonNil(dataset.Distinct(ds, p.layout.ModeColumn))
		c.DefaultModes = intersect(p.cfg.DefaultModes, c.Modes)
		if len(c.DefaultModes) == 0 {
			c.DefaultModes = c.Modes
		}
	}
	return c
}

// selection applies the page defaults to q. Nil lists take the default,
// empty lists stay empty.
func (p *page) selection(ds *model.Dataset, q types.SelectionQuery) (model.MetricSelection, error) {
	c := p.controls(ds)

	sel := model.MetricSelection{
		Metric:  q.Metric,
		Regions: q.Regions,
		Years:   q.Years,
		Modes:   q.Modes,
	}
	if sel.Metric == "" {
		sel.Metric = c.DefaultMetric
	}
	if !contains(c.Metrics, sel.Metric) {
		if sel.Metric == "" {
			return model.MetricSelection{}, fmt.Errorf("%w: page %q has no metric columns", ErrUnknownMetric, p.cfg.ID)
		}
		return model.MetricSelection{}, fmt.Errorf("%w: %q is not offered on page %q", ErrUnknownMetric, sel.Metric, p.cfg.ID)
	}
	if sel.Regions == nil {
		sel.Regions = c.DefaultRegions
	}
	if sel.Years == nil {
		sel.Years = c.DefaultYears
	}
	if sel.Modes == nil {
		sel.Modes = c.DefaultModes
	}
	return sel, nil
}

func intersect(want, have []string) []string {
	var out []string
	for _, v := range want {
		if contains(have, v) {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
