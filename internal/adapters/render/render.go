// Package render draws chart specs as PNG or SVG with go-chart.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strconv"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/okian/campaignboard/internal/domain/model"
	"github.com/okian/campaignboard/pkg/metrics"
)

// Format is an output image format.
type Format string

// Supported formats.
const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" or "svg" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Renderer draws one stacked image per chart spec.
type Renderer struct {
	width       int
	panelHeight int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithWidth sets the image width in pixels.
func WithWidth(w int) Option {
	return func(r *Renderer) {
		if w > 0 {
			r.width = w
		}
	}
}

// WithPanelHeight sets the height of each facet panel in pixels.
func WithPanelHeight(h int) Option {
	return func(r *Renderer) {
		if h > 0 {
			r.panelHeight = h
		}
	}
}

// New returns a renderer with a 1200px width and 420px panels by default.
func New(opts ...Option) *Renderer {
	r := &Renderer{width: 1200, panelHeight: 420}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Size returns the pixel size of the image Render would produce for spec.
func (r *Renderer) Size(spec model.ChartSpec) (int, int) {
	n := len(spec.Panels)
	if n == 0 {
		n = 1
	}
	return r.width, n * r.panelHeight
}

// Render writes spec to w. An empty spec renders the axes and campaign bands
// without lines.
func (r *Renderer) Render(w io.Writer, spec model.ChartSpec, format Format) error {
	start := time.Now()
	charts := r.panels(spec)

	var err error
	switch format {
	case FormatPNG:
		err = r.stackPNG(w, charts)
	case FormatSVG:
		err = r.stackSVG(w, charts)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return err
	}
	metrics.RecordChartRender(string(format), float64(time.Since(start).Milliseconds()))
	return nil
}

// panels builds one go-chart Chart per spec panel.
func (r *Renderer) panels(spec model.ChartSpec) []chart.Chart {
	panels := spec.Panels
	if len(panels) == 0 {
		panels = []model.Panel{{}}
	}
	refYear := spec.Domain[0].Time().Year()
	if !spec.Domain[0].Valid() {
		refYear = model.DefaultReferenceYear
	}
	xmin := time.Date(refYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	xmax := time.Date(refYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	ymin, ymax := 0.0, 1.0
	if lo, hi, ok := valueRange(spec.Panels); ok {
		ymin, ymax = niceAxisBounds(lo, hi, spec.Percent)
	}

	colors := yearColors(spec.Years)
	out := make([]chart.Chart, 0, len(panels))
	for i, p := range panels {
		var series []chart.Series
		var legend []chart.Series

		for _, wdw := range spec.Windows {
			if !wdw.Start.Valid() || !wdw.End.Valid() {
				continue
			}
			c := bandColor(wdw)
			series = append(series, chart.TimeSeries{
				Name:    wdw.Label,
				XValues: []time.Time{wdw.Start.Time(), wdw.End.Time()},
				YValues: []float64{ymax, ymax},
				Style:   chart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1},
			})
		}

		for _, s := range p.Series {
			col := colors[s.Year]
			for k, rn := range splitRuns(s) {
				st := chart.Style{StrokeColor: col, StrokeWidth: 2}
				if len(rn.x) == 1 {
					st.DotColor = col
					st.DotWidth = 3
				}
				ts := chart.TimeSeries{XValues: rn.x, YValues: rn.y, Style: st}
				if k == 0 {
					ts.Name = strconv.Itoa(s.Year)
					legend = append(legend, chart.TimeSeries{Name: ts.Name, XValues: rn.x, YValues: rn.y, Style: st})
				}
				series = append(series, ts)
			}
		}
		if len(series) == 0 {
			series = append(series, chart.TimeSeries{
				XValues: []time.Time{xmin, xmax},
				YValues: []float64{ymin, ymin},
				Style:   chart.Style{Hidden: true},
			})
		}

		if labels := bandLabels(spec.Windows, ymax); len(labels.Annotations) > 0 {
			series = append(series, labels)
		}

		y := chart.YAxis{
			Name:  spec.Metric,
			Range: &chart.ContinuousRange{Min: ymin, Max: ymax},
			Style: chart.Style{FontColor: colorText, StrokeColor: colorGrid},
			NameStyle: chart.Style{
				FontColor: colorText,
			},
		}
		if spec.Percent {
			y.ValueFormatter = chart.PercentValueFormatter
		}

		c := chart.Chart{
			Title:      panelTitle(spec, p, i),
			TitleStyle: chart.Style{FontColor: colorText, FontSize: 12},
			Width:      r.width,
			Height:     r.panelHeight,
			Background: chart.Style{
				FillColor: colorBackground,
				Padding:   chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16},
			},
			Canvas: chart.Style{FillColor: colorBackground},
			XAxis: chart.XAxis{
				Name:      "Calendar Day",
				NameStyle: chart.Style{FontColor: colorText},
				Range: &chart.ContinuousRange{
					Min: chart.TimeToFloat64(xmin),
					Max: chart.TimeToFloat64(xmax),
				},
				Ticks: monthTicks(refYear),
				Style: chart.Style{FontColor: colorText, StrokeColor: colorGrid},
			},
			YAxis:  y,
			Series: series,
		}
		if len(legend) > 0 {
			lc := chart.Chart{Series: legend}
			c.Elements = []chart.Renderable{chart.Legend(&lc, chart.Style{
				FillColor:   colorBackground,
				FontColor:   colorText,
				StrokeColor: colorGrid,
			})}
		}
		out = append(out, c)
	}
	return out
}

// bandLabels puts each window's label at the top of its band.
func bandLabels(windows []model.CampaignWindow, ymax float64) chart.AnnotationSeries {
	as := chart.AnnotationSeries{
		Style: chart.Style{
			FillColor:   colorBackground,
			FontColor:   colorText,
			StrokeColor: colorGrid,
		},
	}
	for _, w := range windows {
		if !w.Start.Valid() || !w.End.Valid() || w.Label == "" {
			continue
		}
		mid := w.Start.Time().Add(w.End.Time().Sub(w.Start.Time()) / 2)
		as.Annotations = append(as.Annotations, chart.Value2{
			XValue: chart.TimeToFloat64(mid),
			YValue: ymax,
			Label:  w.Label,
		})
	}
	return as
}

func panelTitle(spec model.ChartSpec, p model.Panel, i int) string {
	title := spec.Title
	if spec.Empty() {
		return title + " (no data selected)"
	}
	if spec.FacetColumn != "" {
		facet := spec.FacetColumn + "=" + p.Facet
		if i == 0 {
			return title + "  |  " + facet
		}
		return facet
	}
	return title
}

func (r *Renderer) stackPNG(w io.Writer, charts []chart.Chart) error {
	dst := image.NewRGBA(image.Rect(0, 0, r.width, r.panelHeight*len(charts)))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: colorBackground}, image.Point{}, draw.Src)

	for i, c := range charts {
		var buf bytes.Buffer
		if err := c.Render(chart.PNG, &buf); err != nil {
			return fmt.Errorf("render panel %d: %w", i, err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			return fmt.Errorf("decode panel %d: %w", i, err)
		}
		at := image.Rect(0, i*r.panelHeight, r.width, (i+1)*r.panelHeight)
		draw.Draw(dst, at, img, img.Bounds().Min, draw.Over)
	}
	return png.Encode(w, dst)
}

func (r *Renderer) stackSVG(w io.Writer, charts []chart.Chart) error {
	var out bytes.Buffer
	fmt.Fprintf(&out,
		`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%d" height="%d" style="background-color:%s">`+"\n",
		r.width, r.panelHeight*len(charts), colorBackground.String())

	for i, c := range charts {
		var buf bytes.Buffer
		if err := c.Render(chart.SVG, &buf); err != nil {
			return fmt.Errorf("render panel %d: %w", i, err)
		}
		fmt.Fprintf(&out, `<g transform="translate(0,%d)">`+"\n", i*r.panelHeight)
		out.Write(bytes.TrimPrefix(buf.Bytes(), []byte(xmlHeader)))
		out.WriteString("</g>\n")
	}
	out.WriteString("</svg>\n")
	_, err := w.Write(out.Bytes())
	return err
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`
