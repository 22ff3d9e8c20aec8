package render

import (
	"math"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/okian/campaignboard/internal/domain/model"
)

// Dark theme colors.
var (
	colorBackground = drawing.ColorFromHex("111111")
	colorText       = drawing.ColorWhite
	colorGrid       = drawing.ColorFromHex("444444")
)

// yearPalette is a qualitative palette; years take colors in ascending order.
var yearPalette = []drawing.Color{
	{R: 229, G: 134, B: 6, A: 255},
	{R: 93, G: 105, B: 177, A: 255},
	{R: 82, G: 188, B: 163, A: 255},
	{R: 153, G: 201, B: 69, A: 255},
	{R: 204, G: 97, B: 176, A: 255},
	{R: 36, G: 121, B: 108, A: 255},
	{R: 218, G: 165, B: 27, A: 255},
	{R: 47, G: 138, B: 196, A: 255},
	{R: 118, G: 78, B: 159, A: 255},
	{R: 237, G: 100, B: 90, A: 255},
	{R: 165, G: 170, B: 153, A: 255},
}

// yearColors assigns palette colors to years so that a year keeps its color
// in every panel of one chart.
func yearColors(years []int) map[int]drawing.Color {
	out := make(map[int]drawing.Color, len(years))
	for i, y := range years {
		out[y] = yearPalette[i%len(yearPalette)]
	}
	return out
}

// bandColor parses a "#RRGGBB" window color and applies its opacity.
func bandColor(w model.CampaignWindow) drawing.Color {
	hex := strings.TrimPrefix(strings.TrimSpace(w.Color), "#")
	c := drawing.ColorFromHex(hex)
	if hex == "" {
		c = drawing.ColorFromHex("808080")
	}
	op := w.Opacity
	if op <= 0 || op > 1 {
		op = 0.2
	}
	return c.WithAlpha(uint8(math.Round(op * 255)))
}

// monthTicks labels the first day of every month on the reference year. An
// unlabeled Dec 31 tick closes the axis, since go-chart sizes the x range
// from explicit ticks.
func monthTicks(refYear int) []chart.Tick {
	ticks := make([]chart.Tick, 0, 13)
	for m := time.January; m <= time.December; m++ {
		t := time.Date(refYear, m, 1, 0, 0, 0, 0, time.UTC)
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t), Label: m.String()[:3]})
	}
	end := time.Date(refYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	return append(ticks, chart.Tick{Value: chart.TimeToFloat64(end)})
}

// niceAxisBounds expands [min,max] by a small margin and rounds to readable
// numbers. Percent axes are never pushed below zero.
func niceAxisBounds(min, max float64, percent bool) (float64, float64) {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return 0, 1
	}
	if max <= min {
		max = min + math.Max(math.Abs(min)*0.1, 1e-3)
		if percent {
			max = min + 0.01
		}
	}
	span := max - min
	pad := span * 0.05
	a, b := min-pad, max+pad
	mag := math.Pow(10, math.Floor(math.Log10(span)))
	if !math.IsInf(mag, 0) && mag > 0 {
		a = math.Floor(a/mag) * mag
		b = math.Ceil(b/mag) * mag
	}
	if percent && a < 0 && min >= 0 {
		a = 0
	}
	if b <= a {
		b = a + 1
	}
	return a, b
}

// run is an unbroken stretch of a year's line.
type run struct {
	x []time.Time
	y []float64
}

// splitRuns cuts a series at NaN values so gaps are not bridged.
func splitRuns(s model.Series) []run {
	var out []run
	var cur run
	for _, p := range s.Points {
		if math.IsNaN(p.Value) || !p.Key.Valid() {
			if len(cur.x) > 0 {
				out = append(out, cur)
				cur = run{}
			}
			continue
		}
		cur.x = append(cur.x, p.Key.Time())
		cur.y = append(cur.y, p.Value)
	}
	if len(cur.x) > 0 {
		out = append(out, cur)
	}
	return out
}

// valueRange returns the min and max finite value across panels.
func valueRange(panels []model.Panel) (float64, float64, bool) {
	lo, hi := math.MaxFloat64, -math.MaxFloat64
	for _, p := range panels {
		for _, s := range p.Series {
			for _, pt := range s.Points {
				if math.IsNaN(pt.Value) || math.IsInf(pt.Value, 0) {
					continue
				}
				lo = math.Min(lo, pt.Value)
				hi = math.Max(hi, pt.Value)
			}
		}
	}
	return lo, hi, lo <= hi
}
