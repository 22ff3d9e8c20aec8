package render

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/okian/campaignboard/internal/domain/chart"
	"github.com/okian/campaignboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func key(m time.Month, d int) model.CalendarKey {
	return model.NewCalendarKey(2000, time.Date(2023, m, d, 0, 0, 0, 0, time.UTC))
}

func sampleSpec() model.ChartSpec {
	series := func(year int, values ...float64) model.Series {
		s := model.Series{Year: year}
		for i, v := range values {
			s.Points = append(s.Points, model.Point{Key: key(time.August, i+1), Value: v})
		}
		return s
	}
	return model.ChartSpec{
		Title:       "A1 - Year-over-Year Overlay",
		Metric:      "A1",
		Percent:     true,
		FacetColumn: "Region",
		Years:       []int{2023, 2024},
		Windows:     chart.DefaultWindows(2000),
		Domain:      [2]model.CalendarKey{key(time.January, 1), key(time.December, 31)},
		Panels: []model.Panel{
			{Facet: "MEA", Series: []model.Series{
				series(2023, 0.5, 0.55, math.NaN(), 0.52),
				series(2024, 0.6, 0.61, 0.6, 0.58),
			}},
			{Facet: "EU", Series: []model.Series{
				series(2024, 0.1),
			}},
		},
	}
}

func TestRender(t *testing.T) {
	Convey("Given a renderer", t, func() {
		r := New(WithWidth(640), WithPanelHeight(240))

		Convey("When a two panel chart is rendered as PNG", func() {
			var buf bytes.Buffer
			err := r.Render(&buf, sampleSpec(), FormatPNG)
			So(err, ShouldBeNil)

			Convey("Then the panels are stacked vertically", func() {
				img, err := png.Decode(&buf)
				So(err, ShouldBeNil)
				So(img.Bounds().Dx(), ShouldEqual, 640)
				So(img.Bounds().Dy(), ShouldEqual, 480)
			})
		})

		Convey("When the same chart is rendered as SVG", func() {
			var buf bytes.Buffer
			err := r.Render(&buf, sampleSpec(), FormatSVG)
			So(err, ShouldBeNil)
			out := buf.String()

			Convey("Then each panel is placed in its own group", func() {
				So(out, ShouldStartWith, "<svg")
				So(out, ShouldContainSubstring, `height="480"`)
				So(out, ShouldContainSubstring, "translate(0,0)")
				So(out, ShouldContainSubstring, "translate(0,240)")
				So(strings.Count(out, "<g transform="), ShouldEqual, 2)
			})

			Convey("Then the legend names the years and the bands are labelled", func() {
				So(out, ShouldContainSubstring, "2023")
				So(out, ShouldContainSubstring, "2024")
				So(out, ShouldContainSubstring, "NB1 Period")
				So(out, ShouldContainSubstring, "NB2 Period")
			})
		})

		Convey("When an empty selection is rendered", func() {
			spec := model.ChartSpec{Title: "A1", Metric: "A1", Windows: chart.DefaultWindows(2000)}
			var buf bytes.Buffer
			err := r.Render(&buf, spec, FormatPNG)

			Convey("Then one placeholder panel is drawn", func() {
				So(err, ShouldBeNil)
				img, err := png.Decode(&buf)
				So(err, ShouldBeNil)
				So(img.Bounds().Dy(), ShouldEqual, 240)
				w, h := r.Size(spec)
				So(w, ShouldEqual, 640)
				So(h, ShouldEqual, 240)
			})
		})

		Convey("When there are no windows and no data", func() {
			var buf bytes.Buffer
			err := r.Render(&buf, model.ChartSpec{Title: "DAU"}, FormatSVG)
			So(err, ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "no data selected")
		})

		Convey("When the format is unknown", func() {
			err := r.Render(&bytes.Buffer{}, sampleSpec(), Format("gif"))
			So(errors.Is(err, ErrUnknownFormat), ShouldBeTrue)
		})
	})
}

func TestParseFormat(t *testing.T) {
	Convey("Given format names", t, func() {
		f, err := ParseFormat("SVG")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, FormatSVG)
		So(f.ContentType(), ShouldEqual, "image/svg+xml")

		f, err = ParseFormat("")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, FormatPNG)
		So(f.ContentType(), ShouldEqual, "image/png")

		_, err = ParseFormat("jpeg")
		So(errors.Is(err, ErrUnknownFormat), ShouldBeTrue)
	})
}

func TestHelpers(t *testing.T) {
	Convey("Given a series with a gap", t, func() {
		s := model.Series{Year: 2023, Points: []model.Point{
			{Key: key(time.August, 1), Value: 1},
			{Key: key(time.August, 2), Value: 2},
			{Key: key(time.August, 3), Value: math.NaN()},
			{Key: key(time.August, 4), Value: 4},
		}}

		Convey("Then it splits into two runs", func() {
			runs := splitRuns(s)
			So(runs, ShouldHaveLength, 2)
			So(runs[0].y, ShouldResemble, []float64{1, 2})
			So(runs[1].y, ShouldResemble, []float64{4})
		})
	})

	Convey("Given axis bounds", t, func() {
		Convey("Then a flat series still gets a span", func() {
			lo, hi := niceAxisBounds(5, 5, false)
			So(hi, ShouldBeGreaterThan, lo)
		})

		Convey("Then percent bounds do not go below zero", func() {
			lo, hi := niceAxisBounds(0.01, 0.6, true)
			So(lo, ShouldBeGreaterThanOrEqualTo, 0.0)
			So(hi, ShouldBeGreaterThanOrEqualTo, 0.6)
		})

		Convey("Then NaN input falls back to the unit range", func() {
			lo, hi := niceAxisBounds(math.NaN(), 1, false)
			So(lo, ShouldEqual, 0.0)
			So(hi, ShouldEqual, 1.0)
		})
	})

	Convey("Given the month ticks", t, func() {
		ticks := monthTicks(2000)

		Convey("Then they run from Jan to Dec and close on Dec 31", func() {
			So(ticks, ShouldHaveLength, 13)
			So(ticks[0].Label, ShouldEqual, "Jan")
			So(ticks[11].Label, ShouldEqual, "Dec")
			So(ticks[12].Label, ShouldEqual, "")
		})
	})

	Convey("Given a window color", t, func() {
		c := bandColor(model.CampaignWindow{Color: "#FFA500", Opacity: 0.15})
		So(c.R, ShouldEqual, uint8(255))
		So(c.G, ShouldEqual, uint8(165))
		So(c.A, ShouldEqual, uint8(38))
	})
}
