package chart

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/okian/campaignboard/internal/domain/dataset"
	"github.com/okian/campaignboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const meaCSV = `Date,Region,A1,Match Mode
2023-08-05,MEA,50%,Solo
2024-08-05,MEA,60%,Solo
2023-08-04,MEA,40%,Duo
2024-01-15,EU,10%,Solo
not a date,MEA,70%,Solo
2023-08-06,MEA,,Solo
`

func load(t *testing.T, text string, ids ...string) *model.Dataset {
	t.Helper()
	schema := dataset.NewSchema(dataset.WithIdentifiers(ids...))
	ds, err := dataset.Parse(context.Background(), strings.NewReader(text), schema)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return ds
}

func TestBuild(t *testing.T) {
	Convey("Given the MEA fixture", t, func() {
		ds := load(t, meaCSV, "Region", "Match Mode")
		layout := Layout{
			RegionColumn:  "Region",
			TitleTemplate: "{metric} - Year-over-Year Overlay",
			Windows:       DefaultWindows(2000),
		}

		Convey("When MEA and both years are selected", func() {
			spec, err := Build(ds, layout, model.MetricSelection{
				Metric:  "A1",
				Regions: []string{"MEA"},
				Years:   []int{2023, 2024},
			})
			So(err, ShouldBeNil)

			Convey("Then there is one panel with one line per year", func() {
				So(spec.Title, ShouldEqual, "A1 - Year-over-Year Overlay")
				So(spec.Percent, ShouldBeTrue)
				So(spec.Years, ShouldResemble, []int{2023, 2024})
				So(spec.Panels, ShouldHaveLength, 1)
				So(spec.Panels[0].Series, ShouldHaveLength, 2)
			})

			Convey("Then both years have a point on August 5 of the shared axis", func() {
				y23 := spec.Panels[0].Series[0]
				y24 := spec.Panels[0].Series[1]
				So(y23.Year, ShouldEqual, 2023)
				So(y24.Year, ShouldEqual, 2024)

				find := func(s model.Series, key string) (float64, bool) {
					for _, p := range s.Points {
						if p.Key.String() == key {
							return p.Value, true
						}
					}
					return 0, false
				}
				v23, ok := find(y23, "2000-08-05")
				So(ok, ShouldBeTrue)
				So(v23, ShouldAlmostEqual, 0.5)
				v24, ok := find(y24, "2000-08-05")
				So(ok, ShouldBeTrue)
				So(v24, ShouldAlmostEqual, 0.6)
			})

			Convey("Then points are ordered by calendar key and gaps stay as NaN", func() {
				pts := spec.Panels[0].Series[0].Points
				So(pts, ShouldHaveLength, 3)
				So(pts[0].Key.String(), ShouldEqual, "2000-08-04")
				So(pts[1].Key.String(), ShouldEqual, "2000-08-05")
				So(pts[2].Key.String(), ShouldEqual, "2000-08-06")
				So(math.IsNaN(pts[2].Value), ShouldBeTrue)
			})

			Convey("Then the undated row is not plotted", func() {
				total := 0
				for _, s := range spec.Panels[0].Series {
					total += len(s.Points)
				}
				So(total, ShouldEqual, 4)
			})

			Convey("Then the domain and windows are attached", func() {
				So(spec.Domain[0].String(), ShouldEqual, "2000-01-01")
				So(spec.Domain[1].String(), ShouldEqual, "2000-12-31")
				So(spec.Windows, ShouldHaveLength, 2)
			})
		})

		Convey("When the chart is faceted by match mode", func() {
			layout.FacetColumn = "Match Mode"
			spec, err := Build(ds, layout, model.MetricSelection{
				Metric:  "A1",
				Regions: []string{"MEA", "EU"},
				Years:   []int{2023, 2024},
			})
			So(err, ShouldBeNil)

			Convey("Then panels follow first appearance", func() {
				So(spec.Panels, ShouldHaveLength, 2)
				So(spec.Panels[0].Facet, ShouldEqual, "Solo")
				So(spec.Panels[1].Facet, ShouldEqual, "Duo")
				So(spec.Panels[1].Series, ShouldHaveLength, 1)
				So(spec.Panels[1].Series[0].Year, ShouldEqual, 2023)
			})
		})

		Convey("When nothing is selected", func() {
			spec, err := Build(ds, layout, model.MetricSelection{Metric: "A1"})

			Convey("Then the chart is empty without an error", func() {
				So(err, ShouldBeNil)
				So(spec.Empty(), ShouldBeTrue)
				So(spec.Years, ShouldBeEmpty)
				So(spec.Windows, ShouldHaveLength, 2)
			})
		})

		Convey("When the metric is not a numeric column", func() {
			_, err := Build(ds, layout, model.MetricSelection{Metric: "Region"})
			So(errors.Is(err, ErrUnknownMetric), ShouldBeTrue)

			_, err = Build(ds, layout, model.MetricSelection{Metric: "A30"})
			So(errors.Is(err, ErrUnknownMetric), ShouldBeTrue)
		})

		Convey("When the facet column is unknown", func() {
			layout.FacetColumn = "Platform"
			_, err := Build(ds, layout, model.MetricSelection{Metric: "A1"})
			So(errors.Is(err, ErrUnknownFacet), ShouldBeTrue)
		})
	})
}

func TestFilter(t *testing.T) {
	Convey("Given the MEA fixture", t, func() {
		ds := load(t, meaCSV, "Region", "Match Mode")
		layout := Layout{RegionColumn: "Region", ModeColumn: "Match Mode"}

		Convey("When every available value is selected", func() {
			rows := Filter(ds, layout, model.MetricSelection{
				Regions: dataset.Distinct(ds, "Region"),
				Years:   dataset.Years(ds),
				Modes:   dataset.Distinct(ds, "Match Mode"),
			})

			Convey("Then every dated row is returned", func() {
				So(rows, ShouldHaveLength, 5)
				for _, r := range rows {
					So(r.HasDate(), ShouldBeTrue)
				}
			})
		})

		Convey("When a dated row has blank region and mode cells", func() {
			withBlank := load(t, meaCSV+"2024-02-02,,5%,\n", "Region", "Match Mode")
			rows := Filter(withBlank, layout, model.MetricSelection{
				Regions: dataset.Distinct(withBlank, "Region"),
				Years:   dataset.Years(withBlank),
				Modes:   dataset.Distinct(withBlank, "Match Mode"),
			})

			Convey("Then selecting every available value still returns it", func() {
				So(rows, ShouldHaveLength, 6)
				So(rows[5].Label("Region"), ShouldEqual, model.BlankLabel)
				So(rows[5].Label("Match Mode"), ShouldEqual, model.BlankLabel)
			})
		})

		Convey("When a subset is selected", func() {
			rows := Filter(ds, layout, model.MetricSelection{
				Regions: []string{"MEA"},
				Years:   []int{2023},
				Modes:   []string{"Solo"},
			})

			Convey("Then no row falls outside it", func() {
				So(rows, ShouldHaveLength, 2)
				for _, r := range rows {
					So(r.Label("Region"), ShouldEqual, "MEA")
					So(r.Year, ShouldEqual, 2023)
					So(r.Label("Match Mode"), ShouldEqual, "Solo")
				}
			})
		})

		Convey("When the layout has no mode column", func() {
			layout.ModeColumn = ""
			rows := Filter(ds, layout, model.MetricSelection{
				Regions: []string{"MEA"},
				Years:   []int{2023, 2024},
			})

			Convey("Then modes are not filtered", func() {
				So(rows, ShouldHaveLength, 4)
			})
		})
	})
}

func TestTitleAndWindows(t *testing.T) {
	Convey("Given a title template", t, func() {
		layout := Layout{TitleTemplate: "{metric} - Year-over-Year Trend (Overall MEA)"}

		Convey("Then the metric is substituted", func() {
			So(Title(layout, "DAU"), ShouldEqual, "DAU - Year-over-Year Trend (Overall MEA)")
			So(Title(Layout{}, "DAU"), ShouldEqual, "DAU")
		})
	})

	Convey("Given the default campaign windows", t, func() {
		w := DefaultWindows(0)

		Convey("Then they sit on the reference year", func() {
			So(w, ShouldHaveLength, 2)
			So(w[0].Label, ShouldEqual, "NB1 Period")
			So(w[0].Start.String(), ShouldEqual, "2000-01-10")
			So(w[0].End.String(), ShouldEqual, "2000-02-09")
			So(w[1].Label, ShouldEqual, "NB2 Period")
			So(w[1].Start.String(), ShouldEqual, "2000-07-30")
			So(w[1].End.String(), ShouldEqual, "2000-08-31")
			So(w[1].Color, ShouldEqual, "#FFA500")
		})
	})
}
