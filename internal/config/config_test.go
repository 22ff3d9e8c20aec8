package config_test

import (
	"errors"
	"testing"

	"github.com/okian/campaignboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.ReferenceYear, convey.ShouldEqual, 2000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the stock pages are present in order", func() {
			ids := make([]string, 0, len(cfg.Pages))
			for _, p := range cfg.Pages {
				ids = append(ids, p.ID)
			}
			convey.So(ids, convey.ShouldResemble, []string{"campaign", "mea-users", "lone-wolf", "playtime"})

			p, ok := cfg.Page("playtime")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(p.ModeColumn, convey.ShouldEqual, "Match Mode")
			convey.So(p.DefaultModes, convey.ShouldResemble, []string{"Ranking Match", "CS Ranking"})

			p, _ = cfg.Page("lone-wolf")
			convey.So(p.Campaigns, convey.ShouldResemble, []string{"nb2"})

			p, _ = cfg.Page("mea-users")
			convey.So(p.Metrics, convey.ShouldBeEmpty)
			convey.So(p.ExcludeMetrics, convey.ShouldResemble, []string{"EO Month"})
		})

		convey.Convey("Then the campaign windows parse onto the reference year", func() {
			w, ok := cfg.Campaign("nb2")
			convey.So(ok, convey.ShouldBeTrue)
			start, end, err := w.Window(cfg.ReferenceYear)
			convey.So(err, convey.ShouldBeNil)
			convey.So(start.String(), convey.ShouldEqual, "2000-07-30")
			convey.So(end.String(), convey.ShouldEqual, "2000-08-31")
		})

		convey.Convey("Then sources resolve against the data dir", func() {
			cfg.DataDir = "/data"
			p, _ := cfg.Page("campaign")
			convey.So(cfg.SourcePath(p), convey.ShouldEqual, "/data/nb2.csv")
			p.Source = "/abs/nb2.csv"
			convey.So(cfg.SourcePath(p), convey.ShouldEqual, "/abs/nb2.csv")
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New()

		cases := []struct {
			name   string
			mutate func()
		}{
			{"a non leap reference year", func() { cfg.ReferenceYear = 2001 }},
			{"a bad refresh schedule", func() { cfg.RefreshSchedule = "every hour" }},
			{"a duplicate page", func() { cfg.Pages = append(cfg.Pages, cfg.Pages[0]) }},
			{"a page without source", func() { cfg.Pages[1].Source = "" }},
			{"an unknown campaign", func() { cfg.Pages[0].Campaigns = []string{"nb3"} }},
			{"an impossible month-day", func() { cfg.Campaigns[0].End = "02-30" }},
			{"an inverted window", func() { cfg.Campaigns[1].Start = "09-01" }},
			{"no pages", func() { cfg.Pages = nil }},
			{"no warm workers", func() { cfg.WarmWorkers = 0 }},
		}

		for _, tc := range cases {
			convey.Convey("When it has "+tc.name, func() {
				tc.mutate()

				convey.Convey("Then validation fails", func() {
					err := cfg.Validate()
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the refresh schedule is empty", func() {
			cfg.RefreshSchedule = ""

			convey.Convey("Then the job is simply disabled", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
