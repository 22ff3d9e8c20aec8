package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors use the default namespace", func() {
				manager.cacheHits.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "campaignboard_dashboard_cache_hits_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 2}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and labels follow the options", func() {
				manager.cacheMisses.Inc()
				expected := `
# HELP test_unit_cache_misses_total Dataset store lookups that read the source file
# TYPE test_unit_cache_misses_total counter
test_unit_cache_misses_total{env="test"} 1
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_unit_cache_misses_total")
				So(err, ShouldBeNil)
			})
		})

		Convey("When two managers share one registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording dataset loads", func() {
			before := testutil.ToFloat64(globalManager.datasetLoads.WithLabelValues("nb2.csv", "ok"))
			RecordDatasetLoad("nb2.csv", "ok", 12)
			UpdateDatasetShape("nb2.csv", 365, 4)

			Convey("Then counters and gauges move", func() {
				So(testutil.ToFloat64(globalManager.datasetLoads.WithLabelValues("nb2.csv", "ok")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.datasetRows.WithLabelValues("nb2.csv")), ShouldEqual, 365)
				So(testutil.ToFloat64(globalManager.datasetMissingCells.WithLabelValues("nb2.csv")), ShouldEqual, 4)
			})
		})

		Convey("When recording store activity", func() {
			hits := testutil.ToFloat64(globalManager.cacheHits)
			misses := testutil.ToFloat64(globalManager.cacheMisses)
			RecordCacheHit()
			RecordCacheMiss()
			RecordCacheInvalidation("fsnotify")
			UpdateCacheEntries(2)

			Convey("Then the store metrics reflect it", func() {
				So(testutil.ToFloat64(globalManager.cacheHits), ShouldEqual, hits+1)
				So(testutil.ToFloat64(globalManager.cacheMisses), ShouldEqual, misses+1)
				So(testutil.ToFloat64(globalManager.cacheEntries), ShouldEqual, 2)
			})
		})

		Convey("When recording warm-up jobs", func() {
			before := testutil.ToFloat64(globalManager.warmJobs.WithLabelValues("watch", "success"))
			RecordWarmEnqueue("watch", "queued")
			UpdateWarmQueueSize(3)
			RecordWarm("watch", "success", 18)

			Convey("Then the queue metrics reflect it", func() {
				So(testutil.ToFloat64(globalManager.warmQueueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.warmJobs.WithLabelValues("watch", "success")), ShouldEqual, before+1)
			})
		})

		Convey("When recording chart and HTTP activity", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordChartBuild("playtime", "ok", 3)
					RecordChartRender("png", 40)
					RecordHTTPRequest("chart", "GET", "200")
					RecordHTTPRequestDuration("chart", "GET", "200", 5)
					RecordErrorByEndpoint("chart", "GET", "client_error")
					RecordErrorByType("client_error", "medium")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(8)
				}, ShouldNotPanic)
			})
		})

		Convey("Then the exported registry is the custom one", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
