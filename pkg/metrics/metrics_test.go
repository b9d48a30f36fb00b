package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the tubesense namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "tubesense")
				So(manager.subsystem, ShouldEqual, "analytics")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.commentsWeighted.Add(3)

			Convey("Then metrics are registered with the custom names and labels", func() {
				So(manager.refreshInterval, ShouldEqual, 5*time.Second)
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() != "test_namespace_test_subsystem_comments_weighted_total" {
						continue
					}
					found = true
					So(f.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 3.0)
					So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When invalid options are supplied", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(-time.Second),
				WithCustomLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "tubesense")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
				So(manager.customLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording run outcomes", func() {
			before := testutil.ToFloat64(globalManager.runsTotal.WithLabelValues("all", "succeeded"))
			RecordRun("all", "succeeded", 12.5)

			Convey("Then the run counter increases", func() {
				after := testutil.ToFloat64(globalManager.runsTotal.WithLabelValues("all", "succeeded"))
				So(after-before, ShouldEqual, 1.0)
			})
		})

		Convey("When recording video outcomes and comments", func() {
			before := testutil.ToFloat64(globalManager.videosTotal.WithLabelValues("excluded"))
			comments := testutil.ToFloat64(globalManager.commentsWeighted)
			RecordVideo("excluded")
			RecordCommentsWeighted(4)

			Convey("Then the counters move by the recorded amounts", func() {
				So(testutil.ToFloat64(globalManager.videosTotal.WithLabelValues("excluded"))-before, ShouldEqual, 1.0)
				So(testutil.ToFloat64(globalManager.commentsWeighted)-comments, ShouldEqual, 4.0)
			})
		})

		Convey("When updating gauges", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(64)
			UpdateInflightRuns(2)
			UpdateWorkerActiveCount(1)

			Convey("Then the gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7.0)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64.0)
				So(testutil.ToFloat64(globalManager.inflightRuns), ShouldEqual, 2.0)
				So(testutil.ToFloat64(globalManager.workerActive), ShouldEqual, 1.0)
			})
		})

		Convey("When recording the remaining metrics", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordVideoLatency(3)
					RecordUnknownLabel("topic")
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueRejected()
					RecordQueueWait(1)
					RecordHTTPRequest("/runs", "POST", "202")
					RecordHTTPRequestDuration("/runs", "POST", "202", 1.5)
					RecordRateLimited()
					RecordErrorByComponent("pipeline", "read")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(10)
				}, ShouldNotPanic)
			})
		})

		Convey("Then the shared registry and refresh interval are exposed", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})
	})
}
