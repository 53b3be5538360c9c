package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerOptions(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		reg := prometheus.NewRegistry()

		Convey("When a manager is created with custom namespace and subsystem", func() {
			m := NewManager(
				WithPrometheusRegistry(reg),
				WithNamespace("testns"),
				WithSubsystem("testsub"),
			)

			Convey("Then the collectors register under that prefix", func() {
				m.requestsTotal.WithLabelValues("GET", "2xx").Inc()
				count := testutil.CollectAndCount(m.requestsTotal, "testns_testsub_requests_total")
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When a manager is created with custom buckets", func() {
			m := NewManager(
				WithPrometheusRegistry(reg),
				WithHistogramBuckets([]float64{0.1, 1, 10}),
			)

			Convey("Then it accepts observations without panicking", func() {
				So(func() { m.rateGateWait.Observe(0.5) }, ShouldNotPanic)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When request metrics are recorded", func() {
			before := testutil.ToFloat64(globalManager.requestsTotal.WithLabelValues("GET", "2xx"))
			RecordRequest("GET", "2xx")
			RecordRequestDuration("GET", 0.25)
			after := testutil.ToFloat64(globalManager.requestsTotal.WithLabelValues("GET", "2xx"))

			Convey("Then the counter advances by one", func() {
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When auth metrics are recorded", func() {
			logins := testutil.ToFloat64(globalManager.loginsTotal)
			retries := testutil.ToFloat64(globalManager.reauthRetries)
			RecordLogin()
			RecordReauthRetry()

			Convey("Then both counters advance", func() {
				So(testutil.ToFloat64(globalManager.loginsTotal)-logins, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.reauthRetries)-retries, ShouldEqual, 1)
			})
		})

		Convey("When replay parse outcomes are recorded", func() {
			before := testutil.ToFloat64(globalManager.replayParses.WithLabelValues("ok"))
			RecordReplayParse("ok")
			RecordReplayParse("absent")

			Convey("Then the labelled counter advances", func() {
				So(testutil.ToFloat64(globalManager.replayParses.WithLabelValues("ok"))-before, ShouldEqual, 1)
			})
		})

		Convey("When the manager is disabled", func() {
			reg := prometheus.NewRegistry()
			m := NewManager(WithPrometheusRegistry(reg), WithMetricsEnabled(false))

			Convey("Then it holds no recorded samples", func() {
				So(m.enabled, ShouldBeFalse)
			})
		})
	})
}
