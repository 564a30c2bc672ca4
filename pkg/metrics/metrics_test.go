package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a custom registry and options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithPrometheusRegistry(registry),
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithDeltaBuckets([]float64{-100, 0, 100}),
				WithCustomLabels(map[string]string{"env": "test"}),
			)

			Convey("Then metrics register under the configured names", func() {
				So(manager, ShouldNotBeNil)
				manager.queueSize.Set(3)
				manager.eventsRated.WithLabelValues("ffa").Inc()

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				queue := findFamily(families, "test_unit_queue_size")
				So(queue, ShouldNotBeNil)
				So(queue.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 3)
				So(queue.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
				So(findFamily(families, "test_unit_events_rated_total"), ShouldNotBeNil)
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording rating metrics", func() {
			RecordEventRated("2vs2")
			RecordEventRejected("shape_mismatch")
			RecordEventDuplicate()
			RecordPlacementAdvanced("1/3")
			RecordMMRDelta(-120)
			RecordTierMovement("up")
			RecordRatingLatency(2.5)
			UpdateCompetitorsTotal(12)

			Convey("Then they are exported on the custom registry", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				So(findFamily(families, "ltrc_rating_events_rated_total"), ShouldNotBeNil)
				So(findFamily(families, "ltrc_rating_mmr_delta"), ShouldNotBeNil)
				total := findFamily(families, "ltrc_rating_competitors_total")
				So(total, ShouldNotBeNil)
				So(total.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 12)
			})
		})

		Convey("When recording operational metrics", func() {
			So(func() {
				RecordStoreCommitLatency(1)
				RecordStoreQueryLatency(1)
				UpdateQueueSize(1)
				UpdateQueueCapacity(10)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(1)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordHTTPRequest("/events", "POST", "202")
				RecordHTTPRequestDuration("/events", "POST", "202", 1.2)
				RecordHTTPRateLimited("/events")
				RecordErrorByComponent("store", "commit")
			}, ShouldNotPanic)
		})
	})
}
