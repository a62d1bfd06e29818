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
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should use the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "pooldraft")
				So(manager.subsystem, ShouldEqual, "curation")
				So(manager.enabled, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithBuckets(0.1, 0.5, 1.0),
				Disabled(),
				WithConstLabel("env", "test"),
				WithConstLabel("", "ignored"),
				WithRegistry(registry),
			)

			Convey("Then every option is applied", func() {
				So(manager.namespace, ShouldEqual, "test_ns")
				So(manager.subsystem, ShouldEqual, "test_sub")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.enabled, ShouldBeFalse)
				So(manager.constLabels, ShouldResemble, prometheus.Labels{"env": "test"})
			})

			Convey("And the metrics are registered on the given registry", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When empty option values are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithBuckets(),
				WithRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "pooldraft")
				So(manager.subsystem, ShouldEqual, "curation")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording commits", func() {
			before := testutil.ToFloat64(globalManager.commits.WithLabelValues("ok"))
			RecordCommit("ok", 12.5)
			RecordCommit("ok", 3)

			Convey("Then the outcome counter increases", func() {
				So(testutil.ToFloat64(globalManager.commits.WithLabelValues("ok")), ShouldEqual, before+2)
			})
		})

		Convey("When sessions open and close", func() {
			UpdateSessionsActive(0)
			SessionOpened()
			SessionOpened()
			SessionClosed()

			Convey("Then the active gauge tracks the balance", func() {
				So(testutil.ToFloat64(globalManager.sessionsActive), ShouldEqual, 1)
			})
		})

		Convey("When recording roster updates", func() {
			RecordRosterUpdate(22)
			So(testutil.ToFloat64(globalManager.rosterCandidates), ShouldEqual, 22)
		})

		Convey("When recording the rest of the surface", func() {
			So(func() {
				RecordHydration("ok", 4)
				RecordOperation("assign", "ok")
				UpdateCandidatesStaged(3)
				RecordValidationReject("empty_group")
				UpdateCommitsInFlight(1)
				UpdateRosterQueueSize(2)
				RecordRosterQueueDropped()
				UpdateRosterSubscribers(1)
				RecordStoreLatency("commit_setup", 1.5)
				RecordStoreError("get_event")
				RecordHTTPRequest("sessions", "POST", "201", 2)
				RecordErrorByEndpoint("sessions", "POST", "client_error")
			}, ShouldNotPanic)
		})

		Convey("When gathering from the custom registry", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}

func TestSinceMs(t *testing.T) {
	Convey("Given a start time in the past", t, func() {
		start := time.Now().Add(-10 * time.Millisecond)
		So(SinceMs(start), ShouldBeGreaterThanOrEqualTo, 10)
	})
}
