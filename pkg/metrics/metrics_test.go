package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it should use the evaluator namespace on a private registry", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, DefaultNamespace)
				So(manager.subsystem, ShouldEqual, "evaluator")
				So(manager.registry, ShouldNotBeNil)
				So(manager.registry, ShouldNotEqual, prometheus.DefaultRegisterer)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithConstLabels(map[string]string{"run": "nightly"}),
				WithPrometheusRegistry(registry),
			)
			manager.evaluations.WithLabelValues(OutcomeOK).Inc()

			Convey("Then collectors should carry the custom names and labels", func() {
				So(hasMetricWithLabel(registry, "test_namespace_evaluator_evaluations_total", "run"), ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithConstLabels(nil),
				WithPrometheusRegistry(nil),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, DefaultNamespace)
				So(manager.constLabels, ShouldBeEmpty)
				So(manager.registry, ShouldNotBeNil)
			})
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a configured global manager", t, func() {
		previous := global()
		Reset(func() { current.Store(previous) })

		m := Configure(WithNamespace("batch"), WithConstLabels(map[string]string{"model": "fm"}))
		RecordEvaluation(OutcomeOK)
		SetAUC("scores.txt", 0.9)

		Convey("Then recorders write to the new registry", func() {
			So(global(), ShouldEqual, m)
			So(GetRegistry(), ShouldEqual, m.registry)
			So(testutil.ToFloat64(m.evaluations.WithLabelValues(OutcomeOK)), ShouldEqual, 1)
			So(hasMetricWithLabel(GetRegistry(), "batch_evaluator_evaluations_total", "model"), ShouldBeTrue)
		})

		Convey("Then the textfile uses the configured names", func() {
			path := filepath.Join(t.TempDir(), "batch.prom")
			So(WriteTextfile(path), ShouldBeNil)
			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `batch_evaluator_auc{model="fm",source="scores.txt"} 0.9`)
			So(string(data), ShouldNotContainSubstring, "rocauc_evaluator")
		})
	})
}

func hasMetricWithLabel(registry *prometheus.Registry, name, label string) bool {
	families, err := registry.Gather()
	if err != nil {
		return false
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == label {
					return true
				}
			}
		}
	}
	return false
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording evaluations", func() {
			before := testutil.ToFloat64(global().evaluations.WithLabelValues(OutcomeParseError))
			RecordEvaluation(OutcomeParseError)
			RecordEvaluation(OutcomeParseError)

			Convey("Then the outcome counter should grow", func() {
				after := testutil.ToFloat64(global().evaluations.WithLabelValues(OutcomeParseError))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When publishing an AUC", func() {
			SetAUC("model-a.txt", 0.8125)

			Convey("Then the gauge should hold it", func() {
				So(testutil.ToFloat64(global().auc.WithLabelValues("model-a.txt")), ShouldEqual, 0.8125)
			})
		})

		Convey("When tracking busy workers", func() {
			UpdateWorkerCount(4)
			WorkerBusy()
			WorkerBusy()
			WorkerIdle()

			Convey("Then the gauges should reflect it", func() {
				So(testutil.ToFloat64(global().workerCount), ShouldEqual, 4)
				So(testutil.ToFloat64(global().workerBusy), ShouldEqual, 1)
			})
			WorkerIdle()
		})

		Convey("When recording the remaining metrics", func() {
			Convey("Then nothing should panic", func() {
				So(func() {
					RecordSamplesRead(1000)
					RecordEvaluationLatency(12.5)
					UpdateQueueSize(3)
					UpdateQueueCapacity(16)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError("closed")
					RecordWorkerProcessingLatency(4.0)
					RecordWorkerError()
					UpdateReportsStored(2)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given recorded metrics", t, func() {
		RecordEvaluation(OutcomeOK)
		dir := t.TempDir()

		Convey("When writing them to a textfile", func() {
			path := filepath.Join(dir, "rocauc.prom")
			err := WriteTextfile(path)

			Convey("Then the file should contain the exposition", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "rocauc_evaluator_evaluations_total")
			})
		})

		Convey("When the target directory does not exist", func() {
			err := WriteTextfile(filepath.Join(dir, "missing", "rocauc.prom"))

			Convey("Then it should fail with ErrWriteFailed", func() {
				So(errors.Is(err, ErrWriteFailed), ShouldBeTrue)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		Convey("Then it should be the one the recorders write to", func() {
			So(GetRegistry(), ShouldEqual, global().registry)
		})
	})
}
