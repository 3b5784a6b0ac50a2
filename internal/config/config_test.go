package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/rocauc/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.OutputFormat, convey.ShouldEqual, config.FormatText)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.MetricsFile, convey.ShouldBeEmpty)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "rocauc")
			convey.So(cfg.MetricsLabels, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the output format is yml in mixed case", func() {
			cfg.OutputFormat = " YML "

			convey.Convey("Then it should normalize to yaml", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
				convey.So(cfg.OutputFormat, convey.ShouldEqual, config.FormatYAML)
			})
		})

		convey.Convey("When the output format is unknown", func() {
			cfg.OutputFormat = "csv"

			convey.Convey("Then it should be rejected", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "output_format")
			})
		})

		convey.Convey("When the worker count is zero", func() {
			cfg.WorkerCount = 0

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the queue size is negative", func() {
			cfg.QueueSize = -1

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the metrics namespace is not a metric name", func() {
			cfg.MetricsNamespace = "roc-auc"

			convey.Convey("Then it should be rejected", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "metrics_namespace")
			})
		})

		convey.Convey("When a metrics label collides with a metric's own label", func() {
			cfg.MetricsLabels = map[string]string{"source": "x"}

			convey.Convey("Then it should be rejected as reserved", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "reserved")
			})
		})

		convey.Convey("When a metrics label name is invalid", func() {
			cfg.MetricsLabels = map[string]string{"model id": "fm"}

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When metrics labels are valid", func() {
			cfg.MetricsLabels = map[string]string{"model": "fm", "run_id": "42"}

			convey.Convey("Then it should pass", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
