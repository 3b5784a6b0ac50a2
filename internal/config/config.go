// Package config defines rocauc configuration and its loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading accepts context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"regexp"
	"runtime"
	"slices"
	"strings"
)

// Output formats understood by the renderer.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// OutputFormat selects how reports are printed: text, json or yaml.
	OutputFormat string `koanf:"output_format"`

	// WorkerCount sets the number of evaluation workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// MetricsFile, when set, receives a Prometheus textfile dump after a run.
	MetricsFile string `koanf:"metrics_file"`

	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsLabels are constant labels added to every metric, e.g. a model or run id.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

var metricNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "warn",
		LogFormat:        "text",
		OutputFormat:     FormatText,
		WorkerCount:      runtime.NumCPU(),
		QueueSize:        1024,
		MetricsFile:      "",
		MetricsNamespace: "rocauc",
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	if c.OutputFormat == "yml" {
		c.OutputFormat = FormatYAML
	}
	if !slices.Contains([]string{FormatText, FormatJSON, FormatYAML}, c.OutputFormat) {
		return fmt.Errorf("%w: output_format must be text, json or yaml, got %q", ErrInvalidConfig, c.OutputFormat)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	}
	if !metricNameRE.MatchString(c.MetricsNamespace) {
		return fmt.Errorf("%w: metrics_namespace %q is not a valid metric name prefix", ErrInvalidConfig, c.MetricsNamespace)
	}
	for name := range c.MetricsLabels {
		if !metricNameRE.MatchString(name) || strings.HasPrefix(name, "__") {
			return fmt.Errorf("%w: metrics_labels key %q is not a valid label name", ErrInvalidConfig, name)
		}
		if name == "outcome" || name == "source" || name == "reason" {
			return fmt.Errorf("%w: metrics_labels key %q is reserved", ErrInvalidConfig, name)
		}
	}
	return nil
}
