package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/okian/rocauc/internal/adapters/reader"
	"github.com/okian/rocauc/internal/adapters/render"
	app "github.com/okian/rocauc/internal/app"
	"github.com/okian/rocauc/internal/config"
	"github.com/okian/rocauc/pkg/logger"
	"github.com/okian/rocauc/pkg/metrics"
)

// Flag names.
const (
	flagConfig      = "config"
	flagFormat      = "format"
	flagWorkers     = "workers"
	flagQueueSize   = "queue-size"
	flagLogLevel    = "log-level"
	flagLogFormat   = "log-format"
	flagMetricsFile = "metrics-file"
	flagTop         = "top"
)

var errNoPaths = errors.New("missing result file path")

// runner carries the streams and loaded config between Before and Action.
type runner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	r := &runner{stdin: stdin, stdout: stdout, stderr: stderr}

	return &cli.Command{
		Name:            "rocauc",
		Usage:           "compute the ROC AUC of \"<label> <score>\" result files",
		ArgsUsage:       "<path-to-result-file> [more paths...]",
		Version:         version,
		HideHelpCommand: true,
		Writer:          stdout,
		ErrWriter:       stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagConfig,
				Usage: "YAML config file (default: $" + config.EnvConfigFile + ")",
			},
			&cli.StringFlag{
				Name:    flagFormat,
				Aliases: []string{"f"},
				Usage:   "output format [text, json, yaml]",
			},
			&cli.IntFlag{
				Name:    flagWorkers,
				Aliases: []string{"w"},
				Usage:   "number of files evaluated concurrently",
			},
			&cli.IntFlag{
				Name:  flagQueueSize,
				Usage: "maximum number of pending evaluation jobs",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level [debug, info, warn, error]",
			},
			&cli.StringFlag{
				Name:  flagLogFormat,
				Usage: "log format [text, json]",
			},
			&cli.StringFlag{
				Name:  flagMetricsFile,
				Usage: "write Prometheus metrics to this textfile after the run",
			},
			&cli.IntFlag{
				Name:  flagTop,
				Usage: "only print the N best reports, ordered by AUC",
			},
		},
		Commands: []*cli.Command{
			r.generateCommand(),
		},
		Before: r.before,
		Action: r.evaluate,
	}
}

// before loads config, applies flag overrides and initializes logging and metrics.
func (r *runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(ctx, cmd.String(flagConfig))
	if err != nil {
		return ctx, err
	}

	if cmd.IsSet(flagFormat) {
		cfg.OutputFormat = cmd.String(flagFormat)
	}
	if cmd.IsSet(flagWorkers) {
		cfg.WorkerCount = int(cmd.Int(flagWorkers))
	}
	if cmd.IsSet(flagQueueSize) {
		cfg.QueueSize = int(cmd.Int(flagQueueSize))
	}
	if cmd.IsSet(flagLogLevel) {
		cfg.LogLevel = cmd.String(flagLogLevel)
	}
	if cmd.IsSet(flagLogFormat) {
		cfg.LogFormat = cmd.String(flagLogFormat)
	}
	if cmd.IsSet(flagMetricsFile) {
		cfg.MetricsFile = cmd.String(flagMetricsFile)
	}
	if cmd.IsSet(flagTop) && cmd.Int(flagTop) < 1 {
		return ctx, fmt.Errorf("--%s must be at least 1, got %d", flagTop, cmd.Int(flagTop))
	}
	if err := cfg.Validate(); err != nil {
		return ctx, err
	}

	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithConstLabels(cfg.MetricsLabels),
	)

	// Logs go to stderr so stdout only carries results.
	if err := logger.Init(logger.WithWriter(r.stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		return ctx, fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return ctx, fmt.Errorf("init logging: %w", err)
	}

	r.cfg = cfg
	return ctx, nil
}

// evaluate is the default action: compute and print the AUC of every path.
func (r *runner) evaluate(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w; usage: %s %s", errNoPaths, cmd.Name, cmd.ArgsUsage)
	}

	log := logger.Named("cli")
	defer r.dumpMetrics(ctx, log)

	svc := app.New(
		app.WithLogger(logger.Named("service")),
		app.WithWorkerCount(r.cfg.WorkerCount),
		app.WithQueueSize(r.cfg.QueueSize),
		app.WithLoader(reader.New(reader.WithStdin(r.stdin))),
	)

	reports, err := svc.Evaluate(ctx, paths)
	if err != nil {
		return err
	}

	log.Info(ctx, "evaluation complete", logger.Int("reports", svc.Count(ctx)))

	if cmd.IsSet(flagTop) {
		if reports, err = svc.TopN(ctx, int(cmd.Int(flagTop))); err != nil {
			return err
		}
	}

	return render.Write(r.stdout, r.cfg.OutputFormat, reports)
}

func (r *runner) dumpMetrics(ctx context.Context, log logger.Logger) {
	if r.cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
		log.Warn(ctx, "metrics not written", logger.Error(err))
	}
}
