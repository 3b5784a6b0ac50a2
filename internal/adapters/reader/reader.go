// Package reader parses result files of "<label> <score>" lines into datasets.
package reader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/okian/rocauc/internal/domain/model"
	"github.com/okian/rocauc/pkg/logger"
	"github.com/okian/rocauc/pkg/metrics"
)

// Stdin is the source name that selects standard input.
const Stdin = "-"

const (
	defaultMaxLineBytes = 1 << 20
	initialLineBuffer   = 64 * 1024
	ctxCheckInterval    = 4096 // lines between cancellation checks
	fieldsPerLine       = 2
)

// Reader turns result files into datasets.
type Reader struct {
	stdin        io.Reader
	maxLineBytes int
	logger       logger.Logger
}

// New creates a Reader with configuration options.
func New(opts ...Option) *Reader {
	r := &Reader{
		stdin:        os.Stdin,
		maxLineBytes: defaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("reader")
	}
	return r
}

// ReadFile reads the result file at path, or standard input when path is "-".
func (r *Reader) ReadFile(ctx context.Context, path string) (*model.Dataset, error) {
	if path == Stdin {
		return r.Read(ctx, r.stdin, "stdin")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	defer func() { _ = f.Close() }()

	return r.Read(ctx, f, path)
}

// Read parses every line of src. source names the input in errors.
func (r *Reader) Read(ctx context.Context, src io.Reader, source string) (*model.Dataset, error) {
	ds := model.NewDataset(source, 0)

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, min(initialLineBuffer, r.maxLineBytes)), r.maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		if line%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("reading %s: %w", source, err)
			}
		}

		s, err := ParseLine(sc.Text())
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Source = source
				pe.Line = line
			}
			return nil, err
		}
		ds.Add(s)
	}

	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{
				Source: source,
				Line:   line + 1,
				Reason: fmt.Sprintf("line longer than %d bytes", r.maxLineBytes),
			}
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrFileAccess, source, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}

	metrics.RecordSamplesRead(ds.Len())
	r.logger.Debug(ctx, "read result file",
		logger.String("source", source),
		logger.Int("samples", ds.Len()),
	)
	return ds, nil
}

// ParseLine parses one "<label> <score>" line. The label must be 0 or 1;
// -1 is accepted as the negative class. Errors are *ParseError without
// source or line number set.
func ParseLine(text string) (model.Sample, error) {
	fields := strings.Fields(text)
	if len(fields) != fieldsPerLine {
		return model.Sample{}, &ParseError{
			Text:   text,
			Reason: fmt.Sprintf("expected %d fields, got %d", fieldsPerLine, len(fields)),
		}
	}

	label, err := strconv.Atoi(fields[0])
	if err != nil {
		return model.Sample{}, &ParseError{Text: text, Reason: "label is not an integer"}
	}
	switch label {
	case model.Positive, model.Negative:
	case -1:
		label = model.Negative
	default:
		return model.Sample{}, &ParseError{Text: text, Reason: fmt.Sprintf("label %d is not 0 or 1", label)}
	}

	// out-of-range literals parse to ±Inf, which still rank
	score, err := strconv.ParseFloat(fields[1], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return model.Sample{}, &ParseError{Text: text, Reason: "score is not a number"}
	}
	if math.IsNaN(score) {
		return model.Sample{}, &ParseError{Text: text, Reason: "score is NaN"}
	}

	return model.Sample{Label: label, Score: score}, nil
}
