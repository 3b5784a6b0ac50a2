package reader_test

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/rocauc/internal/adapters/reader"
	"github.com/okian/rocauc/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReader_ReadFile(t *testing.T) {
	Convey("Given a reader", t, func() {
		ctx := context.Background()
		r := reader.New()

		Convey("When the file is well formed", func() {
			path := writeFile(t, "1 0.9\n0 0.1\n-1 0.3\n1 2.5e-1\n")
			ds, err := r.ReadFile(ctx, path)

			Convey("Then every line should become a sample in order", func() {
				So(err, ShouldBeNil)
				So(ds.Source, ShouldEqual, path)
				So(ds.Labels, ShouldResemble, []int{1, 0, 0, 1})
				So(ds.Scores, ShouldResemble, []float64{0.9, 0.1, 0.3, 0.25})
			})
		})

		Convey("When fields are separated by tabs and lines end with CRLF", func() {
			path := writeFile(t, "1\t0.7\r\n0   0.2\r\n")
			ds, err := r.ReadFile(ctx, path)

			Convey("Then whitespace should not matter", func() {
				So(err, ShouldBeNil)
				So(ds.Labels, ShouldResemble, []int{1, 0})
				So(ds.Scores, ShouldResemble, []float64{0.7, 0.2})
			})
		})

		Convey("When the file is empty", func() {
			ds, err := r.ReadFile(ctx, writeFile(t, ""))

			Convey("Then an empty dataset should be returned", func() {
				So(err, ShouldBeNil)
				So(ds.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := r.ReadFile(ctx, filepath.Join(t.TempDir(), "missing.txt"))

			Convey("Then it should fail with ErrFileAccess", func() {
				So(errors.Is(err, reader.ErrFileAccess), ShouldBeTrue)
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
			})
		})

		Convey("When the path is a directory", func() {
			_, err := r.ReadFile(ctx, t.TempDir())

			Convey("Then it should fail with ErrFileAccess", func() {
				So(errors.Is(err, reader.ErrFileAccess), ShouldBeTrue)
			})
		})

		Convey("When a line has three fields", func() {
			path := writeFile(t, "1 0.9\n0 0.5 extra\n1 0.1\n")
			_, err := r.ReadFile(ctx, path)

			Convey("Then it should report the offending line", func() {
				So(errors.Is(err, reader.ErrParse), ShouldBeTrue)

				var pe *reader.ParseError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Source, ShouldEqual, path)
				So(pe.Line, ShouldEqual, 2)
				So(pe.Text, ShouldEqual, "0 0.5 extra")
				So(err.Error(), ShouldContainSubstring, ":2:")
			})
		})

		Convey("When a blank line sits between samples", func() {
			_, err := r.ReadFile(ctx, writeFile(t, "1 0.9\n\n0 0.1\n"))

			Convey("Then it should be a parse error", func() {
				var pe *reader.ParseError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Line, ShouldEqual, 2)
				So(pe.Reason, ShouldContainSubstring, "longer than 8 bytes")
			})
		})

		Convey("When every line fits within the limit", func() {
			ds, err := r.Read(context.Background(), strings.NewReader("1 0.25\n0 0.5\n"), "short.txt")

			Convey("Then it should read all samples", func() {
				So(err, ShouldBeNil)
				So(ds.Len(), ShouldEqual, 2)
			})
		})
	})
}

func TestReader_Stdin(t *testing.T) {
	Convey("Given a reader bound to an in-memory stdin", t, func() {
		r := reader.New(reader.WithStdin(strings.NewReader("0 0.4\n1 0.6\n")))

		Convey("When reading the \"-\" source", func() {
			ds, err := r.ReadFile(context.Background(), reader.Stdin)

			Convey("Then it should parse the stream", func() {
				So(err, ShouldBeNil)
				So(ds.Source, ShouldEqual, "stdin")
				So(ds.Labels, ShouldResemble, []int{0, 1})
			})
		})
	})
}

func TestReader_Limits(t *testing.T) {
	Convey("Given a reader with a small line limit", t, func() {
		r := reader.New(reader.WithMaxLineBytes(8))

		Convey("When a line exceeds the limit", func() {
			_, err := r.Read(context.Background(), strings.NewReader("1 0.5\n0 0.123456789\n"), "long.txt")

			Convey("Then it should be a parse error at that line", func() {
				var pe *reader.ParseError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Line, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When reading", func() {
			_, err := reader.New().Read(ctx, strings.NewReader("1 0.5\n"), "x")

			Convey("Then the cancellation should surface", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestParseLine(t *testing.T) {
	Convey("Given single lines", t, func() {
		Convey("Then valid lines should parse", func() {
			s, err := reader.ParseLine("1 0.75")
			So(err, ShouldBeNil)
			So(s.Label, ShouldEqual, 1)
			So(s.Score, ShouldEqual, 0.75)

			s, err = reader.ParseLine("-1 -3")
			So(err, ShouldBeNil)
			So(s.Label, ShouldEqual, 0)
			So(s.Score, ShouldEqual, -3.0)
		})

		Convey("Then overflowing scores should become infinities", func() {
			s, err := reader.ParseLine("1 1e400")
			So(err, ShouldBeNil)
			So(math.IsInf(s.Score, 1), ShouldBeTrue)
		})

		bad := []struct{ name, line string }{
			{"label not integer", "yes 0.5"},
			{"label float", "1.0 0.5"},
			{"label out of set", "2 0.5"},
			{"score not number", "1 abc"},
			{"score NaN", "0 NaN"},
			{"single field", "1"},
			{"no fields", "   "},
		}
		for _, tc := range bad {
			Convey("Then a line with "+tc.name+" should be rejected", func() {
				_, err := reader.ParseLine(tc.line)
				So(errors.Is(err, reader.ErrParse), ShouldBeTrue)
			})
		}
	})
}
