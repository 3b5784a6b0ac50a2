package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerWritesToConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().Info(context.Background(), "evaluated", String("file", "a.txt"), Float64("auc", 0.75))

	out := buf.String()
	if !strings.Contains(out, "msg=evaluated") {
		t.Errorf("missing message in %q", out)
	}
	if !strings.Contains(out, "auc=0.75") {
		t.Errorf("missing field in %q", out)
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Errorf("missing caller in %q", out)
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithFormat(FormatJSON)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("reader").Error(context.Background(), "parse failed", Error(errors.New("bad line")), Int("line", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("record is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "parse failed" {
		t.Errorf("unexpected msg: %v", rec["msg"])
	}
	if rec["logger"] != "reader" {
		t.Errorf("unexpected logger name: %v", rec["logger"])
	}
	if rec["line"] != float64(3) {
		t.Errorf("unexpected line: %v", rec["line"])
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record written at info level: %q", buf.String())
	}

	for _, lvl := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q): %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}

	_ = SetLevelString("debug")
	Get().Debug(ctx, "shown")
	if !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("debug record missing at debug level: %q", buf.String())
	}
}
