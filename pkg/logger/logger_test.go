package logger

import (
	"bytes"
	"context"
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
}

func TestLoggerSetOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := SetOutput(&buf); err != nil {
		t.Fatalf("failed to set output: %v", err)
	}
	defer func() { _ = Init() }()

	ctx := context.Background()
	Get().Info(ctx, "scored records", Int("records", 4), Float64("f1", 0.5))

	out := buf.String()
	if !strings.Contains(out, "scored records") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "records=4") {
		t.Errorf("expected records field in output, got %q", out)
	}
	if !strings.Contains(out, "source=") {
		t.Errorf("expected source field in output, got %q", out)
	}
}

func TestLoggerSetOutputNil(t *testing.T) {
	if err := SetOutput(nil); err == nil {
		t.Fatal("expected error for nil output")
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := SetOutput(&buf); err != nil {
		t.Fatalf("failed to set output: %v", err)
	}
	defer func() { _ = Init() }()

	Named("scorer").Warn(context.Background(), "degenerate input", Error(errors.New("boom")))

	out := buf.String()
	if !strings.Contains(out, "component=scorer") {
		t.Errorf("expected component field, got %q", out)
	}
	if !strings.Contains(out, "error=boom") {
		t.Errorf("expected error field, got %q", out)
	}
}

func TestSetLevelString(t *testing.T) {
	defer func() { _ = SetLevelString("info") }()

	for _, level := range []string{"debug", "INFO", " warn ", "warning", "error", ""} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("level %q: unexpected error %v", level, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := SetOutput(&buf); err != nil {
		t.Fatalf("failed to set output: %v", err)
	}
	defer func() {
		_ = SetLevelString("info")
		_ = Init()
	}()

	_ = SetLevelString("warn")
	ctx := context.Background()
	Get().Info(ctx, "hidden")
	Get().Warn(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message should be logged: %q", out)
	}
}
