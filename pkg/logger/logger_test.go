package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "request sent",
		String("method", "GET"),
		Int("status", 200),
		Duration("elapsed", 150*time.Millisecond),
	)

	out := buf.String()
	if !strings.Contains(out, "request sent") {
		t.Fatalf("log output missing message: %q", out)
	}
	if !strings.Contains(out, "method=GET") {
		t.Fatalf("log output missing field: %q", out)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Debug(ctx, "hidden at info")
	if strings.Contains(buf.String(), "hidden at info") {
		t.Fatal("debug message logged at info level")
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("failed to set level: %v", err)
	}
	Get().Debug(ctx, "visible at debug")
	if !strings.Contains(buf.String(), "visible at debug") {
		t.Fatal("debug message not logged at debug level")
	}

	if err := SetLevelString("nonsense"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	SetLevelString("info")
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	named := Named("pipeline")
	if named == nil {
		t.Fatal("named logger is nil")
	}

	named.Info(context.Background(), "ready", String("k", "v"))
	if !strings.Contains(buf.String(), "pipeline.k=v") {
		t.Fatalf("named logger did not group fields: %q", buf.String())
	}
}
