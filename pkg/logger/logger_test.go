package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
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

func TestLoggerWritesFieldsAndSource(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	if err := SetFormat(FormatText); err != nil {
		t.Fatalf("set format: %v", err)
	}
	SetLevel(0)

	Get().Info(context.Background(), "predicted", Int("count", 3), String("model", "v1"))

	line := buf.String()
	for _, want := range []string{"msg=predicted", "count=3", "model=v1", "logger_test.go"} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q in %q", want, line)
		}
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	if err := SetFormat(FormatJSON); err != nil {
		t.Fatalf("set format: %v", err)
	}
	defer func() { _ = SetFormat(FormatText) }()

	ctx := WithRequestID(context.Background(), "req-1")
	Get().With(String("component", "api")).Warn(ctx, "slow")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "api" {
		t.Errorf("expected component=api, got %v", entry["component"])
	}
	if entry["request_id"] != "req-1" {
		t.Errorf("expected request_id=req-1, got %v", entry["request_id"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	if err := SetLevelString("error"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	Named("test").Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at error level, got %q", buf.String())
	}
}

func TestSetLevelStringRejectsUnknown(t *testing.T) {
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := SetFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
