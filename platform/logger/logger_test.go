package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	log.WithContext(ctx).WithComponent("scheduler").Info("tick", "metric_type", "daily")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a JSON record: %v", err)
	}
	for key, want := range map[string]string{
		"msg":         "tick",
		"request_id":  "req-1",
		"component":   "scheduler",
		"metric_type": "daily",
	} {
		if rec[key] != want {
			t.Fatalf("expected %s=%q, got %v", key, want, rec[key])
		}
	}
}

func TestProductionDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("production", &buf).Debug("noise")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestDevelopmentIsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("development", &buf).Debug("noise")
	if !strings.Contains(buf.String(), "noise") {
		t.Fatalf("expected debug record, got %q", buf.String())
	}
	if json.Valid(buf.Bytes()) {
		t.Fatal("expected console output, got JSON")
	}
}

func TestWithContextWithoutValues(t *testing.T) {
	log := Nop()
	if log.WithContext(context.Background()) != log {
		t.Fatal("expected the same logger when the context carries no ids")
	}
}
