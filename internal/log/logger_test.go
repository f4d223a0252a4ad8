package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentViewSync, Output: &buf})
	l.Info("refreshed", FieldCount, 3)
	out := buf.String()
	if !strings.Contains(out, "component=viewsync") || !strings.Contains(out, "count=3") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentLedger).Warn("failed")
	if !strings.Contains(buf.String(), "component=ledger_client") {
		t.Fatalf("component not switched: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError,
		"": slog.LevelInfo, "nonsense": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	l := Discard().WithComponent(ComponentHTTP)
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatal("expected logger from context")
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithOperation(OpCreate).
		WithError(errors.New("boom")).
		WithComponent(ComponentStore).
		WithTransaction("Rent", "2024-01-05", "1500", "expense")
	slice := f.ToSlice()
	if len(slice) != 12 {
		t.Fatalf("expected 6 pairs without component, got %d items", len(slice))
	}
}
