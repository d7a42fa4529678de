package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/config"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ctxmeta"
)

func TestLogger_LevelAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Logger{Level: "warn"})

	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn level, got: %s", buf.String())
	}

	ctx := ctxmeta.WithRequestID(context.Background(), "rid-42")
	log.WarnContext(ctx, "visible", "key", "value")
	out := buf.String()
	if !strings.Contains(out, "visible") || !strings.Contains(out, "request_id=rid-42") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Logger{Level: "debug", Format: "json"})
	log.With("component", "test").Debug("hello")
	if !strings.Contains(buf.String(), `"component":"test"`) {
		t.Fatalf("expected json output, got: %s", buf.String())
	}
}
