package logger

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*structuredHandler, *asyncWriter) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	}), aw
}

func flushLine(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "dialog")
	LogEvent(ctx, log, slog.LevelInfo, "city.lookup",
		slog.String("status", "ok"),
		slog.String("city", "Kyiv"),
	)

	line := flushLine(t, aw, buf)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=dialog", "event=city.lookup", "status=ok", "rid=rid-123"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
	if !strings.Contains(line, "user_id=7") || !strings.Contains(line, "chat_id=9") {
		t.Fatalf("expected update meta from context, got %s", line)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	ctx := WithRID(Background(), "rid-json")
	ctx = WithTraceID(ctx, "trace-1")

	log := slog.New(handler).With("component", "weather")
	LogEvent(ctx, log, slog.LevelError, "fetch.failed",
		slog.String("status", "unavailable"),
		slog.String("err", "boom"),
		slog.Duration("duration", 1500*time.Microsecond),
	)

	line := flushLine(t, aw, buf)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"weather"`, `"event":"fetch.failed"`, `"status":"unavailable"`, `"rid":"rid-json"`, `"trace_id":"trace-1"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
	if !strings.Contains(line, `"duration_ms":2`) {
		t.Fatalf("expected duration normalized to ms, got %s", line)
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	rawRID := "123:456:789"
	LogEvent(WithRID(Background(), rawRID), slog.New(handler), slog.LevelInfo, "rid.test")

	line := flushLine(t, aw, buf)
	if !strings.Contains(line, "rid="+CompactRID(rawRID)) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if strings.Contains(line, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", line)
	}
	if !strings.Contains(line, "component=app") {
		t.Fatalf("expected default component, got %s", line)
	}
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	rawRID := "12:34:56"
	LogEvent(WithRID(Background(), rawRID), slog.New(handler), slog.LevelInfo, "rid.test")

	line := flushLine(t, aw, buf)
	if !strings.Contains(line, `"rid":"`+CompactRID(rawRID)+`"`) {
		t.Fatalf("expected compact rid in JSON, got %s", line)
	}
	if !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", line)
	}
	if !strings.Contains(line, `"ts_unix_nano"`) {
		t.Fatalf("expected ts_unix_nano in JSON output, got %s", line)
	}
}

func TestStructuredHandlerDropsDebugBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	LogEvent(Background(), slog.New(handler), slog.LevelDebug, "noise")
	if line := flushLine(t, aw, buf); line != "" {
		t.Fatalf("expected no output, got %s", line)
	}
}

func TestCompactRID(t *testing.T) {
	cases := map[string]string{
		"35:36:37":  "z.10.11",
		"not-a-rid": "not-a-rid",
		"1:x:2":     "1:x:2",
	}
	for in, want := range cases {
		if got := CompactRID(in); got != want {
			t.Fatalf("CompactRID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var allowed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}

	if n, d := parseRatioSpec("2/5"); n != 2 || d != 5 {
		t.Fatalf("parseRatioSpec(2/5) = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("10"); n != 1 || d != 10 {
		t.Fatalf("parseRatioSpec(10) = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("off"); n != 0 || d != 0 {
		t.Fatalf("parseRatioSpec(off) = %d/%d", n, d)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("ab\x00c\u200bdé", 4); got != "abcd" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := Sanitize("line\nnext\ttab"); got != "line\nnext\ttab" {
		t.Fatalf("Sanitize kept = %q", got)
	}
}
