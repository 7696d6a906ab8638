package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLogger_Make_DefaultConfiguration(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf)

	if logger.Level() != DefaultLevel {
		t.Errorf("expected default level %v, got %v", DefaultLevel, logger.Level())
	}
	if logger.caller {
		t.Error("expected caller disabled by default")
	}
	if logger.Format() != DefaultFormat {
		t.Errorf("expected default format %v, got %v", DefaultFormat, logger.Format())
	}
	if logger.pretty != DefaultPretty {
		t.Errorf("expected pretty=%v, got %v", DefaultPretty, logger.pretty)
	}
}

func TestLogger_WithLevel_FiltersMessages(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func(Logger, string, ...slog.Attr)
		minLevel Level
		logged   bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at debug", Logger.Debug, LevelDebug, true},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at info", Logger.Info, LevelInfo, true},
		{"info at warn", Logger.Info, LevelWarn, false},
		{"warn at warn", Logger.Warn, LevelWarn, true},
		{"warn at error", Logger.Warn, LevelError, false},
		{"error at error", Logger.Error, LevelError, true},
		{"error at trace", Logger.Error, LevelTrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Make(&buf, WithLevel(tt.minLevel), WithPretty(false))
			tt.logFunc(logger, "test message")

			if got := buf.Len() > 0; got != tt.logged {
				t.Errorf("expected logged=%v, got output %q", tt.logged, buf.String())
			}
		})
	}
}

func TestLogger_WithTimeLayout(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		check  func(string) bool
	}{
		{"rfc3339", "RFC3339", func(s string) bool { return strings.Contains(s, "T") }},
		{"kitchen", "kitchen", func(s string) bool {
			return strings.HasSuffix(s, "AM") || strings.HasSuffix(s, "PM")
		}},
		{"custom", "2006", func(s string) bool { return len(s) == 4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Make(&buf,
				WithLevel(LevelInfo),
				WithTimeLayout(tt.layout),
				WithFormat(FormatJSON),
				WithPretty(false))
			logger.Info("test")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}

			ts, _ := entry["time"].(string)
			if !tt.check(ts) {
				t.Errorf("unexpected timestamp %q for layout %q", ts, tt.layout)
			}
		})
	}
}

func TestLogger_WithTimeLayout_None_OmitsTime(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer
		l := Make(&buf,
			WithLevel(LevelInfo),
			WithTimeLayout("none"),
			WithPretty(pretty),
			WithFormat(FormatJSON))
		l.Info("test")

		if strings.Contains(buf.String(), `"time"`) {
			t.Errorf("pretty=%v: expected no time field, got: %s", pretty, buf.String())
		}
	}
}

func TestLogger_WithCaller_IncludesSource(t *testing.T) {
	var buf bytes.Buffer
	Make(&buf, WithLevel(LevelInfo), WithCaller(true), WithPretty(false)).
		Info("test message")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("expected caller to point at this file, got: %s", buf.String())
	}

	buf.Reset()
	Make(&buf, WithLevel(LevelInfo), WithCaller(false), WithPretty(false)).
		Info("test message")

	if strings.Contains(buf.String(), "source") {
		t.Errorf("caller included when disabled: %s", buf.String())
	}
}

func TestLogger_WithFormat_SetsOutputFormat(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Make(&buf, WithLevel(LevelInfo), WithFormat(FormatJSON), WithPretty(false))
		logger.Info("test message", slog.String("key", "value"))

		var result map[string]any
		if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
			t.Fatalf("failed to parse JSON output: %v", err)
		}
		if result["msg"] != "test message" {
			t.Errorf("expected msg=test message, got %v", result["msg"])
		}
		if result["key"] != "value" {
			t.Errorf("expected key=value, got %v", result["key"])
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Make(&buf, WithLevel(LevelInfo), WithFormat(FormatText), WithPretty(false))
		logger.Info("test message", slog.String("key", "value"))

		if !strings.Contains(buf.String(), "key=value") {
			t.Errorf("key=value not found in text output: %s", buf.String())
		}
	})
}

func TestLogger_Pretty_LevelNames(t *testing.T) {
	tests := []struct {
		logFunc func(Logger, string, ...slog.Attr)
		level   string
	}{
		{Logger.Trace, "TRACE"},
		{Logger.Debug, "DEBUG"},
		{Logger.Info, "INFO"},
		{Logger.Warn, "WARN"},
		{Logger.Error, "ERROR"},
	}

	for _, format := range []Format{FormatText, FormatJSON} {
		for _, tt := range tests {
			t.Run(format.String()+"/"+tt.level, func(t *testing.T) {
				var buf bytes.Buffer
				logger := Make(&buf, WithLevel(LevelTrace), WithFormat(format), WithPretty(true))

				tt.logFunc(logger, "test message")

				output := buf.String()
				if !strings.Contains(output, "test message") {
					t.Errorf("expected message in output, got: %s", output)
				}
				if !strings.Contains(output, tt.level) {
					t.Errorf("expected level %q in output, got: %s", tt.level, output)
				}
				if strings.Contains(output, "DEBUG-4") {
					t.Errorf("trace level rendered numerically: %s", output)
				}
			})
		}
	}
}

func TestLogger_Pretty_KeepsWithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelInfo), WithFormat(FormatText), WithPretty(true)).
		With(slog.String("component", "lexer")).
		WithGroup("pos")

	logger.Info("token", slog.Int("line", 3))

	output := buf.String()
	for _, want := range []string{"component=lexer", "pos.line=3"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

type valuer struct{}

func (valuer) LogValue() slog.Value {
	return slog.GroupValue(slog.String("kind", "resolved"))
}

func TestLogger_Pretty_ResolvesLogValuer(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelInfo), WithFormat(FormatText), WithPretty(true))

	logger.Info("msg", slog.Any("err", valuer{}), slog.Any("cause", errors.New("boom")))

	output := buf.String()
	for _, want := range []string{"err.kind=resolved", "cause=boom"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestLogger_Wrap_OverridesConfiguration(t *testing.T) {
	var first, second bytes.Buffer
	base := Make(&first, WithLevel(LevelError))
	wrapped := base.Wrap(WithOutput(&second), WithLevel(LevelDebug))

	if base.Level() != LevelError {
		t.Errorf("Wrap mutated the receiver: level %v", base.Level())
	}
	if wrapped.Level() != LevelDebug {
		t.Errorf("expected wrapped level debug, got %v", wrapped.Level())
	}

	wrapped.Debug("hello")

	if first.Len() != 0 || !strings.Contains(second.String(), "hello") {
		t.Errorf("expected output only in wrapped writer: first=%q second=%q",
			first.String(), second.String())
	}
}

func TestLogger_ConcurrentCalls_ThreadSafe(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelInfo), WithPretty(false))

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("concurrent message", slog.Int("id", id))
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 100 {
		t.Errorf("expected 100 log lines, got %d", len(lines))
	}
}

func TestLogger_ZeroValue_Safety(t *testing.T) {
	var l Logger
	// Should not panic
	l.Trace("test")
	l.Debug("test")
	l.InfoContext(t.Context(), "test")
	l.Warn("test")
	l.Error("test")

	if l.Enabled(t.Context(), LevelError) {
		t.Error("zero logger reports enabled")
	}

	l2 := l.With(slog.String("key", "value"))
	if l2.Logger != nil {
		t.Error("expected nil logger from zero value With")
	}
}

func TestPackage_Functions_UseDefaultLogger(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
	}{
		{"Trace", Trace, "TRACE"},
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
		{"InfoContext", func(msg string, attrs ...slog.Attr) {
			InfoContext(t.Context(), msg, attrs...)
		}, "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Config(
				WithOutput(&buf),
				WithLevel(LevelTrace),
				WithFormat(FormatJSON),
				WithPretty(false))

			tt.fn("package message", slog.String("key", "value"))

			output := buf.String()
			if !strings.Contains(output, "package message") ||
				!strings.Contains(output, tt.level) ||
				!strings.Contains(output, `"key":"value"`) {
				t.Errorf("unexpected output: %s", output)
			}
		})
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelInfo))

	for i := 0; b.Loop(); i++ {
		logger.Info("benchmark message", slog.Int("iteration", i))
	}
}

func BenchmarkLogger_Trace_Disabled(b *testing.B) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelWarn))

	for i := 0; b.Loop(); i++ {
		logger.Trace("benchmark message", slog.Int("iteration", i))
	}
}
