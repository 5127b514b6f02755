package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func newBufferLogger(level slog.Level) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})), &buf
}

func TestNew(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelDebug)

	logger.Info("fetched tag page", "repo", "nginx/nginx")

	output := buf.String()
	if !strings.Contains(output, "fetched tag page") {
		t.Errorf("expected output to contain message, got: %s", output)
	}
	if !strings.Contains(output, "repo=nginx/nginx") {
		t.Errorf("expected output to contain 'repo=nginx/nginx', got: %s", output)
	}
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(Logger)
	}{
		{"Debug", func(l Logger) { l.Debug("skipping tag") }},
		{"Info", func(l Logger) { l.Info("skipping tag") }},
		{"Warn", func(l Logger) { l.Warn("skipping tag") }},
		{"Error", func(l Logger) { l.Error("skipping tag") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(slog.LevelDebug)
			tt.logFunc(logger)

			output := buf.String()
			if !strings.Contains(output, "skipping tag") {
				t.Errorf("expected message in output, got: %s", output)
			}
			if !strings.Contains(output, "level="+strings.ToUpper(tt.name)) {
				t.Errorf("expected level %s in output, got: %s", tt.name, output)
			}
		})
	}
}

func TestLoggerWith(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelDebug)

	logger.With("project", "docker").With("view", "major").Debug("cache miss")

	output := buf.String()
	for _, want := range []string{"project=docker", "view=major", "cache miss"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got: %s", want, output)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelWarn)

	logger.Debug("debug - hidden")
	logger.Info("info - hidden")
	logger.Warn("warn - shown")
	logger.Error("error - shown")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("records below WARN should be filtered, got: %s", output)
	}
	if !strings.Contains(output, "warn - shown") || !strings.Contains(output, "error - shown") {
		t.Errorf("WARN and ERROR records should appear, got: %s", output)
	}
}

func TestNoop(t *testing.T) {
	logger := NewNoop()

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	if _, ok := logger.With("key", "value").(noopLogger); !ok {
		t.Error("expected With() on noopLogger to return noopLogger")
	}
}

func TestDefaultLogger(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	Default().Info("should not panic")

	custom, buf := newBufferLogger(slog.LevelDebug)
	SetDefault(custom)
	Default().Info("custom logger message")

	if !strings.Contains(buf.String(), "custom logger message") {
		t.Errorf("expected custom logger to be used, got: %s", buf.String())
	}
}

func TestDefaultLoggerConcurrency(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Default().Info("concurrent read")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				SetDefault(NewNoop())
			}
		}()
	}
	wg.Wait()
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"logfmt", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(NewHandler(&buf, slog.LevelInfo, FormatJSON))

	logger.Debug("dropped")
	logger.Info("request", "status", 200)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "request" || record["status"] != float64(200) {
		t.Errorf("unexpected record: %v", record)
	}
	if _, ok := record["source"]; ok {
		t.Error("source should only be added at debug level")
	}
}

func TestNewHandler_TextDebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger := New(NewHandler(&buf, slog.LevelDebug, FormatText))

	logger.Debug("page")

	output := buf.String()
	if !strings.Contains(output, "source=") {
		t.Errorf("expected source location at debug level, got: %s", output)
	}
	if !strings.Contains(output, "msg=page") {
		t.Errorf("expected text record, got: %s", output)
	}
}
