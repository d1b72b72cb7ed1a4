package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestModuleLevelOverride(t *testing.T) {
	// Reset state
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	isInitialized = false
	mutex.Unlock()

	// Initialize with global info level, but process module at debug
	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"process": "debug",
			"jobs":    "warn",
		},
	})

	tests := []struct {
		module      string
		wantDebug   bool
		wantInfo    bool
		wantWarn    bool
		description string
	}{
		{"process", true, true, true, "process module should log debug (override to debug)"},
		{"jobs", false, false, true, "jobs module should only log warn (override to warn)"},
		{"other", false, true, true, "other module should log info (global default)"},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			logger := GetLogger(tt.module)

			// Get the handler from the logger to test Enabled
			// We need to check if the handler accepts different levels
			handler := logger.Handler()

			gotDebug := handler.Enabled(context.Background(), slog.LevelDebug)
			gotInfo := handler.Enabled(context.Background(), slog.LevelInfo)
			gotWarn := handler.Enabled(context.Background(), slog.LevelWarn)

			if gotDebug != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, gotDebug, tt.wantDebug)
			}
			if gotInfo != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, gotInfo, tt.wantInfo)
			}
			if gotWarn != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestModuleLevelWithMultiHandler(t *testing.T) {
	// Reset state
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	isInitialized = false
	mutex.Unlock()

	// Initialize with debug level for process module
	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"process": "debug",
		},
	})

	logger := GetLogger("process")
	handler := logger.Handler()

	// Verify the handler accepts debug level
	if !handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("process module handler should accept Debug level")
	}

	// Regardless of handler type, debug should be enabled
	if !handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("Debug should be enabled for process module, handler type: %T", handler)
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	// Create two handlers - one with debug, one with info
	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	multi := NewMultiHandler(debugHandler, infoHandler)
	logger := slog.New(multi).With("module", "test")

	// Write debug log - should appear once (from debugHandler)
	logger.Debug("debug only message")

	output := buf.String()
	if !strings.Contains(output, "debug only message") {
		t.Errorf("Debug message not written via MultiHandler. Output: %s", output)
	}

	// Count occurrences - should be 1 (only debugHandler writes it)
	count := strings.Count(output, "debug only message")
	if count != 1 {
		t.Errorf("Expected 1 debug message, got %d. Output: %s", count, output)
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	// Reset state completely
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	mutex.Unlock()

	// Get logger BEFORE Initialize - should default to info level
	loggerBefore := GetLogger("process")
	handlerBefore := loggerBefore.Handler()

	// Should NOT have debug enabled (defaults to info)
	if handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	// Now Initialize with debug level for process
	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"process": "debug",
		},
	})

	// Get logger AFTER Initialize - should be SAME logger (cached) with updated level
	loggerAfter := GetLogger("process")

	// With LevelVar fix, logger should be cached (same pointer) but level updated dynamically
	if loggerBefore != loggerAfter {
		t.Error("Logger should be cached - same pointer before and after Initialize")
	}

	// The cached logger should now have debug enabled (LevelVar was updated)
	if !handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Cached logger should have debug enabled after Initialize updates LevelVar")
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
				}
			} else {
				if got == nil {
					t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
				} else if *got != tt.want {
					t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
				}
			}
		})
	}
}

func TestModuleLoggerWritesToOutput(t *testing.T) {
	var buf bytes.Buffer

	mutex.Lock()
	prev := output
	output = &buf
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	mutex.Unlock()
	t.Cleanup(func() {
		mutex.Lock()
		output = prev
		mutex.Unlock()
	})

	Initialize(Config{Level: "debug", Format: "json"})
	GetLogger("jobs").Debug("Job finished", "job", "thumb")

	got := buf.String()
	for _, want := range []string{`"msg":"Job finished"`, `"module":"jobs"`, `"job":"thumb"`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %s: %s", want, got)
		}
	}
}

type failingHandler struct{ err error }

func (h failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h failingHandler) Handle(context.Context, slog.Record) error { return h.err }
func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h failingHandler) WithGroup(string) slog.Handler { return h }

func TestMultiHandlerKeepsGoingAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("journal unavailable")

	multi := NewMultiHandler(failingHandler{err: boom}, nil, slog.NewTextHandler(&buf, nil))
	err := multi.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0))

	if !errors.Is(err, boom) {
		t.Errorf("Handle() error = %v, want %v", err, boom)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("second handler did not receive record: %q", buf.String())
	}
}

func TestAddAttrToFields(t *testing.T) {
	fields := map[string]string{}

	addAttrToFields(fields, slog.String("module", "process"), nil)
	addAttrToFields(fields, slog.Int("pid", 42), nil)
	addAttrToFields(fields, slog.Bool("ok", true), []string{"exit"})
	addAttrToFields(fields, slog.Duration("elapsed", 1500*time.Millisecond), nil)
	addAttrToFields(fields, slog.Group("job", slog.String("name", "thumb")), nil)
	addAttrToFields(fields, slog.Attr{}, nil)

	want := map[string]string{
		"MODULE":   "process",
		"PID":      "42",
		"EXIT_OK":  "true",
		"ELAPSED":  "1.5s",
		"JOB_NAME": "thumb",
	}
	if len(fields) != len(want) {
		t.Errorf("got %d fields %v, want %d", len(fields), fields, len(want))
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("fields[%q] = %q, want %q", k, fields[k], v)
		}
	}
}

func TestMapLevelToPriority(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "7"},
		{slog.LevelInfo, "6"},
		{slog.LevelWarn, "4"},
		{slog.LevelError, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := mapLevelToPriority(tt.level); strconv.Itoa(int(got)) != tt.want {
				t.Errorf("mapLevelToPriority(%v) = %d, want %s", tt.level, got, tt.want)
			}
		})
	}
}
