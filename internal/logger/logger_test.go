package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)
	logger.now = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "source fetched",
			fields:  Fields{"source_url": "https://cs.example.edu/events"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "candidate dropped",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "store unreachable",
			err:     errors.New("connection refused"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			logger.log(tt.level, tt.message, tt.fields, tt.err)

			logged := buf.Len() > 0
			if logged != tt.want {
				t.Fatalf("log() logged = %v, want %v", logged, tt.want)
			}
			if !logged {
				return
			}

			var entry LogEntry
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log line is not JSON: %v", err)
			}
			if entry.Message != tt.message || entry.Level != string(tt.level) {
				t.Errorf("entry = %+v", entry)
			}
			if entry.Timestamp != "2025-09-01T12:00:00Z" {
				t.Errorf("Timestamp = %q", entry.Timestamp)
			}
			if tt.err != nil && entry.Error != tt.err.Error() {
				t.Errorf("Error = %q", entry.Error)
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, LevelDebug, true},
		{"info logs at debug", LevelDebug, LevelInfo, true},
		{"debug doesn't log at info", LevelInfo, LevelDebug, false},
		{"warn doesn't log at error", LevelError, LevelWarn, false},
		{"error always logs", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(tt.minLevel, &buf).log(tt.logLevel, "test", nil, nil)
			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("logged = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"debug", LevelDebug, false},
		{" Warning ", LevelWarn, false},
		{"ERROR", LevelError, false},
		{"verbose", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("candidates.kept")
	m.IncrCounter("candidates.kept")
	m.AddCounter("candidates.kept", 3)
	m.AddCounter("candidates.kept", -1)

	counters := m.GetSnapshot()["counters"].(map[string]int64)
	if counters["candidates.kept"] != 5 {
		t.Errorf("Counter = %v, want 5", counters["candidates.kept"])
	}
	if m.Counter("candidates.kept") != 5 {
		t.Errorf("Counter() = %d", m.Counter("candidates.kept"))
	}
}

func TestMetrics_Gauge(t *testing.T) {
	m := NewMetrics()

	m.SetGauge("events.stored", 12)
	m.SetGauge("events.stored", 15)

	gauges := m.GetSnapshot()["gauges"].(map[string]float64)
	if gauges["events.stored"] != 15 {
		t.Errorf("Gauge = %v, want 15", gauges["events.stored"])
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("source.fetch", 100*time.Millisecond)
	m.RecordTiming("source.fetch", 200*time.Millisecond)
	m.RecordTiming("source.fetch", 150*time.Millisecond)

	timings := m.GetSnapshot()["timings"].(map[string]map[string]interface{})
	fetch := timings["source.fetch"]
	if fetch["count"].(int) != 3 {
		t.Errorf("Timing count = %v, want 3", fetch["count"])
	}
	if fetch["min"].(string) != "100ms" {
		t.Errorf("Min timing = %v, want 100ms", fetch["min"])
	}
	if fetch["max"].(string) != "200ms" {
		t.Errorf("Max timing = %v, want 200ms", fetch["max"])
	}
	if fetch["average"].(string) != "150ms" {
		t.Errorf("Average timing = %v, want 150ms", fetch["average"])
	}
}

func TestMetrics_Register(t *testing.T) {
	m := NewMetrics()
	m.IncrCounter("runs")

	reg := prometheus.NewRegistry()
	if err := m.Register(reg, "seminarcal"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	m.AddCounter("runs", 2)
	m.SetGauge("events.stored", 7)
	m.RecordTiming("run", time.Second)

	if got := testutil.ToFloat64(m.promCounters.WithLabelValues("runs")); got != 3 {
		t.Errorf("prometheus counter = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.promGauges.WithLabelValues("events.stored")); got != 7 {
		t.Errorf("prometheus gauge = %v, want 7", got)
	}

	expected := `
# HELP seminarcal_events_total Pipeline counters by name.
# TYPE seminarcal_events_total counter
seminarcal_events_total{name="runs"} 3
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "seminarcal_events_total"); err != nil {
		t.Error(err)
	}

	if err := m.Register(reg, "seminarcal"); err == nil {
		t.Error("registering twice should fail")
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(prev)

	Debug("test debug", nil)
	Info("test info", Fields{"key": "value"})
	Warn("test warning", nil)
	Error("test error", Fields{"component": "test"}, errors.New("test"))

	if lines := strings.Count(buf.String(), "\n"); lines != 4 {
		t.Errorf("logged %d lines, want 4", lines)
	}

	IncrCounter("test")
	SetGauge("test", 42.0)
	RecordTiming("test", time.Second)
	if GetMetricsSnapshot() == nil || DefaultMetrics() == nil {
		t.Error("default metrics unavailable")
	}
}
