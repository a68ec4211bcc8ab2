package event

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		want     time.Time
		wantZero bool
	}{
		{name: "ISO date", date: "2025-10-10", want: time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)},
		{name: "Empty string", date: "", wantZero: true},
		{name: "Slash format rejected", date: "10/10/2025", wantZero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.date)
			if tt.wantZero {
				if !got.IsZero() {
					t.Errorf("ParseDate(%q) = %v, want zero", tt.date, got)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestClockMinutes(t *testing.T) {
	tests := []struct {
		clock string
		want  int
	}{
		{"12:00 AM", 0},
		{"9:05 AM", 545},
		{"12:30 PM", 750},
		{"4:00 PM", 960},
		{TimeTBD, -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := ClockMinutes(tt.clock); got != tt.want {
			t.Errorf("ClockMinutes(%q) = %d, want %d", tt.clock, got, tt.want)
		}
	}
}

func TestRecord_StartTime(t *testing.T) {
	rec := &Record{Date: "2025-10-10", Time: "4:30 PM"}
	got, ok := rec.StartTime(time.UTC)
	if !ok || !got.Equal(time.Date(2025, 10, 10, 16, 30, 0, 0, time.UTC)) {
		t.Errorf("StartTime() = %v, %v", got, ok)
	}

	rec.Time = TimeTBD
	got, ok = rec.StartTime(time.UTC)
	if ok || !got.Equal(time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartTime(TBD) = %v, %v", got, ok)
	}
}
