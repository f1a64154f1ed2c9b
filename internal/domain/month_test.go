package domain

import (
	"testing"
	"time"
)

func TestParseMonthKey(t *testing.T) {
	tests := []struct {
		in      string
		want    MonthKey
		wantErr bool
	}{
		{"2024-03", MonthKey{2024, time.March}, false},
		{"2024-12", MonthKey{2024, time.December}, false},
		{"2024-13", MonthKey{}, true},
		{"2024-3", MonthKey{}, true},
		{"202403", MonthKey{}, true},
		{"", MonthKey{}, true},
	}

	for _, tt := range tests {
		got, err := ParseMonthKey(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMonthKey(%q): expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMonthKey(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMonthKey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMonthKeyStringRoundTrip(t *testing.T) {
	key := MonthKey{Year: 2024, Month: time.March}
	if key.String() != "2024-03" {
		t.Fatalf("String() = %q, want 2024-03", key.String())
	}
	parsed, err := ParseMonthKey(key.String())
	if err != nil {
		t.Fatalf("ParseMonthKey: %v", err)
	}
	if parsed != key {
		t.Fatalf("round trip changed key: %v", parsed)
	}
}

func TestMonthKeyWindow(t *testing.T) {
	key := MonthKey{Year: 2024, Month: time.February}

	if got := key.Start(); !got.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start() = %v", got)
	}
	// Leap year: February ends on March 1.
	if got := key.End(); !got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("End() = %v", got)
	}

	// Window is half-open: the last instant of the month is inside, the
	// end boundary is not.
	if !key.Contains(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)) {
		t.Error("Contains(last instant of Feb) = false")
	}
	if key.Contains(key.End()) {
		t.Error("Contains(End()) = true, window must be half-open")
	}
	if key.Contains(time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)) {
		t.Error("Contains(before Start) = true")
	}
}

func TestMonthKeyNextAcrossYear(t *testing.T) {
	key := MonthKey{Year: 2024, Month: time.December}
	next := key.Next()
	if next != (MonthKey{Year: 2025, Month: time.January}) {
		t.Fatalf("Next() = %v", next)
	}
	if !next.After(key) {
		t.Error("Next() must be after the current month")
	}
	if key.After(key) {
		t.Error("After must be strict")
	}
}

func TestMonthKeyIndexDistance(t *testing.T) {
	a := MonthKey{Year: 2024, Month: time.November}
	b := MonthKey{Year: 2025, Month: time.February}
	if got := b.Index() - a.Index(); got != 3 {
		t.Fatalf("month distance = %d, want 3", got)
	}
}
