package model

import (
	"testing"
	"time"
)

func TestIsRecent(t *testing.T) {
	now := time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		processedAt string
		want        bool
	}{
		{"just processed", now.Format(time.RFC3339), true},
		{"one hour ago", now.Add(-time.Hour).Format(time.RFC3339), true},
		{"exactly 24h", now.Add(-24 * time.Hour).Format(time.RFC3339), true},
		{"24h and one second", now.Add(-24*time.Hour - time.Second).Format(time.RFC3339), false},
		{"two days ago", now.Add(-48 * time.Hour).Format(time.RFC3339), false},
		{"in the future", now.Add(time.Hour).Format(time.RFC3339), true},
		{"absent", "", false},
		{"whitespace", "   ", false},
		{"garbage", "yesterday-ish", false},
		{"python isoformat", "2024-06-02T02:30:00.123456+00:00", true},
		{"zoneless read as UTC", "2024-06-01T12:00:00", true},
		{"zoneless just outside", "2024-06-01T11:59:59", false},
		{"offset respected", "2024-06-02T20:00:00+09:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecent(tt.processedAt, now); got != tt.want {
				t.Errorf("IsRecent(%q) = %v, want %v", tt.processedAt, got, tt.want)
			}
		})
	}
}

func TestIsRecentIsPure(t *testing.T) {
	processed := "2024-01-01T00:00:00Z"
	early := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	late := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if !IsRecent(processed, early) {
			t.Fatalf("call %d: expected recent relative to %v", i, early)
		}
		if IsRecent(processed, late) {
			t.Fatalf("call %d: expected stale relative to %v", i, late)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	got, ok := ParseTimestamp("2024-01-01T09:00:00+09:00")
	if !ok {
		t.Fatal("expected timestamp to parse")
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, ok = ParseTimestamp("2024-03-05")
	if !ok || got.Day() != 5 || got.Month() != time.March {
		t.Errorf("date-only parse: got %v ok=%v", got, ok)
	}

	if _, ok := ParseTimestamp("03/05/2024"); ok {
		t.Error("US-style date should not parse")
	}
}
