package month

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths_TableTests(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{
			name:  "plain month",
			start: date(2025, 1, 10),
			n:     1,
			want:  date(2025, 2, 10),
		},
		{
			name:  "day after end of period",
			start: date(2025, 2, 11),
			n:     1,
			want:  date(2025, 3, 11),
		},
		{
			name:  "clamp to end of february",
			start: date(2025, 1, 31),
			n:     1,
			want:  date(2025, 2, 28),
		},
		{
			name:  "clamp to leap day",
			start: date(2024, 1, 31),
			n:     1,
			want:  date(2024, 2, 29),
		},
		{
			name:  "year transition",
			start: date(2024, 11, 20),
			n:     6,
			want:  date(2025, 5, 20),
		},
		{
			name:  "twelve months",
			start: date(2025, 3, 31),
			n:     12,
			want:  date(2026, 3, 31),
		},
		{
			name:  "negative months",
			start: date(2025, 3, 31),
			n:     -1,
			want:  date(2025, 2, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.start, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("AddMonths(%v, %d) = %v, want %v", tt.start, tt.n, got, tt.want)
			}
		})
	}
}

func TestBetween_TableTests(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{name: "same day", from: date(2025, 1, 10), to: date(2025, 1, 10), want: 0},
		{name: "one full month", from: date(2025, 1, 10), to: date(2025, 2, 10), want: 1},
		{name: "one day short", from: date(2025, 1, 10), to: date(2025, 2, 9), want: 0},
		{name: "end of month clamp", from: date(2025, 1, 31), to: date(2025, 2, 28), want: 1},
		{name: "across years", from: date(2024, 11, 20), to: date(2025, 5, 20), want: 6},
		{name: "backwards", from: date(2025, 2, 10), to: date(2025, 1, 10), want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Between(tt.from, tt.to); got != tt.want {
				t.Errorf("Between(%v, %v) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestBetween_InverseOfAddMonths(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := date(
			rapid.IntRange(2000, 2100).Draw(t, "year"),
			time.Month(rapid.IntRange(1, 12).Draw(t, "month")),
			rapid.IntRange(1, 31).Draw(t, "day"),
		)
		n := rapid.IntRange(1, 60).Draw(t, "months")

		end := AddMonths(start, n)
		if got := Between(start, end); got != n {
			t.Fatalf("Between(%v, %v) = %d, want %d", start, end, got, n)
		}
		if !end.After(start) {
			t.Fatalf("AddMonths(%v, %d) = %v is not after start", start, n, end)
		}
	})
}

func TestMonthBounds(t *testing.T) {
	ref := time.Date(2024, 2, 17, 15, 4, 5, 0, time.UTC)

	if got := FirstDay(ref); !got.Equal(date(2024, 2, 1)) {
		t.Errorf("FirstDay = %v", got)
	}
	if got := LastDay(ref); !got.Equal(date(2024, 2, 29)) {
		t.Errorf("LastDay = %v", got)
	}
	if got := Key(ref); got != "2024-02" {
		t.Errorf("Key = %s", got)
	}
	if got := Day(ref); !got.Equal(date(2024, 2, 17)) {
		t.Errorf("Day = %v", got)
	}
	if got := DaysBetween(date(2025, 1, 10), date(2025, 2, 10)); got != 31 {
		t.Errorf("DaysBetween = %d", got)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-01-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(date(2025, 1, 10)) {
		t.Errorf("ParseDate = %v", got)
	}
	if _, err := ParseDate("10-01-2025"); err == nil {
		t.Error("expected error for wrong layout")
	}
}
