package domain

import (
	"testing"
	"time"
)

func TestParseDateKey(t *testing.T) {
	got, err := ParseDateKey(" 2026-10-16 ")
	if err != nil {
		t.Fatalf("parse date key: %v", err)
	}
	want := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("date = %v, want %v", got, want)
	}
	if _, err := ParseDateKey("16/10/2026"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestDayTruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	got := Day(time.Date(2026, time.October, 15, 22, 30, 0, 0, loc))
	want := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("day = %v, want %v", got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, time.October, 10, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, time.October, 16, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 6 {
		t.Fatalf("days between = %d, want 6", got)
	}
}

func TestParseWeekday(t *testing.T) {
	got, err := ParseWeekday(" MONDAY ")
	if err != nil {
		t.Fatalf("parse weekday: %v", err)
	}
	if got != time.Monday {
		t.Fatalf("weekday = %v, want %v", got, time.Monday)
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Fatal("expected error for unknown weekday")
	}
}
