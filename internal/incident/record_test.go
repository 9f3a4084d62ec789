package incident

import (
	"reflect"
	"testing"
	"time"
)

func TestParseOccurredAt(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-15 14:30:00", time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)},
		{"2024-03-15 14:30", time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)},
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2024/03/15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseOccurredAt(tt.in)
		if err != nil {
			t.Errorf("ParseOccurredAt(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseOccurredAt(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseOccurredAt("not a date"); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestDeriveCalendar(t *testing.T) {
	// 2024-03-15 is a Friday, 14:30 is business hours.
	r := Record{IncidentID: "INC-1", OccurredAt: "2024-03-15 14:30:00"}
	if err := r.DeriveCalendar(); err != nil {
		t.Fatalf("DeriveCalendar: %v", err)
	}

	if r.Year != "2024" {
		t.Errorf("Year = %q", r.Year)
	}
	if r.Month != "3" {
		t.Errorf("Month = %q", r.Month)
	}
	if r.Week != "금" {
		t.Errorf("Week = %q", r.Week)
	}
	if r.Daynight != DaynightDay {
		t.Errorf("Daynight = %q", r.Daynight)
	}
}

func TestDeriveCalendarKeepsExisting(t *testing.T) {
	r := Record{IncidentID: "INC-2", OccurredAt: "2024-03-15 02:00:00", Week: "토"}
	if err := r.DeriveCalendar(); err != nil {
		t.Fatalf("DeriveCalendar: %v", err)
	}

	// Source-provided field is not overwritten.
	if r.Week != "토" {
		t.Errorf("Week = %q, want 토", r.Week)
	}
	if r.Daynight != DaynightNight {
		t.Errorf("Daynight = %q, want 야간", r.Daynight)
	}
}

func TestDaynightOf(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{8, DaynightDay},
		{14, DaynightDay},
		{19, DaynightDay},
		{20, DaynightNight},
		{2, DaynightNight},
		{7, DaynightNight},
	}
	for _, tt := range tests {
		if got := DaynightOf(tt.hour); got != tt.want {
			t.Errorf("DaynightOf(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestWeekdayClassMembers(t *testing.T) {
	if got := WeekdayClassMembers("평일"); !reflect.DeepEqual(got, []string{"월", "화", "수", "목", "금"}) {
		t.Errorf("평일 = %v", got)
	}
	if got := WeekdayClassMembers("주말"); !reflect.DeepEqual(got, []string{"토", "일"}) {
		t.Errorf("주말 = %v", got)
	}
	if got := WeekdayClassMembers("수"); !reflect.DeepEqual(got, []string{"수"}) {
		t.Errorf("수 = %v", got)
	}
	if got := WeekdayClassMembers("없음"); got != nil {
		t.Errorf("없음 = %v, want nil", got)
	}
}

func TestWeekdayOrder(t *testing.T) {
	if WeekdayOrder("월") != 1 || WeekdayOrder("일") != 7 {
		t.Error("weekday order must run Monday-first")
	}
	if WeekdayOrder("x") != 8 {
		t.Error("unknown labels must sort last")
	}
}

func TestSearchText(t *testing.T) {
	r := Record{Symptom: "접속 불가", RootCause: "커넥션 풀 고갈", Repair: "재기동"}
	got := r.SearchText()
	want := "접속 불가\n커넥션 풀 고갈\n재기동"
	if got != want {
		t.Errorf("SearchText = %q, want %q", got, want)
	}
}
