// Package incident defines the incident record model and the calendar
// vocabulary shared by the statistics and retrieval layers.
package incident

import (
	"fmt"
	"strings"
	"time"
)

// Record is one incident as stored. Calendar fields (Year, Month, Week,
// Daynight) are kept denormalized next to OccurredAt so aggregate
// queries can group and filter on them directly.
type Record struct {
	IncidentID  string `json:"incident_id"`
	ServiceName string `json:"service_name"`
	OccurredAt  string `json:"error_date"`
	Year        string `json:"year"`
	Month       string `json:"month"`
	Week        string `json:"week"`
	Daynight    string `json:"daynight"`
	DurationMin int    `json:"error_time"`
	Grade       string `json:"incident_grade"`
	CauseType   string `json:"cause_type"`
	DoneType    string `json:"done_type"`
	OwnerDept   string `json:"owner_depart"`
	Symptom     string `json:"symptom"`
	Effect      string `json:"effect"`
	RootCause   string `json:"root_cause"`
	Repair      string `json:"repair"`
	Plan        string `json:"plan"`
}

// Daynight values.
const (
	DaynightDay   = "주간"
	DaynightNight = "야간"
)

// Weekday class values accepted wherever a single weekday is.
const (
	WeekdayClassWeekday = "평일"
	WeekdayClassWeekend = "주말"
)

// weekdayLabels is indexed by time.Weekday (Sunday = 0).
var weekdayLabels = [7]string{"일", "월", "화", "수", "목", "금", "토"}

// WeekdayLabel returns the single-character Korean label for a weekday.
func WeekdayLabel(d time.Weekday) string {
	return weekdayLabels[d]
}

// WeekdayOrder maps a weekday label to its Monday-first sort position.
// Unknown labels sort last.
func WeekdayOrder(label string) int {
	switch label {
	case "월":
		return 1
	case "화":
		return 2
	case "수":
		return 3
	case "목":
		return 4
	case "금":
		return 5
	case "토":
		return 6
	case "일":
		return 7
	}
	return 8
}

// WeekdayClassMembers expands a weekday class into its member labels.
// A plain weekday label expands to itself; unknown input returns nil.
func WeekdayClassMembers(value string) []string {
	switch value {
	case WeekdayClassWeekday:
		return []string{"월", "화", "수", "목", "금"}
	case WeekdayClassWeekend:
		return []string{"토", "일"}
	}
	for _, l := range weekdayLabels {
		if value == l {
			return []string{value}
		}
	}
	return nil
}

// DaynightOf buckets an hour of day. Business hours 08:00-19:59 count
// as 주간, the rest as 야간.
func DaynightOf(hour int) string {
	if hour >= 8 && hour < 20 {
		return DaynightDay
	}
	return DaynightNight
}

// occurredAtLayouts are the timestamp shapes accepted in import data.
var occurredAtLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04",
	"2006/01/02",
}

// ParseOccurredAt parses an incident timestamp in any accepted layout.
func ParseOccurredAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range occurredAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized occurrence timestamp %q", s)
}

// DeriveCalendar fills the denormalized calendar fields from OccurredAt.
// Fields already populated in the source data are left alone.
func (r *Record) DeriveCalendar() error {
	if r.OccurredAt == "" {
		return fmt.Errorf("incident %s has no occurrence timestamp", r.IncidentID)
	}
	t, err := ParseOccurredAt(r.OccurredAt)
	if err != nil {
		return err
	}
	if r.Year == "" {
		r.Year = fmt.Sprintf("%d", t.Year())
	}
	if r.Month == "" {
		r.Month = fmt.Sprintf("%d", int(t.Month()))
	}
	if r.Week == "" {
		r.Week = WeekdayLabel(t.Weekday())
	}
	if r.Daynight == "" {
		r.Daynight = DaynightOf(t.Hour())
	}
	return nil
}

// SearchText concatenates the free-text fields indexed for retrieval.
func (r *Record) SearchText() string {
	parts := make([]string, 0, 5)
	for _, s := range []string{r.Symptom, r.Effect, r.RootCause, r.Repair, r.Plan} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
