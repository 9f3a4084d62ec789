package nlquery

import (
	"reflect"
	"testing"
)

func TestExtractYear(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"2024년 장애 건수", "2024"},
		{"2023년도 통계 알려줘", "2023"},
		{"장애 현황 알려줘", ""},
		{"2024 건수", ""}, // bare number without 년 is not a year
	}

	e := NewExtractor()
	for _, tt := range tests {
		cond := e.Extract(tt.query)
		if cond.Year != tt.want {
			t.Errorf("Extract(%q).Year = %q, want %q", tt.query, cond.Year, tt.want)
		}
	}
}

func TestExtractGrade(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"1등급 장애 건수", "1"},
		{"장애 3등급 현황", "3"},
		{"장애등급 2 조회", "2"},
		{"등급 4 장애", "4"},
		{"5등급 장애", ""}, // only grades 1-4 exist
	}

	e := NewExtractor()
	for _, tt := range tests {
		cond := e.Extract(tt.query)
		if cond.Grade != tt.want {
			t.Errorf("Extract(%q).Grade = %q, want %q", tt.query, cond.Grade, tt.want)
		}
	}
}

func TestExtractGradeRejectsYearTail(t *testing.T) {
	// The 4 in 2024 must not read as a grade.
	e := NewExtractor()
	cond := e.Extract("2024등급별 건수")
	if cond.Grade != "" {
		t.Errorf("Grade = %q, want empty", cond.Grade)
	}
	if !cond.GroupsBy(DimGrade) {
		t.Error("expected 등급별 to group by grade")
	}
}

func TestExtractMonthRange(t *testing.T) {
	tests := []struct {
		query string
		want  []int
	}{
		{"3월~5월 장애 건수", []int{3, 4, 5}},
		{"3~5월 장애 건수", []int{3, 4, 5}},
		{"1월-2월 현황", []int{1, 2}},
		{"10월부터 12월 건수", []int{10, 11, 12}},
		{"7월 장애", []int{7}},
		{"1월과 3월 건수", []int{1, 3}},
	}

	e := NewExtractor()
	for _, tt := range tests {
		cond := e.Extract(tt.query)
		if !reflect.DeepEqual(cond.Months, tt.want) {
			t.Errorf("Extract(%q).Months = %v, want %v", tt.query, cond.Months, tt.want)
		}
	}
}

func TestExtractMonthRejectsInvalid(t *testing.T) {
	e := NewExtractor()
	cond := e.Extract("13월 장애 건수")
	if len(cond.Months) != 0 {
		t.Errorf("Months = %v, want empty", cond.Months)
	}
}

func TestExtractWeekday(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"월요일 장애 건수", "월"},
		{"금요일에 발생한 장애", "금"},
		{"주말 장애 현황", "주말"},
		{"평일 야간 장애", "평일"},
		{"장애 건수", ""},
	}

	e := NewExtractor()
	for _, tt := range tests {
		cond := e.Extract(tt.query)
		if cond.Week != tt.want {
			t.Errorf("Extract(%q).Week = %q, want %q", tt.query, cond.Week, tt.want)
		}
	}
}

func TestExtractDaynight(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"야간 장애 건수", "야간"},
		{"새벽에 발생한 장애", "야간"},
		{"주간 장애", "주간"},
		{"오후에 생긴 장애", "주간"},
		{"장애 건수", ""},
	}

	e := NewExtractor()
	for _, tt := range tests {
		cond := e.Extract(tt.query)
		if cond.Daynight != tt.want {
			t.Errorf("Extract(%q).Daynight = %q, want %q", tt.query, cond.Daynight, tt.want)
		}
	}
}

func TestExtractDuration(t *testing.T) {
	e := NewExtractor()

	cond := e.Extract("2024년 장애시간 합계 알려줘")
	if !cond.Duration {
		t.Error("expected duration question to set Duration")
	}

	cond = e.Extract("2024년 장애 건수")
	if cond.Duration {
		t.Error("count question must not set Duration")
	}
}

func TestExtractGroupBy(t *testing.T) {
	tests := []struct {
		query string
		want  []Dimension
	}{
		{"연도별 장애 건수", []Dimension{DimYear}},
		{"월별 등급별 건수", []Dimension{DimMonth, DimGrade}},
		{"요일별 현황", []Dimension{DimWeek}},
		{"시간대별 발생 건수", []Dimension{DimDaynight}},
		{"부서별 건수", []Dimension{DimDepartment}},
		{"원인유형별 통계", []Dimension{DimCause}},
	}

	e := NewExtractor()
	for _, tt := range tests {
		cond := e.Extract(tt.query)
		if !reflect.DeepEqual(cond.GroupBy, tt.want) {
			t.Errorf("Extract(%q).GroupBy = %v, want %v", tt.query, cond.GroupBy, tt.want)
		}
	}
}

func TestInferGroupBy(t *testing.T) {
	e := NewExtractor()

	// A grade filter with no time pin reads as per-year for that grade.
	cond := e.Extract("1등급 장애 건수")
	if !reflect.DeepEqual(cond.GroupBy, []Dimension{DimYear}) {
		t.Errorf("grade-only GroupBy = %v, want [year]", cond.GroupBy)
	}

	// No filters at all gets a yearly overview.
	cond = e.Extract("장애 현황")
	if !reflect.DeepEqual(cond.GroupBy, []Dimension{DimYear}) {
		t.Errorf("unpinned GroupBy = %v, want [year]", cond.GroupBy)
	}

	// A year pin needs no projection.
	cond = e.Extract("2024년 장애 건수")
	if cond.GroupBy != nil {
		t.Errorf("year-pinned GroupBy = %v, want nil", cond.GroupBy)
	}

	// A year pin with a trend word reads as a per-month trend.
	cond = e.Extract("2023년 장애 추이")
	if !reflect.DeepEqual(cond.GroupBy, []Dimension{DimMonth}) {
		t.Errorf("trend GroupBy = %v, want [month]", cond.GroupBy)
	}
	cond = e.Extract("2023년 발생 변화 알려줘")
	if !reflect.DeepEqual(cond.GroupBy, []Dimension{DimMonth}) {
		t.Errorf("trend GroupBy = %v, want [month]", cond.GroupBy)
	}

	// Trend wording without a year pin changes nothing.
	cond = e.Extract("장애 추이")
	if !reflect.DeepEqual(cond.GroupBy, []Dimension{DimYear}) {
		t.Errorf("unpinned trend GroupBy = %v, want [year]", cond.GroupBy)
	}

	// A weekday or daynight pin alone is a single-point question.
	cond = e.Extract("주말 장애 건수")
	if cond.GroupBy != nil {
		t.Errorf("weekend-pinned GroupBy = %v, want nil", cond.GroupBy)
	}
	cond = e.Extract("야간 장애 건수")
	if cond.GroupBy != nil {
		t.Errorf("daynight-pinned GroupBy = %v, want nil", cond.GroupBy)
	}
}

func TestExtractCombined(t *testing.T) {
	e := NewExtractor()
	cond := e.Extract("2024년 1등급 장애 월별 건수 알려줘")

	if cond.Year != "2024" {
		t.Errorf("Year = %q", cond.Year)
	}
	if cond.Grade != "1" {
		t.Errorf("Grade = %q", cond.Grade)
	}
	if !reflect.DeepEqual(cond.GroupBy, []Dimension{DimMonth}) {
		t.Errorf("GroupBy = %v", cond.GroupBy)
	}
	if !cond.HasFilters() {
		t.Error("expected HasFilters")
	}
}
