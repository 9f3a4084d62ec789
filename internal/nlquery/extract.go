package nlquery

import (
	"regexp"
	"strconv"
	"strings"
)

// Extractor recognizes query conditions in Korean statistics questions.
// Safe for concurrent use.
type Extractor struct {
	causes *CauseTable
}

// NewExtractor returns an extractor using the built-in cause vocabulary.
func NewExtractor() *Extractor {
	return &Extractor{causes: DefaultCauseTable()}
}

// NewExtractorWithCauses returns an extractor with a custom vocabulary.
func NewExtractorWithCauses(causes *CauseTable) *Extractor {
	return &Extractor{causes: causes}
}

var (
	yearPattern = regexp.MustCompile(`(\d{4})\s*년도?`)

	gradePatterns = []*regexp.Regexp{
		regexp.MustCompile(`([1-4])등급\s*장애`),
		regexp.MustCompile(`장애\s*([1-4])등급`),
		regexp.MustCompile(`장애등급\s*([1-4])`),
		regexp.MustCompile(`([1-4])\s*등급`),
		regexp.MustCompile(`등급\s*([1-4])`),
	}
	monthRangePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{1,2})월\s*~\s*(\d{1,2})월`),
		regexp.MustCompile(`(\d{1,2})\s*~\s*(\d{1,2})월`),
		regexp.MustCompile(`(\d{1,2})월\s*-\s*(\d{1,2})월`),
		regexp.MustCompile(`(\d{1,2})\s*-\s*(\d{1,2})월`),
		regexp.MustCompile(`(\d{1,2})월\s*부터\s*(\d{1,2})월`),
		regexp.MustCompile(`(\d{1,2})\s*부터\s*(\d{1,2})월`),
	}
	monthPattern = regexp.MustCompile(`(\d{1,2})월`)

	weekdayPattern = regexp.MustCompile(`([월화수목금토일])요일?`)

	daynightVocab = []struct {
		value    string
		keywords []string
	}{
		{"야간", []string{"야간", "밤", "새벽", "심야"}},
		{"주간", []string{"주간", "낮", "오전", "오후", "업무시간"}},
	}

	durationKeywords = []string{
		"장애시간", "장애 시간", "시간 합계", "시간 합산",
		"총 시간", "누적 시간", "전체 시간", "합계 시간", "전체시간",
	}

	trendKeywords = []string{"추이", "변화", "변동", "흐름", "트렌드"}

	groupByVocab = []struct {
		dim      Dimension
		keywords []string
	}{
		{DimYear, []string{"연도별", "년도별", "년별", "연별", "해별"}},
		{DimMonth, []string{"월별", "매월", "월간"}},
		{DimGrade, []string{"등급별", "장애등급별", "grade별"}},
		{DimWeek, []string{"요일별", "주간별", "일별"}},
		{DimDaynight, []string{"시간대별", "주야별"}},
		{DimDepartment, []string{"부서별", "팀별", "조직별"}},
		{DimService, []string{"서비스별", "시스템별"}},
		{DimCause, []string{"원인별", "원인유형별", "원인타입별"}},
	}
)

// Extract parses a question into a Condition. Unrecognized dimensions
// stay empty; Extract never fails.
func (e *Extractor) Extract(query string) Condition {
	var cond Condition
	original := query
	normalized := CanonicalizeSynonyms(strings.ToLower(query))

	cond.Year = extractYear(normalized)
	cond.Grade = extractGrade(normalized)
	cond.Months = extractMonths(normalized)
	cond.CauseType = e.causes.Match(original)
	cond.Week = extractWeekday(normalized)
	cond.Daynight = extractDaynight(normalized)
	cond.ServiceName = ExtractServiceName(original)
	cond.Duration = containsAny(normalized, durationKeywords)
	cond.GroupBy = extractGroupBy(normalized)

	if len(cond.GroupBy) == 0 {
		cond.GroupBy = inferGroupBy(&cond, normalized)
	}

	return cond
}

func extractYear(query string) string {
	m := yearPattern.FindStringSubmatch(query)
	if m == nil {
		return ""
	}
	return m[1]
}

func extractGrade(query string) string {
	for _, p := range gradePatterns {
		loc := p.FindStringSubmatchIndex(query)
		if loc == nil {
			continue
		}
		// Reject digits that are the tail of a larger number, most
		// commonly a year as in "2024등급별".
		before := query[:loc[2]]
		if len(before) > 0 && before[len(before)-1] >= '0' && before[len(before)-1] <= '9' {
			continue
		}
		return query[loc[2]:loc[3]]
	}
	return ""
}

func extractMonths(query string) []int {
	for _, p := range monthRangePatterns {
		m := p.FindStringSubmatch(query)
		if m == nil {
			continue
		}
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if 1 <= start && start <= end && end <= 12 {
			months := make([]int, 0, end-start+1)
			for v := start; v <= end; v++ {
				months = append(months, v)
			}
			return months
		}
	}

	var months []int
	seen := make(map[int]bool)
	for _, loc := range monthPattern.FindAllStringSubmatchIndex(query, -1) {
		// "2등급 월" style collisions: skip numbers flanked by the
		// grade word on either side.
		if gradeAdjacent(query, loc[2], loc[1]) {
			continue
		}
		v, _ := strconv.Atoi(query[loc[2]:loc[3]])
		if v < 1 || v > 12 || seen[v] {
			continue
		}
		seen[v] = true
		months = append(months, v)
	}
	return months
}

func gradeAdjacent(query string, start, end int) bool {
	before := strings.TrimRight(query[:start], " ")
	if strings.HasSuffix(before, "등급") {
		return true
	}
	after := strings.TrimLeft(query[end:], " ")
	return strings.HasPrefix(after, "등급")
}

func extractWeekday(query string) string {
	week := ""
	if m := weekdayPattern.FindStringSubmatch(query); m != nil {
		week = m[1]
	}
	// Class keywords take precedence over a single day mention.
	if strings.Contains(query, "평일") {
		week = "평일"
	} else if strings.Contains(query, "주말") {
		week = "주말"
	}
	return week
}

func extractDaynight(query string) string {
	for _, bucket := range daynightVocab {
		if containsAny(query, bucket.keywords) {
			return bucket.value
		}
	}
	return ""
}

func extractGroupBy(query string) []Dimension {
	var groups []Dimension
	for _, entry := range groupByVocab {
		if containsAny(query, entry.keywords) {
			groups = append(groups, entry.dim)
		}
	}
	return groups
}

// inferGroupBy picks a default projection when the question names none.
// A year pin with a trend word reads as a per-month trend; a grade or
// cause filter without a year reads as "per year for that filter"; a
// question with no filters at all gets a yearly overview.
func inferGroupBy(cond *Condition, query string) []Dimension {
	hasYear := cond.Year != ""
	hasMonth := len(cond.Months) > 0
	hasGrade := cond.Grade != ""
	hasCause := cond.CauseType != ""
	hasWeek := cond.Week != ""
	hasDaynight := cond.Daynight != ""

	switch {
	case hasYear && !hasMonth && !hasCause && containsAny(query, trendKeywords):
		return []Dimension{DimMonth}
	case hasGrade && !hasYear && !hasMonth:
		return []Dimension{DimYear}
	case hasCause && !hasYear && !hasMonth:
		return []Dimension{DimYear}
	case !hasYear && !hasMonth && !hasGrade && !hasCause && !hasWeek && !hasDaynight:
		return []Dimension{DimYear}
	}
	return nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
