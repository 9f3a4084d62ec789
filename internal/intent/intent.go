// Package intent classifies incident-assistant questions into the
// handling paths the engines support.
package intent

import (
	"strings"

	ikberrors "ikb/internal/errors"
)

// Intent is the handling path for a question.
type Intent string

const (
	// Statistics questions ask for counts or sums and run against the
	// incident store, not the search index.
	Statistics Intent = "statistics"
	// Inquiry questions ask for matching incident details, listed.
	Inquiry Intent = "inquiry"
	// Repair questions ask how a symptom was fixed.
	Repair Intent = "repair"
	// Cause questions ask why an incident happened.
	Cause Intent = "cause"
	// Similar questions ask for precedent cases by symptom alone.
	Similar Intent = "similar"
	// Default covers everything else.
	Default Intent = "default"
)

// Parse validates an intent name from a flag or API field.
func Parse(name string) (Intent, error) {
	switch Intent(name) {
	case Statistics, Inquiry, Repair, Cause, Similar, Default:
		return Intent(name), nil
	}
	return "", ikberrors.New(ikberrors.IntentInvalid, "unknown intent "+name, nil)
}

// statisticsKeywords route a question to the aggregate path without
// further classification.
var statisticsKeywords = []string{
	"건수", "통계", "현황", "분포", "몇건", "개수",
	"연도별", "월별", "등급별", "장애등급별", "요일별", "시간대별",
	"부서별", "서비스별", "원인유형별",
	"합계", "집계",
}

var inquiryKeywords = []string{"내역", "목록", "리스트", "조회"}

var repairKeywords = []string{"복구", "조치", "해결", "대응", "수습"}

var causeKeywords = []string{"원인", "왜 ", "이유"}

var similarKeywords = []string{"유사", "비슷", "사례", "동일", "같은 현상"}

// Classify picks an intent by keyword. Statistics wins over everything:
// a question that mentions counting is a statistics question even when
// it also mentions causes.
func Classify(query string) Intent {
	q := strings.ToLower(query)

	if containsAny(q, statisticsKeywords) {
		return Statistics
	}
	if containsAny(q, inquiryKeywords) {
		return Inquiry
	}
	if containsAny(q, repairKeywords) {
		return Repair
	}
	if containsAny(q, causeKeywords) {
		return Cause
	}
	if containsAny(q, similarKeywords) {
		return Similar
	}
	return Default
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
