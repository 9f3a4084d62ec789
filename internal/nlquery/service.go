package nlquery

import (
	"regexp"
	"strings"
	"unicode"
)

// Service names in incident data are Latin identifiers that may carry
// digits, underscores, dashes, slashes, pluses, parens, and internal
// spaces ("PAY-GW", "IAP (mobile)", "billing/core").
var servicePatterns = []*regexp.Regexp{
	// name followed by a statistics/incident keyword
	regexp.MustCompile(`([A-Za-z][A-Za-z0-9_\-/+()\s]*[A-Za-z0-9_\-/+)])\s+(?:년도별|월별|건수|장애|현상|복구|서비스|통계|발생|발생일자|언제)`),
	// name after the word 서비스
	regexp.MustCompile(`서비스\s*[:]?\s*([A-Za-z][A-Za-z0-9_\-/+()\s]*[A-Za-z0-9_\-/+)])`),
	// quoted name
	regexp.MustCompile(`["']([A-Za-z][A-Za-z0-9_\-/+()\s]*[A-Za-z0-9_\-/+)])["']`),
	// parenthesized name
	regexp.MustCompile(`\(([A-Za-z][A-Za-z0-9_\-/+\s]*[A-Za-z0-9_\-/+])\)`),
	// path-shaped name
	regexp.MustCompile(`([A-Za-z][A-Za-z0-9_\-]*(?:/[A-Za-z0-9_\-]+)+)`),
	// plus-joined name
	regexp.MustCompile(`([A-Za-z][A-Za-z0-9_\-]*(?:\+[A-Za-z0-9_\-]+)+)`),
	// standalone token, 3+ chars
	regexp.MustCompile(`\b([A-Za-z][A-Za-z0-9_\-/+()]{2,})\b`),
}

// serviceStoplist holds generic tokens that pass the shape checks but
// never name an actual service.
var serviceStoplist = map[string]bool{
	"service": true, "system": true, "server": true, "client": true,
	"application": true, "app": true, "website": true, "web": true,
	"platform": true, "portal": true, "interface": true, "api": true,
	"database": true, "data": true, "file": true, "log": true,
	"error": true, "issue": true, "problem": true,
	"http": true, "https": true, "www": true, "com": true, "org": true, "net": true,
	"년도별": true, "월별": true, "건수": true, "장애": true,
	"현상": true, "복구": true, "통계": true, "발생": true,
}

// ExtractServiceName pulls a best-effort service-name hint out of a
// question. The result is a hint only: callers match it by containment
// and treat "" as an unscoped query, never as an error.
func ExtractServiceName(query string) string {
	for _, p := range servicePatterns {
		for _, m := range p.FindAllStringSubmatch(query, -1) {
			candidate := strings.TrimSpace(m[1])
			if IsValidServiceName(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// IsValidServiceName applies the shape checks that separate plausible
// service identifiers from stray tokens.
func IsValidServiceName(name string) bool {
	if len(name) < 3 {
		return false
	}
	first := rune(name[0])
	if !unicode.IsLetter(first) || first > unicode.MaxASCII {
		return false
	}
	if strings.Count(name, "(") != strings.Count(name, ")") {
		return false
	}
	if strings.Contains(name, "//") || strings.Contains(name, "++") {
		return false
	}
	last := name[len(name)-1]
	if (last == '-' || last == '/' || last == '+') && !strings.HasSuffix(name, ")") {
		return false
	}

	// Identifier-ish evidence: punctuation, case, digits, length, or an
	// internal space. Plain short lowercase words do not qualify.
	hasEvidence := strings.ContainsAny(name, "_-/+(") ||
		strings.ContainsFunc(name, unicode.IsUpper) ||
		strings.ContainsFunc(name, unicode.IsDigit) ||
		len(name) >= 5 ||
		strings.Contains(strings.TrimSpace(name), " ")
	if !hasEvidence {
		return false
	}

	clean := strings.ToLower(strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', '/', '+', '_', '-', ' ':
			return -1
		}
		return r
	}, name))
	if serviceStoplist[clean] {
		return false
	}

	// Hangul means the match strayed into the surrounding prose.
	for _, r := range name {
		if (r >= 0x3131 && r <= 0x318E) || (r >= 0xAC00 && r <= 0xD7A3) {
			return false
		}
	}

	return true
}
