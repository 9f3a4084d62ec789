package nlquery

import "strings"

// querySynonyms folds colloquial variants onto the keyword forms the
// extractor and threshold tables key on. Longer phrases come first so
// the replacer prefers them over their substrings.
var querySynonyms = []string{
	// count wording
	"장애 건수", "건수",
	"장애건수", "건수",
	"발생 건수", "건수",
	"발생건수", "건수",
	"장애 개수", "건수",
	"장애개수", "건수",

	// question forms
	"몇건이야", "몇건",
	"몇건이니", "몇건",
	"몇건인가", "몇건",
	"몇건인지", "몇건",
	"몇건이나", "몇건",
	"몇개인가", "몇건",
	"몇개인지", "몇건",
	"몇개야", "몇건",
	"몇개나", "몇건",

	// occurrence wording
	"발생했는지", "발생",
	"발생했어", "발생",
	"발생했나", "발생",
	"발생한지", "발생",
	"일어난", "발생",
	"있었어", "발생",
	"있는지", "발생",
	"생겼어", "발생",
	"생긴", "발생",
	"있어", "발생",
	"있나", "발생",

	// request wording
	"확인해줘", "알려주세요",
	"체크해줘", "알려주세요",
	"알려줘", "알려주세요",
	"보여줘", "알려주세요",
	"말해줘", "알려주세요",

	// degree wording
	"어느정도", "몇",
	"얼마나", "몇",
	"어떻게", "몇",
	"어떤", "몇",
	"어느", "몇",

	// quantity wording
	"몇차례", "몇건",
	"몇번", "몇건",
	"몇회", "몇건",
	"수량", "건수",
	"숫자", "건수",
	"개수", "건수",

	// totals
	"총합", "전체",
	"모든", "전체",
	"모두", "전체",
	"누적", "전체",
	"총", "전체",

	// situation wording
	"지금까지", "현황",
	"상황", "현황",
	"현재", "현황",
	"정도", "현황",
	"수준", "현황",
	"범위", "현황",
	"규모", "현황",
}

var synonymReplacer = strings.NewReplacer(querySynonyms...)

// CanonicalizeSynonyms rewrites colloquial phrasing into the canonical
// keyword vocabulary. Applied once, before any dimension extraction.
func CanonicalizeSynonyms(query string) string {
	return synonymReplacer.Replace(query)
}
