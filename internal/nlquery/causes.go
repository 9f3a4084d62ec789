package nlquery

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed causes.yaml
var defaultCauseYAML []byte

// CauseTable holds the cause-type vocabulary: the canonical values
// present in the data and a synonym map from colloquial terms.
type CauseTable struct {
	Canonical []string          `yaml:"canonical"`
	Synonyms  map[string]string `yaml:"synonyms"`

	// sortedTerms holds the synonym keys longest-first so overlapping
	// terms resolve deterministically (작업실수 before 작업).
	sortedTerms []string
}

func (t *CauseTable) terms() []string {
	if t.sortedTerms == nil {
		t.sortedTerms = make([]string, 0, len(t.Synonyms))
		for term := range t.Synonyms {
			t.sortedTerms = append(t.sortedTerms, term)
		}
		sort.Slice(t.sortedTerms, func(i, j int) bool {
			a, b := t.sortedTerms[i], t.sortedTerms[j]
			if len(a) != len(b) {
				return len(a) > len(b)
			}
			return a < b
		})
	}
	return t.sortedTerms
}

// DefaultCauseTable returns the built-in vocabulary.
func DefaultCauseTable() *CauseTable {
	t, err := parseCauseTable(defaultCauseYAML)
	if err != nil {
		// The embedded table is checked by tests; a parse failure here
		// is a build defect.
		panic(fmt.Sprintf("embedded cause table: %v", err))
	}
	return t
}

// LoadCauseTable reads a vocabulary override from a YAML file.
func LoadCauseTable(path string) (*CauseTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseCauseTable(data)
}

func parseCauseTable(data []byte) (*CauseTable, error) {
	var t CauseTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse cause table: %w", err)
	}
	if len(t.Canonical) == 0 {
		return nil, fmt.Errorf("cause table has no canonical values")
	}
	return &t, nil
}

// Match resolves a natural-language question to a canonical cause type.
// Three stages, first hit wins: a canonical value quoted verbatim, a
// synonym from the table, then a whitespace-insensitive partial match
// against the canonical values. Returns "" when nothing matches.
func (t *CauseTable) Match(query string) string {
	if query == "" {
		return ""
	}
	queryLower := strings.ToLower(query)

	for _, canonical := range t.Canonical {
		if strings.Contains(query, canonical) || strings.Contains(queryLower, strings.ToLower(canonical)) {
			return canonical
		}
	}

	for _, term := range t.terms() {
		if matchTerm(queryLower, term) {
			return t.Synonyms[term]
		}
	}

	collapsed := strings.ReplaceAll(queryLower, " ", "")
	for _, canonical := range t.Canonical {
		key := strings.ToLower(strings.ReplaceAll(canonical, " ", ""))
		if len([]rune(key)) >= 3 && strings.Contains(collapsed, key) {
			return canonical
		}
	}

	return ""
}

var asciiTerm = regexp.MustCompile(`^[a-z0-9]+$`)

// matchTerm matches a synonym term in the lowercased query. ASCII terms
// get word-boundary matching so "ui" does not fire inside "build";
// Korean terms match by containment.
func matchTerm(queryLower, term string) bool {
	term = strings.ToLower(term)
	if asciiTerm.MatchString(term) {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
		return re.MatchString(queryLower)
	}
	return strings.Contains(queryLower, term)
}
