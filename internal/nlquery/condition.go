// Package nlquery turns Korean natural-language statistics questions
// into structured query conditions. Extraction is best-effort: a
// dimension that cannot be recognized is left empty, never an error.
package nlquery

// Dimension names a filterable/groupable column of the incident store.
type Dimension string

const (
	DimYear       Dimension = "year"
	DimMonth      Dimension = "month"
	DimGrade      Dimension = "incident_grade"
	DimWeek       Dimension = "week"
	DimDaynight   Dimension = "daynight"
	DimDepartment Dimension = "owner_depart"
	DimService    Dimension = "service_name"
	DimCause      Dimension = "cause_type"
)

// groupable dimensions, in the order they are projected.
var groupableDims = map[Dimension]bool{
	DimYear:       true,
	DimMonth:      true,
	DimGrade:      true,
	DimWeek:       true,
	DimDaynight:   true,
	DimDepartment: true,
	DimService:    true,
	DimCause:      true,
}

// Groupable reports whether d may appear in a GROUP BY projection.
func (d Dimension) Groupable() bool {
	return groupableDims[d]
}

// Condition is the structured form of a statistics question. Zero
// values mean "not constrained".
type Condition struct {
	// Year is the bare 4-digit year, suffix stripped.
	Year string `json:"year,omitempty"`
	// Months holds one or more calendar months, 1-12. A recognized
	// range is already expanded to its inclusive member list.
	Months []int `json:"months,omitempty"`
	// Grade is the bare incident grade digit, "1" through "4".
	Grade string `json:"incident_grade,omitempty"`
	// Week is a single weekday label (월..일) or a weekday class
	// (평일/주말). Classes expand to IN-sets at SQL build time.
	Week string `json:"week,omitempty"`
	// Daynight is 주간 or 야간.
	Daynight string `json:"daynight,omitempty"`
	// ServiceName is a best-effort hint, matched by containment.
	ServiceName string `json:"service_name,omitempty"`
	// OwnerDept is matched by containment.
	OwnerDept string `json:"owner_depart,omitempty"`
	// CauseType is a canonical cause-type value, matched by containment.
	CauseType string `json:"cause_type,omitempty"`

	// GroupBy lists the projection dimensions, explicit or inferred.
	GroupBy []Dimension `json:"group_by,omitempty"`
	// Duration selects SUM(duration) instead of COUNT(*).
	Duration bool `json:"duration,omitempty"`
}

// HasFilters reports whether any filter dimension is pinned.
func (c *Condition) HasFilters() bool {
	return c.Year != "" || len(c.Months) > 0 || c.Grade != "" ||
		c.Week != "" || c.Daynight != "" || c.ServiceName != "" ||
		c.OwnerDept != "" || c.CauseType != ""
}

// GroupsBy reports whether d is part of the projection.
func (c *Condition) GroupsBy(d Dimension) bool {
	for _, g := range c.GroupBy {
		if g == d {
			return true
		}
	}
	return false
}
