// Package stats builds and runs aggregate queries over the incident
// store from extracted natural-language conditions.
package stats

import (
	"strconv"
	"strings"

	"ikb/internal/incident"
	"ikb/internal/nlquery"
)

// Value labels returned alongside aggregate rows, telling the caller
// what total_value counts.
const (
	ValueLabelCount    = "total_count"
	ValueLabelDuration = "total_error_time_minutes"
)

// Build renders a Condition into a parameterized aggregate SQL query.
// Every user-derived value is bound; nothing from the question is ever
// spliced into the SQL text.
func Build(cond *nlquery.Condition) (query string, args []interface{}, valueLabel string) {
	var selectFields []string
	if cond.Duration {
		selectFields = []string{"SUM(error_time) AS total_value"}
		valueLabel = ValueLabelDuration
	} else {
		selectFields = []string{"COUNT(*) AS total_value"}
		valueLabel = ValueLabelCount
	}

	var groupFields []string
	for _, dim := range cond.GroupBy {
		if dim.Groupable() {
			groupFields = append(groupFields, string(dim))
		}
	}
	if len(groupFields) > 0 {
		selectFields = append(groupFields, selectFields...)
	}

	where, args := buildWhere(cond)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selectFields, ", "))
	b.WriteString(" FROM incidents")
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	if len(groupFields) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(groupFields, ", "))
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy(groupFields))
	}

	return b.String(), args, valueLabel
}

// buildWhere renders the filter clauses shared by aggregate and detail
// queries.
func buildWhere(cond *nlquery.Condition) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if cond.Year != "" {
		clauses = append(clauses, "year = ?")
		args = append(args, cond.Year)
	}

	if len(cond.Months) == 1 {
		clauses = append(clauses, "month = ?")
		args = append(args, strconv.Itoa(cond.Months[0]))
	} else if len(cond.Months) > 1 {
		placeholders := make([]string, len(cond.Months))
		for i, m := range cond.Months {
			placeholders[i] = "?"
			args = append(args, strconv.Itoa(m))
		}
		clauses = append(clauses, "month IN ("+strings.Join(placeholders, ",")+")")
	}

	if cond.Grade != "" {
		clauses = append(clauses, "incident_grade = ?")
		args = append(args, cond.Grade)
	}

	if cond.CauseType != "" {
		clauses = append(clauses, "cause_type LIKE ?")
		args = append(args, "%"+cond.CauseType+"%")
	}

	if cond.Week != "" {
		members := incident.WeekdayClassMembers(cond.Week)
		switch {
		case len(members) == 1:
			clauses = append(clauses, "week = ?")
			args = append(args, members[0])
		case len(members) > 1:
			placeholders := make([]string, len(members))
			for i, day := range members {
				placeholders[i] = "?"
				args = append(args, day)
			}
			clauses = append(clauses, "week IN ("+strings.Join(placeholders, ",")+")")
		}
	}

	if cond.Daynight != "" {
		clauses = append(clauses, "daynight = ?")
		args = append(args, cond.Daynight)
	}

	if cond.ServiceName != "" {
		clauses = append(clauses, "service_name LIKE ?")
		args = append(args, "%"+cond.ServiceName+"%")
	}

	if cond.OwnerDept != "" {
		clauses = append(clauses, "owner_depart LIKE ?")
		args = append(args, "%"+cond.OwnerDept+"%")
	}

	return strings.Join(clauses, " AND "), args
}

// orderBy picks a stable presentation order for grouped results.
// Calendar dimensions sort numerically, weekdays Monday-first, cause
// types by descending total.
func orderBy(groupFields []string) string {
	has := make(map[string]bool, len(groupFields))
	for _, f := range groupFields {
		has[f] = true
	}
	switch {
	case has[string(nlquery.DimYear)]:
		return "CAST(year AS INTEGER)"
	case has[string(nlquery.DimMonth)]:
		return "CAST(month AS INTEGER)"
	case has[string(nlquery.DimGrade)]:
		return "CAST(incident_grade AS INTEGER)"
	case has[string(nlquery.DimWeek)]:
		return "CASE week WHEN '월' THEN 1 WHEN '화' THEN 2 WHEN '수' THEN 3 WHEN '목' THEN 4 WHEN '금' THEN 5 WHEN '토' THEN 6 WHEN '일' THEN 7 END"
	case has[string(nlquery.DimCause)]:
		return "total_value DESC"
	}
	return strings.Join(groupFields, ", ")
}
