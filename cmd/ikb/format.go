package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"ikb/internal/nlquery"
	"ikb/internal/retrieval"
	"ikb/internal/stats"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *AskResponseCLI:
		return formatAskHuman(v)
	case *StatsResponseCLI:
		return formatStatsHuman(v)
	case *SearchResponseCLI:
		return formatSearchHuman(v)
	case *ImportResponseCLI:
		return formatImportHuman(v)
	case *ExportResponseCLI:
		return fmt.Sprintf("Wrote %d records to %s (%dms)", v.Records, v.File, v.DurationMs), nil
	case *RestoreResponseCLI:
		return fmt.Sprintf("Restored %d records from %s (batch %s, %dms)",
			v.Records, v.File, v.BatchID, v.DurationMs), nil
	case *StatusResponseCLI:
		return formatStatusHuman(v)
	case *TokenCreateResponseCLI:
		return formatTokenCreateHuman(v)
	case *TokenListResponseCLI:
		return formatTokenListHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatAskHuman(resp *AskResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Question: %s\n", resp.Question))
	b.WriteString(fmt.Sprintf("Intent:   %s\n", resp.Intent))

	switch {
	case resp.Statistics != nil:
		b.WriteString("\n")
		b.WriteString(formatResultTable(resp.Condition, resp.Statistics))
	case resp.Records != nil:
		b.WriteString(fmt.Sprintf("\n%d matching incidents:\n", len(resp.Records)))
		for _, r := range resp.Records {
			b.WriteString(fmt.Sprintf("  %s  %s  %s", r.IncidentID, r.OccurredAt, r.ServiceName))
			if r.Grade != "" {
				b.WriteString("  [" + r.Grade + "]")
			}
			b.WriteString("\n")
		}
	default:
		b.WriteString("\n")
		b.WriteString(formatDocuments(resp.Documents))
	}

	if resp.Answer != "" {
		b.WriteString("\n" + strings.Repeat("-", 60) + "\n")
		b.WriteString(resp.Answer + "\n")
	}

	b.WriteString(fmt.Sprintf("\n(%dms)", resp.DurationMs))
	return b.String(), nil
}

func formatStatsHuman(resp *StatsResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Question: %s\n", resp.Question))
	b.WriteString(formatCondition(resp.Condition))
	b.WriteString("\n")
	b.WriteString(formatResultTable(resp.Condition, resp.Result))
	if statsShowSQL {
		b.WriteString("\nSQL: " + resp.Result.SQL + "\n")
	}
	b.WriteString(fmt.Sprintf("\n(%dms)", resp.DurationMs))
	return b.String(), nil
}

func formatSearchHuman(resp *SearchResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Query:  %s\n", resp.Query))
	b.WriteString(fmt.Sprintf("Intent: %s\n\n", resp.Intent))
	b.WriteString(formatDocuments(resp.Documents))
	b.WriteString(fmt.Sprintf("\n(%dms)", resp.DurationMs))
	return b.String(), nil
}

func formatImportHuman(resp *ImportResponseCLI) (string, error) {
	var b strings.Builder

	r := resp.Report
	if r.DryRun {
		b.WriteString(fmt.Sprintf("Dry run of %s\n", resp.File))
	} else {
		b.WriteString(fmt.Sprintf("Imported %s (batch %s)\n", resp.File, r.BatchID))
	}
	b.WriteString(fmt.Sprintf("  Rows:     %d\n", r.Total))
	b.WriteString(fmt.Sprintf("  Accepted: %d\n", r.Imported))
	b.WriteString(fmt.Sprintf("  Skipped:  %d\n", r.Skipped))
	for _, issue := range r.Issues {
		b.WriteString(fmt.Sprintf("  line %d: %s\n", issue.Line, issue.Message))
	}
	b.WriteString(fmt.Sprintf("\n(%dms)", resp.DurationMs))
	return b.String(), nil
}

func formatStatusHuman(resp *StatusResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("IKB v%s\n", resp.IkbVersion))
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(fmt.Sprintf("Store:     %s\n", resp.StorePath))
	b.WriteString(fmt.Sprintf("Incidents: %d\n", resp.Incidents))
	if len(resp.Years) > 0 {
		b.WriteString(fmt.Sprintf("Years:     %s\n", strings.Join(resp.Years, ", ")))
	}
	b.WriteString(fmt.Sprintf("Answers:   enabled=%v model=%s key=%v\n",
		resp.AnswerEnabled, resp.AnswerModel, resp.AnswerKeySet))
	b.WriteString(fmt.Sprintf("\n(%dms)", resp.DurationMs))
	return b.String(), nil
}

func formatTokenCreateHuman(resp *TokenCreateResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Created key %s (%s, scope %s)\n",
		resp.Key.ID, resp.Key.Name, resp.Key.Scope))
	if resp.Key.ExpiresAt != nil {
		b.WriteString(fmt.Sprintf("Expires: %s\n", resp.Key.ExpiresAt.Format("2006-01-02 15:04")))
	}
	b.WriteString("\nToken (shown once, store it now):\n")
	b.WriteString("  " + resp.Token)
	return b.String(), nil
}

func formatTokenListHuman(resp *TokenListResponseCLI) (string, error) {
	if len(resp.Keys) == 0 {
		return "No API keys", nil
	}

	var b strings.Builder
	for _, k := range resp.Keys {
		state := "active"
		if k.Revoked {
			state = "revoked"
		}
		b.WriteString(fmt.Sprintf("%s  %-20s %-6s %s  created %s\n",
			k.ID, k.Name, k.Scope, state, k.CreatedAt.Format("2006-01-02")))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// formatCondition renders the extracted filters and grouping.
func formatCondition(cond *nlquery.Condition) string {
	var parts []string
	if cond.Year != "" {
		parts = append(parts, "year="+cond.Year)
	}
	if len(cond.Months) > 0 {
		months := make([]string, len(cond.Months))
		for i, m := range cond.Months {
			months[i] = fmt.Sprintf("%d", m)
		}
		parts = append(parts, "months="+strings.Join(months, ","))
	}
	if cond.Grade != "" {
		parts = append(parts, "grade="+cond.Grade)
	}
	if cond.Week != "" {
		parts = append(parts, "week="+cond.Week)
	}
	if cond.Daynight != "" {
		parts = append(parts, "daynight="+cond.Daynight)
	}
	if cond.ServiceName != "" {
		parts = append(parts, "service="+cond.ServiceName)
	}
	if cond.OwnerDept != "" {
		parts = append(parts, "department="+cond.OwnerDept)
	}
	if cond.CauseType != "" {
		parts = append(parts, "cause="+cond.CauseType)
	}
	if cond.Duration {
		parts = append(parts, "value=duration")
	}
	if len(cond.GroupBy) > 0 {
		groups := make([]string, len(cond.GroupBy))
		for i, g := range cond.GroupBy {
			groups[i] = string(g)
		}
		parts = append(parts, "group-by="+strings.Join(groups, ","))
	}
	if len(parts) == 0 {
		return "Filters:  (none)\n"
	}
	return "Filters:  " + strings.Join(parts, "  ") + "\n"
}

// formatResultTable renders aggregate rows.
func formatResultTable(cond *nlquery.Condition, result *stats.Result) string {
	var b strings.Builder

	unit := "건"
	if result.ValueLabel == stats.ValueLabelDuration {
		unit = "분"
	}

	if len(result.Rows) == 0 {
		b.WriteString("No matching incidents\n")
		return b.String()
	}

	for _, row := range result.Rows {
		if len(row.Dims) > 0 {
			var dims []string
			for _, g := range cond.GroupBy {
				if v, ok := row.Dims[g]; ok {
					dims = append(dims, v)
				}
			}
			b.WriteString(fmt.Sprintf("  %-20s %d%s\n", strings.Join(dims, " / "), row.Value, unit))
		} else {
			b.WriteString(fmt.Sprintf("  %d%s\n", row.Value, unit))
		}
	}
	if len(result.Rows) > 1 {
		b.WriteString(fmt.Sprintf("  %-20s %d%s\n", "total", result.Total, unit))
	}
	return b.String()
}

// formatDocuments renders retrieval results.
func formatDocuments(docs []retrieval.ScoredDocument) string {
	if len(docs) == 0 {
		return "No relevant documents\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d documents:\n", len(docs)))
	for i, d := range docs {
		b.WriteString(fmt.Sprintf("%2d. %s  %s  [%s/%s]  score=%.3f\n",
			i+1, d.Record.IncidentID, d.Record.ServiceName,
			d.QualityTier, d.MatchTier, d.FinalScore))
		if d.Record.Symptom != "" {
			b.WriteString("    " + truncate(d.Record.Symptom, 100) + "\n")
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
