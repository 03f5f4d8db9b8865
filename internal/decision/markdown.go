package decision

import (
	"fmt"
	"strings"

	"stock-signal-lab/internal/domain"
)

// RenderMarkdown renders one instrument's advisory and the full rule
// checklist as Markdown.
func RenderMarkdown(instrument string, rec domain.Recommendation, checklist []RuleTrace) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Advisory: %s\n\n", instrument))
	sb.WriteString(fmt.Sprintf("## %s (%s)\n\n", rec.Label, rec.Action))
	sb.WriteString(rec.Reason + "\n\n")

	sb.WriteString("## Rule Chain\n\n")
	sb.WriteString("| # | Rule | Condition | Actual | Matched |\n")
	sb.WriteString("|---|------|-----------|--------|---------|\n")
	decided := false
	for i, r := range checklist {
		status := "no"
		if r.Matched {
			status = "yes"
			if !decided {
				status = "yes (decides)"
				decided = true
			}
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, r.Name, r.Condition, r.Actual, status))
	}
	sb.WriteString("\n")

	matched := 0
	for _, r := range checklist {
		if r.Matched {
			matched++
		}
	}
	sb.WriteString(fmt.Sprintf("Rules matched: %d/%d, first match decides\n", matched, len(checklist)))

	return sb.String()
}
