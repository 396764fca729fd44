package validator

import (
	"fmt"
	"strings"

	"github.com/medialint/scene-validator/internal/models"
)

// summaryMaxCriticalTypes caps how many high-severity issue types the
// summary names before collapsing the rest into a count.
const summaryMaxCriticalTypes = 3

// buildSummary produces the human-readable one-paragraph report line.
func buildSummary(technical, content models.ValidationCheck) string {
	total := len(technical.Issues) + len(content.Issues)
	if total == 0 {
		return "Validation passed successfully. No issues found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Validation found %d issues (%d technical, %d content). ",
		total, len(technical.Issues), len(content.Issues))

	var criticalTypes []string
	critical := 0
	for _, issue := range append(append([]models.Issue{}, technical.Issues...), content.Issues...) {
		if issue.Severity != models.SeverityHigh {
			continue
		}
		critical++
		if len(criticalTypes) < summaryMaxCriticalTypes {
			criticalTypes = append(criticalTypes, issue.Type)
		}
	}

	if critical == 0 {
		sb.WriteString("No critical issues found.")
		return sb.String()
	}
	sb.WriteString("Critical issues include: ")
	sb.WriteString(strings.Join(criticalTypes, ", "))
	if critical > summaryMaxCriticalTypes {
		fmt.Fprintf(&sb, " and %d more.", critical-summaryMaxCriticalTypes)
	} else {
		sb.WriteString(".")
	}
	return sb.String()
}
