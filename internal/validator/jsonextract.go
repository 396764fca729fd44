package validator

import "strings"

// extractJSONPayload pulls the JSON document out of a free-form model reply.
// Models wrap JSON in markdown fences more often than not, so the extraction
// order is: a ```json fence, then a bare ``` fence, then the trimmed text as
// a whole. A fence with no closing marker yields everything after it.
func extractJSONPayload(text string) string {
	if _, rest, ok := strings.Cut(text, "```json"); ok {
		if inner, _, ok := strings.Cut(rest, "```"); ok {
			return strings.TrimSpace(inner)
		}
		return strings.TrimSpace(rest)
	}
	if _, rest, ok := strings.Cut(text, "```"); ok {
		if inner, _, ok := strings.Cut(rest, "```"); ok {
			return strings.TrimSpace(inner)
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(text)
}
