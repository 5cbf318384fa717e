package enrich

import (
	"fmt"

	"github.com/apichat0/apichat/internal/apispec"
)

// renderParameters renders the human-readable parameter block embedded in
// enriched API descriptions. The wording is fixed; retrieval quality
// depends on it staying stable across regeneration runs.
//
// An operation without parameters renders as the empty string, and the
// "REST API query parameters" heading is omitted entirely.
func renderParameters(params []apispec.Parameter) string {
	if len(params) == 0 {
		return ""
	}

	lines := ""
	for _, p := range params {
		location := fmt.Sprintf("The query parameters should be used in the %s. ", p.In)

		defaultValue := ""
		if p.Default != nil && p.Default != "" {
			defaultValue = fmt.Sprintf("The default value is %q. ", fmt.Sprintf("%v", p.Default))
		}

		// Key presence decides, not the boolean value.
		required := "This query parameter is not required. "
		if p.Required != nil {
			required = "This query parameter is required. "
		}

		lines += fmt.Sprintf("- %s: %s. %s%s%s\n", p.Name, p.Description, location, defaultValue, required)
	}

	return fmt.Sprintf("REST API query parameters:\n%s\n", lines)
}
