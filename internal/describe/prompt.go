package describe

import "github.com/jonathan/company-lookup/internal/prompts"

// BuildInstructions renders the description prompt for a company and its search summary.
func BuildInstructions(name, searchSummary string) string {
	template := prompts.MustGet("describe.json", "company_description")
	return prompts.Format(template, map[string]string{
		"Name":          name,
		"SearchSummary": searchSummary,
	})
}
