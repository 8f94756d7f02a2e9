package constants

import "strings"

// Category is the closed set of expense buckets a record may carry.
// The labels are stored verbatim downstream, so they must not be reworded.
type Category string

const (
	GovernmentRemittances Category = "training allowance/final pay/ Government Remittances"
	ManpowerConsultant    Category = "Manpower / Consultant"
	Others                Category = "Others"
)

var allCategories = []Category{
	GovernmentRemittances,
	ManpowerConsultant,
	Others,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a free-form label to a canonical category.
// Unknown labels fall back to Others with ok=false.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Others, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"payroll":                GovernmentRemittances,
		"allowance":              GovernmentRemittances,
		"final pay":              GovernmentRemittances,
		"remittance":             GovernmentRemittances,
		"government remittances": GovernmentRemittances,
		"consultant":             ManpowerConsultant,
		"consulting":             ManpowerConsultant,
		"manpower":               ManpowerConsultant,
		"licensing":              ManpowerConsultant,
		"service provider":       ManpowerConsultant,
		"other":                  Others,
		"misc":                   Others,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Others, false
}
