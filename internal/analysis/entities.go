package analysis

import "regexp"

type entityPattern struct {
	category string
	re       *regexp.Regexp
}

var entityPatterns = []entityPattern{
	{
		category: EntityDate,
		re: regexp.MustCompile(`(?i)\b(?:\d{4}[/.-]\d{1,2}[/.-]\d{1,2}` +
			`|\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}` +
			`|\d{1,2}(?:st|nd|rd|th)? (?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{2,4})\b`),
	},
	{
		category: EntityMoney,
		re:       regexp.MustCompile(`(?i)\$\s?[0-9,]+(?:\.\d{2})?|\b\d+(?:\.\d{2})?\s?(?:dollars|USD)\b`),
	},
	{
		category: EntityPercentage,
		re:       regexp.MustCompile(`\b\d+(?:\.\d+)?%`),
	},
	{
		category: EntityEmail,
		re:       regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`),
	},
	{
		category: EntityPhone,
		re:       regexp.MustCompile(`\b(?:\+\d{1,2}\s)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`),
	},
}

// ExtractEntities scans text for dates, money amounts, percentages, emails
// and phone numbers. Each category keeps its distinct matches in first-seen
// order; categories with no match are left out.
func ExtractEntities(text string) EntityBag {
	bag := make(EntityBag)
	for _, p := range entityPatterns {
		matches := p.re.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		bag[p.category] = dedupe(matches)
	}
	return bag
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
