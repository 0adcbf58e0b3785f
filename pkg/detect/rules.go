package detect

// BuiltinRules returns the default PII rule set. Scores reflect how
// discriminating each pattern is: structured identifiers score high, loose
// patterns like dates score lower.
func BuiltinRules() []Rule {
	return []Rule{
		{
			Type:    "EMAIL_ADDRESS",
			Pattern: `(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`,
			Score:   0.9,
		},
		{
			Type:    "US_SSN",
			Pattern: `\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`,
			Score:   0.85,
		},
		{
			Type:    "PHONE_NUMBER",
			Pattern: `\b(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s][0-9]{3}[-.\s][0-9]{4}\b`,
			Score:   0.7,
		},
		{
			Type:    "CREDIT_CARD",
			Pattern: `\b(?:\d{4}[-\s]?){3}\d{4}\b`,
			Score:   0.8,
		},
		{
			Type:    "IP_ADDRESS",
			Pattern: `\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`,
			Score:   0.6,
		},
		{
			Type:    "IBAN_CODE",
			Pattern: `\b[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}\b`,
			Score:   0.75,
		},
		{
			Type:    "URL",
			Pattern: `(?i)\bhttps?://[^\s<>"]+`,
			Score:   0.6,
		},
		{
			Type:    "DATE_TIME",
			Pattern: `\b[0-9]{4}-[0-9]{2}-[0-9]{2}\b`,
			Score:   0.4,
		},
	}
}
