package policy

import "github.com/veilai/veil-oss/pkg/domain"

// Preset context names available out of the box.
const (
	ContextGeneral    = "general"
	ContextHealthcare = "healthcare"
	ContextFinance    = "finance"
)

// GeneralPolicy redacts all common PII types and permits restoration.
func GeneralPolicy() domain.RedactionPolicy {
	return domain.RedactionPolicy{
		Context: ContextGeneral,
		EnabledEntities: []string{
			"PERSON",
			"EMAIL_ADDRESS",
			"PHONE_NUMBER",
			"CREDIT_CARD",
			"US_SSN",
			"US_DRIVER_LICENSE",
			"US_PASSPORT",
			"IBAN_CODE",
			"IP_ADDRESS",
			"DATE_TIME",
			"LOCATION",
			"URL",
			"US_BANK_NUMBER",
		},
		RestorationAllowed:     true,
		MinConfidenceThreshold: 0.0,
		Description:            "General purpose policy - redacts all PII types with restoration allowed",
	}
}

// HealthcarePolicy redacts PHI and forbids restoration entirely.
func HealthcarePolicy() domain.RedactionPolicy {
	return domain.RedactionPolicy{
		Context: ContextHealthcare,
		EnabledEntities: []string{
			"PERSON",
			"PHONE_NUMBER",
			"EMAIL_ADDRESS",
			"US_SSN",
			"DATE_TIME",
			"LOCATION",
			"IP_ADDRESS",
		},
		RestorationAllowed:     false,
		MinConfidenceThreshold: 0.5,
		Description:            "Healthcare policy (HIPAA-compliant) - redacts PHI with no restoration",
	}
}

// FinancePolicy redacts financial identifiers and forbids restoration.
func FinancePolicy() domain.RedactionPolicy {
	return domain.RedactionPolicy{
		Context: ContextFinance,
		EnabledEntities: []string{
			"PERSON",
			"US_SSN",
			"CREDIT_CARD",
			"IBAN_CODE",
			"PHONE_NUMBER",
			"EMAIL_ADDRESS",
			"US_BANK_NUMBER",
			"US_DRIVER_LICENSE",
		},
		RestorationAllowed:     false,
		MinConfidenceThreshold: 0.6,
		Description:            "Finance policy (PCI-DSS) - redacts financial PII with no restoration",
	}
}
