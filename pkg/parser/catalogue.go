package parser

import (
	"regexp"

	"github.com/goliatone/go-journey360/pkg/schema"
)

// Template is a named domain journey. When its synonyms or patterns match the
// requirement text the parser starts from its fields instead of building a
// form from the generic vocabulary alone.
type Template struct {
	Kind           schema.Kind
	Title          string
	Description    string
	Synonyms       []string
	Patterns       []*regexp.Regexp
	Priority       int
	Layout         schema.Layout
	Steps          []schema.Step
	Fields         []schema.Field
	SuccessMessage string
}

// Term maps generic nouns ("email", "date of birth") to a field definition.
type Term struct {
	Synonyms []string
	Field    schema.Field
}

// DefaultCatalogue returns the built-in insurance journey templates. The
// returned slice is freshly allocated on every call.
func DefaultCatalogue() []Template {
	return []Template{
		travelInsuranceTemplate(),
		deathClaimTemplate(),
		lifeInsuranceTemplate(),
		claimTemplate(),
		homeInsuranceTemplate(),
		motorInsuranceTemplate(),
		healthInsuranceTemplate(),
	}
}

func travelInsuranceTemplate() Template {
	return Template{
		Kind:        schema.KindTravelInsurance,
		Title:       "Travel Insurance Quote & Buy",
		Description: "Guided journey to quote and purchase a travel insurance policy.",
		Synonyms:    []string{"travel insurance", "trip insurance", "travel policy", "travel cover"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)travel\s+insurance`),
			regexp.MustCompile(`(?i)(trip|travel)\s+(cover|coverage)`),
		},
		Priority: 10,
		Layout:   schema.LayoutWizard,
		Steps: []schema.Step{
			{Title: "Trip Details", Description: "Where and when you are travelling"},
			{Title: "Traveler Information", Description: "Details as they appear on the passport"},
			{Title: "Coverage Options", Description: "Choose the plan that fits your trip"},
			{Title: "Payment", Description: "Review and pay for your policy"},
		},
		Fields: concat(
			onStep(0,
				options(field("tripType", "Trip Type", schema.FieldTypeRadio, required("Trip Type")), "Single Trip", "Annual Multi-trip"),
				options(field("destination", "Destination", schema.FieldTypeSelect, required("Destination")),
					"Worldwide", "Europe", "Asia", "South East Asia", "Worldwide excl. USA, Canada, Caribbean, Mexico"),
				field("travelStartDate", "Travel Start Date", schema.FieldTypeDate, required("Travel Start Date")),
				field("travelEndDate", "Travel End Date", schema.FieldTypeDate, required("Travel End Date")),
				field("numberOfTravellers", "Number of Travellers", schema.FieldTypeNumber,
					required("Number of Travellers"), minRule(1), maxRule(10)),
			),
			onStep(1,
				placeholder(field("fullName", "Full Name (as per passport)", schema.FieldTypeText, required("Full Name"), minLength(2)), "Jane Doe"),
				field("dateOfBirth", "Date of Birth", schema.FieldTypeDate, required("Date of Birth")),
				options(field("gender", "Gender", schema.FieldTypeRadio, required("Gender")), "Male", "Female", "Other"),
				field("passportNumber", "Passport Number", schema.FieldTypeText,
					required("Passport Number"), pattern(`^[A-Z0-9]{6,9}$`, "Passport number must be 6-9 letters or digits")),
				placeholder(field("email", "Email Address", schema.FieldTypeEmail, required("Email Address"), emailRule()), "you@example.com"),
				field("phone", "Phone Number", schema.FieldTypePhone, required("Phone Number"), phoneRule()),
			),
			onStep(2,
				options(field("coveragePlan", "Coverage Plan", schema.FieldTypeRadio, required("Coverage Plan")), "Bronze", "Silver", "Gold"),
				field("adventureSports", "Adventure Sports Cover", schema.FieldTypeCheckbox),
				field("rentalCarExcess", "Rental Car Excess", schema.FieldTypeCheckbox),
			),
			onStep(3,
				field("cardholderName", "Cardholder Name", schema.FieldTypeText, required("Cardholder Name")),
				field("cardNumber", "Card Number", schema.FieldTypeText,
					required("Card Number"), pattern(`^[0-9]{13,19}$`, "Card number must be 13-19 digits")),
				field("termsAccepted", "I accept the policy terms", schema.FieldTypeCheckbox, required("Terms acceptance")),
			),
		),
		SuccessMessage: "Policy issued successfully!",
	}
}

func deathClaimTemplate() Template {
	return Template{
		Kind:        schema.KindDeathClaim,
		Title:       "Death Claim Submission",
		Description: "Agent journey to submit a death claim on behalf of a beneficiary.",
		Synonyms:    []string{"death claim", "death benefit", "deceased", "bereavement"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)death\s+(claim|benefit)`),
		},
		Priority: 12,
		Layout:   schema.LayoutWizard,
		Steps: []schema.Step{
			{Title: "Claim Main Details"},
			{Title: "Required Documents"},
			{Title: "Claim Assessment"},
			{Title: "Payment Details"},
		},
		Fields: concat(
			onStep(0,
				field("policyNumber", "Policy Number", schema.FieldTypeText,
					required("Policy Number"), pattern(`^[A-Z0-9-]{6,20}$`, "Policy number must be 6-20 characters")),
				field("requestDate", "Request Date", schema.FieldTypeDate, required("Request Date")),
				field("effectiveDate", "Effective Date", schema.FieldTypeDate, required("Effective Date")),
				options(field("primaryMedicalReason", "Primary Medical Reason", schema.FieldTypeSelect, required("Primary Medical Reason")),
					"Natural Causes", "Accident", "Illness", "Other"),
			),
			onStep(1,
				field("deathCertificate", "Death Certificate", schema.FieldTypeFile, required("Death Certificate")),
				field("medicalRecords", "Medical Records", schema.FieldTypeFile),
			),
			onStep(2,
				options(field("claimDecision", "Assessment Outcome", schema.FieldTypeRadio, required("Assessment Outcome")),
					"Approve", "Refer", "Reject"),
				field("claimantStatement", "Claimant Statement", schema.FieldTypeTextarea, maxLength(2000)),
			),
			onStep(3,
				field("payeeName", "Payee Name", schema.FieldTypeText, required("Payee Name")),
				field("paymentPercentage", "Payment Percentage", schema.FieldTypeNumber,
					required("Payment Percentage"), minRule(1), maxRule(100)),
				field("bankAccountNumber", "Bank Account Number", schema.FieldTypeText,
					required("Bank Account Number"), pattern(`^[0-9]{8,17}$`, "Account number must be 8-17 digits")),
				field("notes", "Notes", schema.FieldTypeTextarea, maxLength(1000)),
			),
		),
		SuccessMessage: "Death claim submitted successfully",
	}
}

func lifeInsuranceTemplate() Template {
	return Template{
		Kind:        schema.KindLifeInsurance,
		Title:       "Life Insurance Quote & Buy",
		Description: "Quote and buy journey for term and whole life cover.",
		Synonyms:    []string{"life insurance", "term life", "whole life", "life cover"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)life\s+(insurance|cover|policy)`),
		},
		Priority: 8,
		Layout:   schema.LayoutWizard,
		Steps: []schema.Step{
			{Title: "Personal Information"},
			{Title: "Health Questionnaire"},
			{Title: "Beneficiary"},
			{Title: "Coverage & Payment"},
		},
		Fields: concat(
			onStep(0,
				field("fullName", "Full Name", schema.FieldTypeText, required("Full Name"), minLength(2)),
				field("dateOfBirth", "Date of Birth", schema.FieldTypeDate, required("Date of Birth")),
				field("email", "Email Address", schema.FieldTypeEmail, required("Email Address"), emailRule()),
				field("phone", "Phone Number", schema.FieldTypePhone, required("Phone Number"), phoneRule()),
			),
			onStep(1,
				options(field("smoker", "Do you smoke?", schema.FieldTypeRadio, required("Smoking status")), "Yes", "No"),
				field("preExistingConditions", "Pre-existing Conditions", schema.FieldTypeTextarea, maxLength(1000)),
			),
			onStep(2,
				field("beneficiaryName", "Beneficiary Name", schema.FieldTypeText, required("Beneficiary Name")),
				options(field("beneficiaryRelationship", "Relationship to Beneficiary", schema.FieldTypeSelect, required("Relationship")),
					"Spouse", "Child", "Parent", "Sibling", "Other"),
			),
			onStep(3,
				field("annualIncome", "Annual Income", schema.FieldTypeNumber, minRule(0)),
				field("coverageAmount", "Coverage Amount", schema.FieldTypeNumber,
					required("Coverage Amount"), minRule(10000), maxRule(5000000)),
				options(field("policyType", "Policy Type", schema.FieldTypeRadio, required("Policy Type")), "Term Life", "Whole Life"),
				options(field("paymentFrequency", "Payment Frequency", schema.FieldTypeSelect), "Monthly", "Quarterly", "Annually"),
			),
		),
		SuccessMessage: "Application received. We will be in touch shortly.",
	}
}

func claimTemplate() Template {
	return Template{
		Kind:        schema.KindClaim,
		Title:       "Insurance Claim Submission",
		Description: "End-to-end claim capture from incident details to settlement preferences.",
		Synonyms:    []string{"insurance claim", "claim submission", "file a claim", "claim"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bclaims?\b`),
		},
		Priority: 4,
		Layout:   schema.LayoutWizard,
		Steps: []schema.Step{
			{Title: "Incident Details"},
			{Title: "Damage Assessment"},
			{Title: "Supporting Documents"},
		},
		Fields: concat(
			onStep(0,
				field("incidentDate", "Incident Date", schema.FieldTypeDate, required("Incident Date")),
				field("incidentTime", "Incident Time", schema.FieldTypeTime),
				field("incidentLocation", "Incident Location", schema.FieldTypeText, required("Incident Location")),
				field("incidentDescription", "What happened?", schema.FieldTypeTextarea,
					required("Incident description"), minLength(20)),
			),
			onStep(1,
				field("damagePhotos", "Damage Photos", schema.FieldTypeFile),
				field("repairEstimate", "Repair Estimate", schema.FieldTypeNumber, minRule(0)),
				field("claimAmount", "Claim Amount", schema.FieldTypeNumber, required("Claim Amount"), minRule(1)),
			),
			onStep(2,
				field("witnessName", "Witness Name", schema.FieldTypeText),
				field("policeReportNumber", "Police Report Number", schema.FieldTypeText),
				options(field("notificationPreference", "Notification Preference", schema.FieldTypeSelect), "Email", "SMS", "Phone"),
			),
		),
		SuccessMessage: "Claim submitted. Track its status from your dashboard.",
	}
}

func homeInsuranceTemplate() Template {
	return Template{
		Kind:        schema.KindHomeInsurance,
		Title:       "Home Insurance Quote",
		Description: "Quote journey for buildings and contents cover.",
		Synonyms:    []string{"home insurance", "property insurance", "homeowners", "house insurance"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(home|house|property|homeowners?)\s+insurance`),
		},
		Priority: 8,
		Layout:   schema.LayoutTwoColumn,
		Fields: []schema.Field{
			field("fullName", "Full Name", schema.FieldTypeText, required("Full Name"), minLength(2)),
			field("email", "Email Address", schema.FieldTypeEmail, required("Email Address"), emailRule()),
			field("propertyAddress", "Property Address", schema.FieldTypeText, required("Property Address")),
			options(field("propertyType", "Property Type", schema.FieldTypeSelect, required("Property Type")), "House", "Apartment", "Townhouse"),
			field("yearBuilt", "Year Built", schema.FieldTypeNumber, minRule(1800), maxRule(2100)),
			field("rebuildValue", "Rebuild Value", schema.FieldTypeNumber, required("Rebuild Value"), minRule(10000)),
			field("contentsValue", "Contents Value", schema.FieldTypeNumber, minRule(0)),
			field("securitySystem", "Monitored security system installed", schema.FieldTypeCheckbox),
		},
		SuccessMessage: "Your home insurance quote is on its way.",
	}
}

func motorInsuranceTemplate() Template {
	return Template{
		Kind:        schema.KindMotorInsurance,
		Title:       "Motor Insurance Renewal",
		Description: "Renew an existing motor policy and update vehicle details.",
		Synonyms:    []string{"motor insurance", "car insurance", "auto insurance", "vehicle insurance"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(motor|car|auto|vehicle)\s+(insurance|policy|renewal)`),
		},
		Priority: 8,
		Layout:   schema.LayoutCarded,
		Fields: []schema.Field{
			field("policyNumber", "Policy Number", schema.FieldTypeText,
				required("Policy Number"), pattern(`^[A-Z0-9-]{6,20}$`, "Policy number must be 6-20 characters")),
			field("vehicleRegistration", "Vehicle Registration", schema.FieldTypeText,
				required("Vehicle Registration"), pattern(`^[A-Z0-9 -]{2,10}$`, "Registration must be 2-10 characters")),
			field("vehicleMake", "Vehicle Make", schema.FieldTypeText, required("Vehicle Make")),
			field("vehicleModel", "Vehicle Model", schema.FieldTypeText),
			field("yearOfManufacture", "Year of Manufacture", schema.FieldTypeNumber, minRule(1950), maxRule(2100)),
			field("annualMileage", "Annual Mileage", schema.FieldTypeNumber, minRule(0)),
			options(field("claimsLastYear", "Any claims in the last year?", schema.FieldTypeRadio, required("Claims history")), "Yes", "No"),
			field("email", "Email Address", schema.FieldTypeEmail, required("Email Address"), emailRule()),
		},
		SuccessMessage: "Your policy has been renewed.",
	}
}

func healthInsuranceTemplate() Template {
	return Template{
		Kind:        schema.KindHealthInsurance,
		Title:       "Health Insurance Family Floater",
		Description: "Quote and buy journey for family health cover.",
		Synonyms:    []string{"health insurance", "medical insurance", "family floater", "health cover"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(health|medical)\s+(insurance|cover)`),
			regexp.MustCompile(`(?i)family\s+floater`),
		},
		Priority: 8,
		Layout:   schema.LayoutSimple,
		Fields: []schema.Field{
			field("fullName", "Primary Member Name", schema.FieldTypeText, required("Primary Member Name"), minLength(2)),
			field("dateOfBirth", "Date of Birth", schema.FieldTypeDate, required("Date of Birth")),
			field("numberOfMembers", "Members to Cover", schema.FieldTypeNumber, required("Members to Cover"), minRule(2), maxRule(8)),
			options(field("sumInsured", "Sum Insured", schema.FieldTypeSelect, required("Sum Insured")),
				"100,000", "250,000", "500,000", "1,000,000"),
			field("preExistingConditions", "Pre-existing Conditions", schema.FieldTypeTextarea, maxLength(1000)),
			field("email", "Email Address", schema.FieldTypeEmail, required("Email Address"), emailRule()),
			field("phone", "Phone Number", schema.FieldTypePhone, required("Phone Number"), phoneRule()),
		},
		SuccessMessage: "Your family floater quote is ready.",
	}
}

// DefaultVocabulary returns the generic noun lookup table.
func DefaultVocabulary() []Term {
	return []Term{
		{Synonyms: []string{"full name", "your name", "name"},
			Field: field("fullName", "Full Name", schema.FieldTypeText, required("Full Name"), minLength(2))},
		{Synonyms: []string{"user name", "username"},
			Field: field("username", "Username", schema.FieldTypeText, required("Username"),
				pattern(`^[a-zA-Z0-9_]{3,20}$`, "Username must be 3-20 letters, digits or underscores"))},
		{Synonyms: []string{"email address", "e-mail", "email"},
			Field: placeholder(field("email", "Email Address", schema.FieldTypeEmail, required("Email Address"), emailRule()), "you@example.com")},
		{Synonyms: []string{"phone number", "contact number", "telephone", "mobile", "phone"},
			Field: field("phone", "Phone Number", schema.FieldTypePhone, required("Phone Number"), phoneRule())},
		{Synonyms: []string{"password"},
			Field: field("password", "Password", schema.FieldTypePassword, required("Password"), minLength(8))},
		{Synonyms: []string{"date of birth", "birth date", "birthday", "dob"},
			Field: field("dateOfBirth", "Date of Birth", schema.FieldTypeDate, required("Date of Birth"))},
		{Synonyms: []string{"age"},
			Field: field("age", "Age", schema.FieldTypeNumber, minRule(18), maxRule(120))},
		{Synonyms: []string{"gender"},
			Field: options(field("gender", "Gender", schema.FieldTypeRadio), "Male", "Female", "Other")},
		{Synonyms: []string{"company name", "company", "organization", "organisation"},
			Field: field("company", "Company", schema.FieldTypeText)},
		{Synonyms: []string{"street address", "address"},
			Field: field("address", "Address", schema.FieldTypeText, required("Address"))},
		{Synonyms: []string{"city", "town"},
			Field: field("city", "City", schema.FieldTypeText)},
		{Synonyms: []string{"postal code", "postcode", "zip code", "zip"},
			Field: field("postalCode", "Postal Code", schema.FieldTypeText,
				pattern(`^[A-Za-z0-9 -]{3,10}$`, "Please enter a valid postal code"))},
		{Synonyms: []string{"country"},
			Field: options(field("country", "Country", schema.FieldTypeSelect),
				"United States", "Canada", "United Kingdom", "India", "Australia", "Other")},
		{Synonyms: []string{"start date"},
			Field: field("startDate", "Start Date", schema.FieldTypeDate, required("Start Date"))},
		{Synonyms: []string{"end date"},
			Field: field("endDate", "End Date", schema.FieldTypeDate)},
		{Synonyms: []string{"quantity"},
			Field: field("quantity", "Quantity", schema.FieldTypeNumber, minRule(1))},
		{Synonyms: []string{"amount", "price", "budget"},
			Field: field("amount", "Amount", schema.FieldTypeNumber, minRule(0))},
		{Synonyms: []string{"website", "homepage", "url"},
			Field: placeholder(field("website", "Website", schema.FieldTypeURL, urlRule()), "https://")},
		{Synonyms: []string{"rating"},
			Field: options(field("rating", "Rating", schema.FieldTypeSelect), "1", "2", "3", "4", "5")},
		{Synonyms: []string{"attachment", "upload", "document", "file"},
			Field: field("attachment", "Attachment", schema.FieldTypeFile)},
		{Synonyms: []string{"comments", "comment", "message", "feedback", "notes"},
			Field: field("message", "Message", schema.FieldTypeTextarea, maxLength(1000))},
		{Synonyms: []string{"newsletter", "subscribe"},
			Field: field("subscribe", "Subscribe to updates", schema.FieldTypeCheckbox)},
		{Synonyms: []string{"terms and conditions", "consent", "terms"},
			Field: field("termsAccepted", "I accept the terms and conditions", schema.FieldTypeCheckbox, required("Terms acceptance"))},
	}
}

// fallbackFields keep the one-field invariant when nothing in the text maps to
// the vocabulary.
func fallbackFields() []schema.Field {
	return []schema.Field{
		field("fullName", "Full Name", schema.FieldTypeText, required("Full Name"), minLength(2)),
		field("email", "Email Address", schema.FieldTypeEmail, required("Email Address"), emailRule()),
		field("message", "Message", schema.FieldTypeTextarea, maxLength(1000)),
	}
}

func field(name, label string, typ schema.FieldType, rules ...schema.Validation) schema.Field {
	return schema.Field{
		ID:          name,
		Name:        name,
		Label:       label,
		Type:        typ,
		Validations: rules,
	}
}

func options(f schema.Field, labels ...string) schema.Field {
	f.Options = make([]schema.FieldOption, 0, len(labels))
	for _, label := range labels {
		f.Options = append(f.Options, schema.FieldOption{Label: label, Value: optionValue(label)})
	}
	return f
}

func placeholder(f schema.Field, text string) schema.Field {
	f.Placeholder = text
	return f
}

func onStep(step int, fields ...schema.Field) []schema.Field {
	for i := range fields {
		fields[i].Step = step
	}
	return fields
}

func concat(groups ...[]schema.Field) []schema.Field {
	var out []schema.Field
	for _, group := range groups {
		out = append(out, group...)
	}
	return out
}

func required(label string) schema.Validation {
	return schema.Validation{Type: schema.ValidationRequired, Message: label + " is required"}
}

func emailRule() schema.Validation {
	return schema.Validation{Type: schema.ValidationEmail, Message: "Please enter a valid email address"}
}

func phoneRule() schema.Validation {
	return schema.Validation{Type: schema.ValidationPhone, Message: "Please enter a valid phone number"}
}

func urlRule() schema.Validation {
	return schema.Validation{Type: schema.ValidationURL, Message: "Please enter a valid URL"}
}

func minRule(value float64) schema.Validation {
	return schema.Validation{Type: schema.ValidationMin, Value: value}
}

func maxRule(value float64) schema.Validation {
	return schema.Validation{Type: schema.ValidationMax, Value: value}
}

func minLength(value float64) schema.Validation {
	return schema.Validation{Type: schema.ValidationMinLength, Value: value}
}

func maxLength(value float64) schema.Validation {
	return schema.Validation{Type: schema.ValidationMaxLength, Value: value}
}

func pattern(expr, message string) schema.Validation {
	return schema.Validation{Type: schema.ValidationPattern, Value: expr, Message: message}
}
