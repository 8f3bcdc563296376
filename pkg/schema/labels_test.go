package schema

import "testing"

func TestDefaultLabeler(t *testing.T) {
	cases := map[string]string{
		"dateOfBirth":    "Date Of Birth",
		"passport_no":    "Passport No",
		"address-line2":  "Address Line 2",
		"":               "",
		"travelEndDate":  "Travel End Date",
		"claim_amount":   "Claim Amount",
		"policy-number1": "Policy Number 1",
	}
	for in, want := range cases {
		if got := DefaultLabeler(in); got != want {
			t.Errorf("DefaultLabeler(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMachineName(t *testing.T) {
	cases := map[string]string{
		"Date of Birth":              "dateOfBirth",
		"Full Name (as per passport)": "fullNameAsPerPassport",
		"E-mail":                     "eMail",
		"2nd Address":                "field2ndAddress",
		"   ":                        "",
	}
	for in, want := range cases {
		if got := MachineName(in); got != want {
			t.Errorf("MachineName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Travel Insurance Quote": "travel-insurance-quote",
		"  Death   Claim ":       "death-claim",
		"Customer's Form!":       "customer-s-form",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
