package apiclient

import (
	"strings"

	"github.com/goliatone/go-journey360/pkg/schema"
)

var sampleOptions = map[string][]schema.FieldOption{
	"country": {
		{Label: "United States", Value: "us"},
		{Label: "United Kingdom", Value: "uk"},
		{Label: "Canada", Value: "ca"},
		{Label: "Australia", Value: "au"},
		{Label: "Germany", Value: "de"},
		{Label: "France", Value: "fr"},
		{Label: "India", Value: "in"},
		{Label: "Japan", Value: "jp"},
		{Label: "Singapore", Value: "sg"},
	},
	"nationality": {
		{Label: "American", Value: "us"},
		{Label: "British", Value: "uk"},
		{Label: "Canadian", Value: "ca"},
		{Label: "Australian", Value: "au"},
		{Label: "Indian", Value: "in"},
		{Label: "Chinese", Value: "cn"},
		{Label: "Japanese", Value: "jp"},
	},
	"destination": {
		{Label: "Worldwide", Value: "worldwide"},
		{Label: "Europe", Value: "europe"},
		{Label: "Asia", Value: "asia"},
		{Label: "North America", Value: "north_america"},
		{Label: "South America", Value: "south_america"},
		{Label: "Africa", Value: "africa"},
		{Label: "Oceania", Value: "oceania"},
	},
}

// SampleOptions returns canned options for well-known field names. Offline
// sessions use them when an option endpoint cannot be reached.
func SampleOptions(fieldName string) ([]schema.FieldOption, bool) {
	options, ok := sampleOptions[strings.ToLower(strings.TrimSpace(fieldName))]
	if !ok {
		return nil, false
	}
	return append([]schema.FieldOption(nil), options...), true
}
