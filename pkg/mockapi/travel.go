package mockapi

import (
	"fmt"
	"net/http"
	"time"
)

// TravelBasePath prefixes the travel insurance domain endpoints. These paths
// are fixed and do not depend on the schema title.
const TravelBasePath = "/api/travel-insurance"

type travelPlan struct {
	id         string
	name       string
	price      float64
	medical    float64
	cancel     float64
	baggage    float64
	evacuation float64
	inclusions []string
	exclusions []string
}

var travelPlans = []travelPlan{
	{
		id: "bronze", name: "Bronze", price: 50,
		medical: 50000, cancel: 5000, baggage: 1000, evacuation: 25000,
		inclusions: []string{
			"Medical expenses up to $50,000",
			"Trip cancellation up to $5,000",
			"Lost baggage coverage up to $1,000",
			"Emergency evacuation",
			"24/7 travel assistance",
		},
		exclusions: []string{
			"Pre-existing conditions (unless declared)",
			"Adventure sports",
			"Travel to war zones",
		},
	},
	{
		id: "silver", name: "Silver", price: 100,
		medical: 100000, cancel: 10000, baggage: 2500, evacuation: 50000,
		inclusions: []string{
			"Medical expenses up to $100,000",
			"Trip cancellation up to $10,000",
			"Lost baggage coverage up to $2,500",
			"Emergency evacuation",
			"24/7 travel assistance",
			"Trip delay compensation",
			"Rental car excess",
		},
		exclusions: []string{
			"Pre-existing conditions (unless declared)",
			"Extreme adventure sports",
		},
	},
	{
		id: "gold", name: "Gold", price: 150,
		medical: 250000, cancel: 25000, baggage: 5000, evacuation: 100000,
		inclusions: []string{
			"Medical expenses up to $250,000",
			"Trip cancellation up to $25,000",
			"Lost baggage coverage up to $5,000",
			"Emergency evacuation",
			"24/7 premium travel assistance",
			"Trip delay compensation",
			"Rental car excess",
			"Adventure sports coverage",
			"Cancel for any reason (75% refund)",
		},
		exclusions: []string{
			"Travel to sanctioned countries",
		},
	},
}

func (p travelPlan) body() map[string]any {
	return map[string]any{
		"id":    p.id,
		"name":  p.name,
		"price": p.price,
		"coverage": map[string]any{
			"medical":             p.medical,
			"tripCancellation":    p.cancel,
			"baggage":             p.baggage,
			"emergencyEvacuation": p.evacuation,
		},
		"inclusions": append([]string(nil), p.inclusions...),
		"exclusions": append([]string(nil), p.exclusions...),
	}
}

func (g *Generator) travelEndpoints(now time.Time) []Endpoint {
	plans := make([]map[string]any, 0, len(travelPlans))
	for _, plan := range travelPlans {
		plans = append(plans, plan.body())
	}

	return []Endpoint{
		{
			Method:       http.MethodGet,
			Path:         TravelBasePath + "/plans",
			Summary:      "List coverage plans",
			ResponseBody: map[string]any{"success": true, "data": plans},
			StatusCode:   http.StatusOK,
			Delay:        800 * time.Millisecond,
		},
		{
			Method:  http.MethodPost,
			Path:    TravelBasePath + "/calculate-premium",
			Summary: "Calculate a premium quote",
			ResponseBody: map[string]any{
				"success": true,
				"data": map[string]any{
					"basePremium":  100.0,
					"addOns":       55.0,
					"taxes":        15.50,
					"totalPremium": 170.50,
					"currency":     "USD",
					"breakdown": map[string]any{
						"baseCoverage":    100.0,
						"adventureSports": 25.0,
						"rentalCar":       15.0,
						"covid19":         20.0,
						"taxes":           15.50,
					},
				},
			},
			StatusCode: http.StatusOK,
			Delay:      600 * time.Millisecond,
		},
		{
			Method:  http.MethodPost,
			Path:    TravelBasePath + "/issue-policy",
			Summary: "Issue a policy",
			ResponseBody: map[string]any{
				"success": true,
				"message": "Policy issued successfully",
				"data": map[string]any{
					"policyNumber":      g.policyNumber(now),
					"policyPdf":         "https://example.com/policies/TRV-policy.pdf",
					"certificateNumber": fmt.Sprintf("CERT-%d", now.UnixMilli()),
					"issueDate":         now.Format(isoMillis),
					"expiryDate":        now.Add(365 * 24 * time.Hour).Format(isoMillis),
					"status":            "active",
				},
			},
			StatusCode: http.StatusOK,
			Delay:      2000 * time.Millisecond,
		},
		{
			Method:  http.MethodPost,
			Path:    TravelBasePath + "/process-payment",
			Summary: "Process a premium payment",
			ResponseBody: map[string]any{
				"success": true,
				"message": "Payment processed successfully",
				"data": map[string]any{
					"transactionId": fmt.Sprintf("TXN-%d", now.UnixMilli()),
					"amount":        170.50,
					"currency":      "USD",
					"status":        "completed",
					"paymentMethod": "card",
					"timestamp":     now.Format(isoMillis),
				},
			},
			StatusCode: http.StatusOK,
			Delay:      1500 * time.Millisecond,
		},
	}
}
