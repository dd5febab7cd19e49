// internal/interpreter/intent_test.go
package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_KeywordRouting(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		want      Intent
	}{
		{"sales keyword", "Show me recent sales", IntentSales},
		{"revenue keyword", "What is our total revenue?", IntentSales},
		{"customer keyword", "List all customers", IntentCustomers},
		{"user keyword", "How many active users do we have?", IntentCustomers},
		{"trend keyword", "Show the monthly trend", IntentTrend},
		{"growth keyword", "What's our growth rate?", IntentTrend},
		{"compare keyword", "Compare this month to last month", IntentTrend},
		{"insight keyword", "Give me key insights", IntentInsights},
		{"analysis keyword", "Run an analysis on the data", IntentInsights},
		{"recommend keyword", "What do you recommend?", IntentInsights},
		{"mixed case", "SHOW ME SALES", IntentSales},
		{"no keywords", "xyz unrelated gibberish", IntentUnknown},
		{"empty string", "", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.utterance))
		})
	}
}

// A query matching more than one rule routes to the earliest rule: "sales"
// outranks every other keyword regardless of where it appears in the text.
func TestClassify_PriorityOrder(t *testing.T) {
	tests := []struct {
		utterance string
		want      Intent
	}{
		{"sales growth over time", IntentSales},
		{"revenue insights please", IntentSales},
		{"customer growth analysis", IntentCustomers},
		{"user insights", IntentCustomers},
		{"growth recommendations", IntentTrend},
		{"compare our analysis", IntentTrend},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.utterance))
		})
	}
}

func TestClassify_KeywordInsideLargerWord(t *testing.T) {
	// Substring matching is deliberate: "users" contains "user",
	// "salesperson" contains "sales".
	assert.Equal(t, IntentCustomers, Classify("how many users signed up"))
	assert.Equal(t, IntentSales, Classify("top salesperson this month"))
}
