// internal/interpreter/intent.go
package interpreter

import "strings"

// Intent is the classified purpose of a free-text query.
type Intent string

const (
	IntentSales     Intent = "sales"
	IntentCustomers Intent = "customers"
	IntentTrend     Intent = "trend"
	IntentInsights  Intent = "insights"
	IntentUnknown   Intent = "unknown"
)

type intentRule struct {
	intent   Intent
	keywords []string
}

// intentRules is the keyword cascade. Order is part of the contract:
// rules are evaluated top to bottom and the first match wins, so a query
// mentioning both "sales" and "growth" routes to the sales intent.
var intentRules = []intentRule{
	{IntentSales, []string{"sales", "revenue"}},
	{IntentCustomers, []string{"customer", "user"}},
	{IntentTrend, []string{"trend", "growth", "compare"}},
	{IntentInsights, []string{"insight", "analysis", "recommend"}},
}

// Classify resolves an utterance to an intent. It never fails: text that
// matches no rule classifies as IntentUnknown.
func Classify(utterance string) Intent {
	q := strings.ToLower(utterance)
	for _, rule := range intentRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(q, keyword) {
				return rule.intent
			}
		}
	}
	return IntentUnknown
}

func containsAny(q string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(q, keyword) {
			return true
		}
	}
	return false
}

// matchKeyword returns the first keyword found in q, preserving list order.
func matchKeyword(q string, keywords []string) (string, bool) {
	for _, keyword := range keywords {
		if strings.Contains(q, keyword) {
			return keyword, true
		}
	}
	return "", false
}
