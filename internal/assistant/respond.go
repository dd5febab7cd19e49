// internal/assistant/respond.go
package assistant

import (
	"fmt"
	"strings"

	"analytics-assistant/internal/models"
)

// SpokenResponse renders a payload as the assistant's spoken confirmation.
func SpokenResponse(p *models.Payload) string {
	switch p.Type {
	case models.PayloadUnknown:
		return "I didn't understand that query. Could you please try again?"
	case models.PayloadError:
		return "I encountered an error processing your request. Please try again."
	case models.PayloadSummary:
		if data, ok := p.Data.(models.SummaryData); ok {
			return fmt.Sprintf("The total %s is $%s from %d transactions.",
				strings.ToLower(data.Metric), data.Total, data.Count)
		}
	case models.PayloadSales:
		if entries, ok := p.Data.([]models.SaleEntry); ok {
			spoken := fmt.Sprintf("I found %d sales records. ", len(entries))
			if len(entries) > 0 {
				var total float64
				for _, entry := range entries {
					total += entry.Amount
				}
				spoken += fmt.Sprintf("The total amount is $%.2f.", total)
			}
			return spoken
		}
	case models.PayloadTrend:
		if p.Summary != "" {
			return p.Summary
		}
		return "I've analyzed the trends in your data."
	case models.PayloadCustomers:
		if entries, ok := p.Data.([]models.CustomerEntry); ok {
			return fmt.Sprintf("I found %d customer records.", len(entries))
		}
	case models.PayloadInsights:
		spoken := p.Summary
		if spoken == "" {
			spoken = "I've identified some key insights from your data."
		}
		if entries, ok := p.Data.([]models.InsightEntry); ok && len(entries) > 0 {
			spoken += " Here are the top insights: "
			top := entries
			if len(top) > 3 {
				top = top[:3]
			}
			for idx, insight := range top {
				spoken += fmt.Sprintf("%d: %s. %s ", idx+1, insight.Title, insight.Description)
			}
		}
		return spoken
	case models.PayloadStory:
		if data, ok := p.Data.(models.StoryData); ok {
			return fmt.Sprintf("%s. %s", data.Title, data.Summary)
		}
	}

	return "I found some data that might interest you. Check the dashboard for details."
}
