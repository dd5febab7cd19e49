// internal/interpreter/builder.go
package interpreter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"analytics-assistant/internal/models"
)

const (
	recentSliceSize  = 5
	activeUserWindow = 7 * 24 * time.Hour

	unknownMessage = "I couldn't understand your query. Try asking about sales, revenue, customers, users, trends, or insights."
	errorMessage   = "An error occurred while processing your query. Please try again."
)

var (
	salesCategories   = []string{"electronics", "accessories", "office equipment"}
	salesProducts     = []string{"laptop", "smartphone", "headphones", "monitor"}
	insightCategories = []string{"growth", "risk", "opportunity", "success"}
)

// buildSales shapes the sales snapshot (last 10, date descending) for a
// sales/revenue query. Sub-rules are checked in order; the first match wins.
func (i *Interpreter) buildSales(q string, sales []models.Sale) *models.Payload {
	if containsAny(q, "recent", "latest") {
		top := sales
		if len(top) > recentSliceSize {
			top = top[:recentSliceSize]
		}
		entries := make([]models.SaleEntry, 0, len(top))
		for _, sale := range top {
			entries = append(entries, models.SaleEntry{
				Date:     formatDate(sale.TransactionDate),
				Amount:   sale.Amount,
				Product:  sale.ProductName,
				Category: sale.Category,
			})
		}
		return &models.Payload{
			Type:    models.PayloadSales,
			Data:    entries,
			Summary: fmt.Sprintf("Found %d recent sales transactions.", len(entries)),
		}
	}

	if category, ok := matchKeyword(q, salesCategories); ok {
		entries := make([]models.SaleEntry, 0)
		for _, sale := range sales {
			if strings.EqualFold(sale.Category, category) {
				entries = append(entries, models.SaleEntry{
					Date:    formatDate(sale.TransactionDate),
					Amount:  sale.Amount,
					Product: sale.ProductName,
				})
			}
		}
		return &models.Payload{
			Type:    models.PayloadSales,
			Data:    entries,
			Summary: fmt.Sprintf("Found %d sales in the %s category.", len(entries), category),
		}
	}

	if product, ok := matchKeyword(q, salesProducts); ok {
		entries := make([]models.SaleEntry, 0)
		for _, sale := range sales {
			if strings.Contains(strings.ToLower(sale.ProductName), product) {
				entries = append(entries, models.SaleEntry{
					Date:    formatDate(sale.TransactionDate),
					Amount:  sale.Amount,
					Product: sale.ProductName,
				})
			}
		}
		return &models.Payload{
			Type:    models.PayloadSales,
			Data:    entries,
			Summary: fmt.Sprintf("Found %d sales of %ss.", len(entries), product),
		}
	}

	if containsAny(q, "total", "sum") {
		var total float64
		for _, sale := range sales {
			total += sale.Amount
		}
		metric := "Sales"
		if strings.Contains(q, "revenue") {
			metric = "Revenue"
		}
		return &models.Payload{
			Type: models.PayloadSummary,
			Data: models.SummaryData{
				Total:    fmt.Sprintf("%.2f", total),
				Count:    len(sales),
				Currency: "USD",
				Metric:   metric,
			},
			Summary: fmt.Sprintf("Total %s: $%.2f", strings.ToLower(metric), total),
		}
	}

	// Default: group by calendar day, summing amounts. First-seen order is
	// preserved so the same snapshot always yields the same series.
	byDay := make(map[string]float64)
	var days []string
	for _, sale := range sales {
		day := formatDate(sale.TransactionDate)
		if _, seen := byDay[day]; !seen {
			days = append(days, day)
		}
		byDay[day] += sale.Amount
	}
	entries := make([]models.SaleEntry, 0, len(days))
	for _, day := range days {
		entries = append(entries, models.SaleEntry{Date: day, Amount: byDay[day]})
	}
	return &models.Payload{
		Type:    models.PayloadSales,
		Data:    entries,
		Summary: fmt.Sprintf("Found sales data for %d days.", len(days)),
	}
}

// buildCustomers shapes the customer snapshot (last 10, created_at descending).
func (i *Interpreter) buildCustomers(q string, customers []models.Customer) *models.Payload {
	if containsAny(q, "new", "recent") {
		top := customers
		if len(top) > recentSliceSize {
			top = top[:recentSliceSize]
		}
		entries := make([]models.CustomerEntry, 0, len(top))
		for _, c := range top {
			entries = append(entries, models.CustomerEntry{
				Name:   c.Name,
				Email:  c.Email,
				Joined: formatDate(c.CreatedAt),
			})
		}
		return &models.Payload{
			Type:    models.PayloadCustomers,
			Data:    entries,
			Summary: fmt.Sprintf("Found %d recently added customers.", len(entries)),
		}
	}

	if strings.Contains(q, "active") {
		now := i.now()
		entries := make([]models.CustomerEntry, 0)
		for _, c := range customers {
			if c.LastActive != nil && now.Sub(*c.LastActive) < activeUserWindow {
				entries = append(entries, models.CustomerEntry{
					Name:       c.Name,
					Email:      c.Email,
					LastActive: formatDate(*c.LastActive),
				})
			}
		}
		return &models.Payload{
			Type:    models.PayloadCustomers,
			Data:    entries,
			Summary: fmt.Sprintf("Found %d active users in the last 7 days.", len(entries)),
		}
	}

	entries := make([]models.CustomerEntry, 0, len(customers))
	for _, c := range customers {
		entries = append(entries, models.CustomerEntry{
			Name:   c.Name,
			Email:  c.Email,
			Joined: formatDate(c.CreatedAt),
		})
	}
	return &models.Payload{
		Type:    models.PayloadCustomers,
		Data:    entries,
		Summary: fmt.Sprintf("Found %d customers.", len(entries)),
	}
}

// buildTrend groups the full ascending sales history by YYYY-MM and reports
// month-over-month growth once at least two months exist. Growth of exactly
// zero counts as a positive trend.
func (i *Interpreter) buildTrend(sales []models.Sale) *models.Payload {
	monthly := make(map[string]float64)
	for _, sale := range sales {
		month := sale.TransactionDate.Format("2006-01")
		monthly[month] += sale.Amount
	}

	months := make([]string, 0, len(monthly))
	for month := range monthly {
		months = append(months, month)
	}
	sort.Strings(months)

	points := make([]models.TrendPoint, 0, len(months))
	for _, month := range months {
		points = append(points, models.TrendPoint{Period: month, Value: monthly[month]})
	}

	if len(months) >= 2 {
		last := monthly[months[len(months)-1]]
		prev := monthly[months[len(months)-2]]
		growth := (last - prev) / prev * 100
		direction := "Positive trend."
		if growth < 0 {
			direction = "Negative trend."
		}
		return &models.Payload{
			Type:    models.PayloadTrend,
			Data:    points,
			Summary: fmt.Sprintf("Month-over-month growth: %.1f%%. %s", growth, direction),
		}
	}

	return &models.Payload{
		Type:    models.PayloadTrend,
		Data:    points,
		Summary: fmt.Sprintf("Monthly trend data for %d months.", len(months)),
	}
}

// buildInsights shapes the insight snapshot (all, created_at descending).
func (i *Interpreter) buildInsights(q string, insights []models.Insight) *models.Payload {
	if len(insights) == 0 {
		return &models.Payload{
			Type:    models.PayloadInsights,
			Data:    []models.InsightEntry{},
			Summary: "No insights available at this time.",
		}
	}

	if containsAny(q, "high priority", "important") {
		entries := make([]models.InsightEntry, 0)
		for _, in := range insights {
			if strings.EqualFold(in.Priority, "high") {
				entries = append(entries, models.InsightEntry{
					Title:       in.Title,
					Description: in.Description,
					Category:    in.Category,
					Priority:    in.Priority,
				})
			}
		}
		return &models.Payload{
			Type:    models.PayloadInsights,
			Data:    entries,
			Summary: fmt.Sprintf("Found %d high priority insights.", len(entries)),
		}
	}

	if category, ok := matchKeyword(q, insightCategories); ok {
		entries := make([]models.InsightEntry, 0)
		for _, in := range insights {
			if strings.EqualFold(in.Category, category) {
				entries = append(entries, models.InsightEntry{
					Title:       in.Title,
					Description: in.Description,
					Priority:    in.Priority,
				})
			}
		}
		return &models.Payload{
			Type:    models.PayloadInsights,
			Data:    entries,
			Summary: fmt.Sprintf("Found %d insights in the %s category.", len(entries), category),
		}
	}

	entries := make([]models.InsightEntry, 0, len(insights))
	for _, in := range insights {
		entries = append(entries, models.InsightEntry{
			Title:       in.Title,
			Description: in.Description,
			Category:    in.Category,
			Priority:    in.Priority,
		})
	}
	return &models.Payload{
		Type:    models.PayloadInsights,
		Data:    entries,
		Summary: fmt.Sprintf("Retrieved %d business insights.", len(entries)),
	}
}

// formatDate renders a timestamp the way the dashboard shows calendar days.
func formatDate(t time.Time) string {
	return t.Format("1/2/2006")
}
