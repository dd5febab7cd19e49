// internal/analytics/insights.go
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"analytics-assistant/internal/models"
)

const (
	trendWindow        = 30 * 24 * time.Hour
	restockMinSamples  = 5
	restockHorizonDays = 15
	bestSellerCount    = 3
	recommendationCap  = 2
)

// GenerateInsights runs the rule-based analysis over the full sales history
// and persists the resulting insight batch. The rules produce, in order: the
// top performing category, the 30-day trend, best-seller promotions,
// restocking advice and marketing recommendations. An empty history generates
// nothing and writes nothing.
func (s *Service) GenerateInsights(ctx context.Context) ([]models.Insight, error) {
	sales, err := s.source.SalesHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}
	if len(sales) == 0 {
		return nil, nil
	}

	insights := []models.Insight{
		topCategoryInsight(sales),
		s.recentTrendInsight(sales),
	}
	insights = append(insights, bestSellerInsights(sales)...)
	insights = append(insights, restockingInsights(sales)...)
	insights = append(insights, marketingInsights(sales)...)

	if err := s.source.InsertInsights(ctx, insights); err != nil {
		return nil, fmt.Errorf("store insights: %w", err)
	}

	s.logger.Info("insights generated", map[string]interface{}{
		"count": len(insights),
	})

	return insights, nil
}

func topCategoryInsight(sales []models.Sale) models.Insight {
	categorySales := make(map[string]float64)
	for _, sale := range sales {
		categorySales[sale.Category] += sale.Amount
	}
	top := topEntry(categorySales)

	return models.Insight{
		Title:       fmt.Sprintf("%s is the top performing category", top.name),
		Description: fmt.Sprintf("%s generated $%.2f in sales, making it your best performer.", top.name, top.value),
		Category:    "Success",
		Priority:    "Medium",
	}
}

// recentTrendInsight compares the last 30 days against the 30 days before
// them. A growth magnitude above 10% raises the priority to High; a missing
// previous window counts as 0% growth.
func (s *Service) recentTrendInsight(sales []models.Sale) models.Insight {
	now := s.now()
	thirtyDaysAgo := now.Add(-trendWindow)
	sixtyDaysAgo := now.Add(-2 * trendWindow)

	var recent, previous float64
	for _, sale := range sales {
		switch {
		case !sale.TransactionDate.Before(thirtyDaysAgo):
			recent += sale.Amount
		case !sale.TransactionDate.Before(sixtyDaysAgo):
			previous += sale.Amount
		}
	}

	var growth float64
	if previous != 0 {
		growth = (recent - previous) / previous * 100
	}

	title := "Positive Growth Trend"
	direction := "increased"
	category := "Growth"
	if growth < 0 {
		title = "Declining Sales Trend"
		direction = "decreased"
		category = "Risk"
	}
	priority := "Medium"
	if math.Abs(growth) > 10 {
		priority = "High"
	}

	return models.Insight{
		Title:       title,
		Description: fmt.Sprintf("Sales have %s by %.1f%% in the last 30 days.", direction, math.Abs(growth)),
		Category:    category,
		Priority:    priority,
	}
}

// bestSellerInsights promotes the most frequently purchased products. Equal
// counts break ties by name so the batch is deterministic.
func bestSellerInsights(sales []models.Sale) []models.Insight {
	counts := make(map[string]int)
	for _, sale := range sales {
		counts[sale.ProductName]++
	}

	type productCount struct {
		name  string
		count int
	}
	products := make([]productCount, 0, len(counts))
	for name, count := range counts {
		products = append(products, productCount{name, count})
	}
	sort.Slice(products, func(a, b int) bool {
		if products[a].count != products[b].count {
			return products[a].count > products[b].count
		}
		return products[a].name < products[b].name
	})
	if len(products) > bestSellerCount {
		products = products[:bestSellerCount]
	}

	insights := make([]models.Insight, 0, len(products))
	for _, p := range products {
		insights = append(insights, models.Insight{
			Title:       fmt.Sprintf("Promote %s as best-seller", p.name),
			Description: fmt.Sprintf("%s has been purchased %d times and is a top performer. Consider featuring it in your promotions.", p.name, p.count),
			Category:    "Opportunity",
			Priority:    "High",
		})
	}
	return insights
}

// restockingInsights flags products selling fast enough that the average gap
// between purchases is under the restock horizon. Products need at least
// restockMinSamples transactions to qualify; first-seen product order caps
// the output at recommendationCap.
func restockingInsights(sales []models.Sale) []models.Insight {
	byProduct := make(map[string][]time.Time)
	var order []string
	for _, sale := range sales {
		if _, seen := byProduct[sale.ProductName]; !seen {
			order = append(order, sale.ProductName)
		}
		byProduct[sale.ProductName] = append(byProduct[sale.ProductName], sale.TransactionDate)
	}

	var insights []models.Insight
	for _, product := range order {
		dates := byProduct[product]
		if len(dates) < restockMinSamples {
			continue
		}
		sort.Slice(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

		var total time.Duration
		for i := 1; i < len(dates); i++ {
			total += dates[i].Sub(dates[i-1])
		}
		avg := total / time.Duration(len(dates)-1)
		days := int(math.Ceil(avg.Hours() / 24))
		if days >= restockHorizonDays {
			continue
		}

		priority := "Medium"
		if days < 7 {
			priority = "High"
		}
		insights = append(insights, models.Insight{
			Title:       fmt.Sprintf("Restock %s soon", product),
			Description: fmt.Sprintf("%s is selling at a high velocity. Based on sales patterns, consider restocking within %d days.", product, days),
			Category:    "Inventory",
			Priority:    priority,
		})
		if len(insights) == recommendationCap {
			break
		}
	}
	return insights
}

// marketingInsights compares each category's latest month against the one
// before it: a drop beyond 10% asks for a marketing push, growth beyond 20%
// asks to capitalize on the momentum. First-seen category order caps the
// output at recommendationCap.
func marketingInsights(sales []models.Sale) []models.Insight {
	byCategory := make(map[string]map[string]float64)
	var order []string
	for _, sale := range sales {
		month := sale.TransactionDate.Format("2006-01")
		if _, seen := byCategory[sale.Category]; !seen {
			order = append(order, sale.Category)
			byCategory[sale.Category] = make(map[string]float64)
		}
		byCategory[sale.Category][month] += sale.Amount
	}

	var insights []models.Insight
	for _, category := range order {
		monthly := byCategory[category]
		months := make([]string, 0, len(monthly))
		for month := range monthly {
			months = append(months, month)
		}
		if len(months) < 2 {
			continue
		}
		sort.Strings(months)

		current := monthly[months[len(months)-1]]
		previous := monthly[months[len(months)-2]]
		if previous <= 0 {
			continue
		}
		growth := (current - previous) / previous * 100

		switch {
		case growth < -10:
			insights = append(insights, models.Insight{
				Title:       fmt.Sprintf("Increase marketing for %s", category),
				Description: fmt.Sprintf("%s sales are down %.1f%% compared to last month. Consider increasing advertising budget to reverse this trend.", category, -growth),
				Category:    "Marketing",
				Priority:    "High",
			})
		case growth > 20:
			insights = append(insights, models.Insight{
				Title:       fmt.Sprintf("Capitalize on %s growth", category),
				Description: fmt.Sprintf("%s sales are up %.1f%% from last month. Consider highlighting these products in your promotions to maintain momentum.", category, growth),
				Category:    "Growth",
				Priority:    "Medium",
			})
		}
		if len(insights) == recommendationCap {
			break
		}
	}
	return insights
}
