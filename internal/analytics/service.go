// internal/analytics/service.go
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"analytics-assistant/internal/common/logger"
	"analytics-assistant/internal/interpreter"
	"analytics-assistant/internal/models"
)

const TimeframeLastQuarter = "last-quarter"

// Overview is the dashboard aggregate: grand total, per-category totals and
// the sorted monthly series.
type Overview struct {
	TotalSales       float64         `json:"totalSales"`
	CategoriesData   []CategoryTotal `json:"categoriesData"`
	MonthlySalesData []MonthlyTotal  `json:"monthlySalesData"`
}

type CategoryTotal struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type MonthlyTotal struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// DataStore extends the interpreter's read contract with the insight write
// the generator needs.
type DataStore interface {
	interpreter.DataSource
	InsertInsights(ctx context.Context, insights []models.Insight) error
}

// Service computes dashboard aggregates, business stories and generated
// insights over the same snapshots the interpreter reads.
type Service struct {
	source DataStore
	logger logger.Logger
	now    func() time.Time
}

func New(source DataStore, log logger.Logger) *Service {
	return &Service{
		source: source,
		logger: log.With(map[string]interface{}{
			"component": "analytics",
		}),
		now: time.Now,
	}
}

// GetOverview aggregates the full sales history.
func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	sales, err := s.source.SalesHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}

	var total float64
	byCategory := make(map[string]float64)
	byMonth := make(map[string]float64)
	for _, sale := range sales {
		total += sale.Amount
		byCategory[sale.Category] += sale.Amount
		byMonth[sale.TransactionDate.Format("2006-01")] += sale.Amount
	}

	categories := make([]CategoryTotal, 0, len(byCategory))
	for name, value := range byCategory {
		categories = append(categories, CategoryTotal{Name: name, Value: value})
	}
	sort.Slice(categories, func(a, b int) bool { return categories[a].Name < categories[b].Name })

	monthly := make([]MonthlyTotal, 0, len(byMonth))
	for date, value := range byMonth {
		monthly = append(monthly, MonthlyTotal{Date: date, Value: value})
	}
	sort.Slice(monthly, func(a, b int) bool { return monthly[a].Date < monthly[b].Date })

	return &Overview{
		TotalSales:       total,
		CategoriesData:   categories,
		MonthlySalesData: monthly,
	}, nil
}

// GenerateStory builds the narrative review over the sales history and the
// current insights. Timeframe defaults to last-quarter; anything else is
// treated as an annual review. Growth is a quarter-over-quarter comparison,
// so annual reviews report 0.
func (s *Service) GenerateStory(ctx context.Context, timeframe string) (*models.StoryData, error) {
	if timeframe == "" {
		timeframe = TimeframeLastQuarter
	}

	sales, err := s.source.SalesHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}
	insights, err := s.source.AllInsights(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch insights: %w", err)
	}

	var totalSales float64
	customers := make(map[string]struct{})
	productSales := make(map[string]float64)
	categorySales := make(map[string]float64)
	for _, sale := range sales {
		totalSales += sale.Amount
		if sale.CustomerID != nil {
			customers[*sale.CustomerID] = struct{}{}
		}
		product := sale.ProductName
		if product == "" {
			product = "Unknown Product"
		}
		productSales[product] += sale.Amount
		categorySales[sale.Category] += sale.Amount
	}

	topProduct := topEntry(productSales)
	topCategory := topEntry(categorySales)

	var growthRate float64
	if timeframe == TimeframeLastQuarter {
		growthRate = halfOverHalfGrowth(sales)
	}

	var keyInsights []models.StorySection
	for _, in := range insights {
		if in.Priority == "High" {
			keyInsights = append(keyInsights, models.StorySection{
				Title:   "Key Insight",
				Content: in.Title,
			})
			if len(keyInsights) == 3 {
				break
			}
		}
	}

	reviewKind := "Annual"
	if timeframe == TimeframeLastQuarter {
		reviewKind = "Quarterly"
	}

	growthHighlight := fmt.Sprintf("Your sales grew by %.1f%% compared to the previous period.", growthRate)
	if growthRate < 0 {
		growthHighlight = fmt.Sprintf("Your sales decreased by %.1f%% compared to the previous period.", -growthRate)
	}

	momentum := "shows positive momentum"
	if growthRate < 0 {
		momentum = "faces some challenges"
	}

	story := &models.StoryData{
		Title: fmt.Sprintf("Business Performance %s Review", reviewKind),
		Summary: fmt.Sprintf("Your business generated $%.2f in revenue from %d sales to %d customers.",
			totalSales, len(sales), len(customers)),
		Highlights: []models.StorySection{
			{
				Title:   "Growth Overview",
				Content: growthHighlight,
			},
			{
				Title: "Top Performers",
				Content: fmt.Sprintf(
					"Your best-selling product was %q generating $%.2f in sales. The %q category was your highest performer, accounting for $%.2f in revenue.",
					topProduct.name, topProduct.value, topCategory.name, topCategory.value),
			},
		},
		Insights: keyInsights,
		Recommendations: []models.StorySection{
			{
				Title: "Marketing Focus",
				Content: fmt.Sprintf(
					"Consider increasing marketing efforts for your %q category, which is already performing well and could be further optimized.",
					topCategory.name),
			},
			{
				Title: "Inventory Management",
				Content: fmt.Sprintf(
					"Ensure you have sufficient stock of %q to meet customer demand, as it's your top-selling product.",
					topProduct.name),
			},
		},
		Conclusion: fmt.Sprintf(
			"Overall, your business %s that can be addressed with targeted strategies. Focus on your strengths in the %q category while addressing any declining areas with renewed marketing and inventory strategies.",
			momentum, topCategory.name),
	}

	s.logger.Info("story generated", map[string]interface{}{
		"timeframe":  timeframe,
		"salesCount": len(sales),
		"growthRate": growthRate,
	})

	return story, nil
}

type namedTotal struct {
	name  string
	value float64
}

// topEntry picks the highest-value key; name order breaks ties so the result
// is deterministic.
func topEntry(totals map[string]float64) namedTotal {
	top := namedTotal{name: "Unknown"}
	first := true
	for name, value := range totals {
		if first || value > top.value || (value == top.value && name < top.name) {
			top = namedTotal{name: name, value: value}
			first = false
		}
	}
	return top
}

// halfOverHalfGrowth splits the date-ascending history in two and compares
// the halves, the simplified quarter comparison the dashboard used.
func halfOverHalfGrowth(sales []models.Sale) float64 {
	if len(sales) == 0 {
		return 0
	}

	halfway := len(sales) / 2
	var firstHalf, secondHalf float64
	for i, sale := range sales {
		if i < halfway {
			firstHalf += sale.Amount
		} else {
			secondHalf += sale.Amount
		}
	}

	if firstHalf <= 0 {
		return 0
	}
	return (secondHalf - firstHalf) / firstHalf * 100
}
