// internal/analytics/service_test.go
package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-assistant/internal/common/logger"
	"analytics-assistant/internal/models"
)

type fakeSource struct {
	history   []models.Sale
	insights  []models.Insight
	err       error
	insertErr error
	inserted  []models.Insight
}

func (f *fakeSource) RecentSales(ctx context.Context) ([]models.Sale, error) {
	return f.history, f.err
}

func (f *fakeSource) SalesHistory(ctx context.Context) ([]models.Sale, error) {
	return f.history, f.err
}

func (f *fakeSource) RecentCustomers(ctx context.Context) ([]models.Customer, error) {
	return nil, f.err
}

func (f *fakeSource) AllInsights(ctx context.Context) ([]models.Insight, error) {
	return f.insights, f.err
}

func (f *fakeSource) InsertInsights(ctx context.Context, insights []models.Insight) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, insights...)
	return nil
}

func sale(month time.Month, amount float64, product, category, customerID string) models.Sale {
	s := models.Sale{
		TransactionDate: time.Date(2023, month, 10, 0, 0, 0, 0, time.UTC),
		Amount:          amount,
		ProductName:     product,
		Category:        category,
	}
	if customerID != "" {
		s.CustomerID = &customerID
	}
	return s
}

func TestGetOverview(t *testing.T) {
	svc := New(&fakeSource{history: []models.Sale{
		sale(time.February, 150, "Laptop", "Electronics", "c1"),
		sale(time.January, 100, "Laptop", "Electronics", "c1"),
		sale(time.January, 50, "Desk", "Office Equipment", "c2"),
	}}, logger.NewNoOpLogger())

	overview, err := svc.GetOverview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 300.0, overview.TotalSales)
	assert.Equal(t, []CategoryTotal{
		{Name: "Electronics", Value: 250},
		{Name: "Office Equipment", Value: 50},
	}, overview.CategoriesData)
	assert.Equal(t, []MonthlyTotal{
		{Date: "2023-01", Value: 150},
		{Date: "2023-02", Value: 150},
	}, overview.MonthlySalesData)
}

func TestGetOverview_SourceError(t *testing.T) {
	wantErr := errors.New("connection refused")
	svc := New(&fakeSource{err: wantErr}, logger.NewNoOpLogger())

	_, err := svc.GetOverview(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestGenerateStory(t *testing.T) {
	svc := New(&fakeSource{
		history: []models.Sale{
			sale(time.January, 100, "Laptop", "Electronics", "c1"),
			sale(time.February, 200, "Laptop", "Electronics", "c1"),
			sale(time.March, 50, "Desk", "Office Equipment", "c2"),
			sale(time.April, 150, "Monitor", "Electronics", ""),
		},
		insights: []models.Insight{
			{Title: "First", Priority: "High"},
			{Title: "Skipped", Priority: "high"},
			{Title: "Second", Priority: "High"},
			{Title: "Third", Priority: "High"},
			{Title: "Fourth", Priority: "High"},
		},
	}, logger.NewNoOpLogger())

	story, err := svc.GenerateStory(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "Business Performance Quarterly Review", story.Title)
	assert.Equal(t, "Your business generated $500.00 in revenue from 4 sales to 2 customers.", story.Summary)

	require.Len(t, story.Highlights, 2)
	// First half 300, second half 200: a 33.3% decline.
	assert.Equal(t, "Growth Overview", story.Highlights[0].Title)
	assert.Equal(t, "Your sales decreased by 33.3% compared to the previous period.", story.Highlights[0].Content)
	assert.Contains(t, story.Highlights[1].Content, `"Laptop" generating $300.00`)
	assert.Contains(t, story.Highlights[1].Content, `The "Electronics" category`)

	// Exactly "High" priority counts, capped at three, order preserved.
	require.Len(t, story.Insights, 3)
	assert.Equal(t, "First", story.Insights[0].Content)
	assert.Equal(t, "Second", story.Insights[1].Content)
	assert.Equal(t, "Third", story.Insights[2].Content)

	require.Len(t, story.Recommendations, 2)
	assert.Contains(t, story.Recommendations[0].Content, `"Electronics" category`)
	assert.Contains(t, story.Recommendations[1].Content, `"Laptop"`)

	assert.Contains(t, story.Conclusion, "faces some challenges")
}

func TestGenerateStory_AnnualTimeframe(t *testing.T) {
	svc := New(&fakeSource{history: []models.Sale{
		sale(time.January, 100, "Laptop", "Electronics", "c1"),
		sale(time.June, 150, "Laptop", "Electronics", "c1"),
	}}, logger.NewNoOpLogger())

	story, err := svc.GenerateStory(context.Background(), "annual")
	require.NoError(t, err)

	assert.Equal(t, "Business Performance Annual Review", story.Title)
	// The growth comparison is quarter-over-quarter; annual reviews report 0.
	assert.Equal(t, "Your sales grew by 0.0% compared to the previous period.", story.Highlights[0].Content)
	assert.Contains(t, story.Conclusion, "shows positive momentum")
}

func TestGenerateStory_EmptyHistory(t *testing.T) {
	svc := New(&fakeSource{}, logger.NewNoOpLogger())

	story, err := svc.GenerateStory(context.Background(), TimeframeLastQuarter)
	require.NoError(t, err)

	assert.Equal(t, "Your business generated $0.00 in revenue from 0 sales to 0 customers.", story.Summary)
	assert.Equal(t, "Your sales grew by 0.0% compared to the previous period.", story.Highlights[0].Content)
	assert.Contains(t, story.Highlights[1].Content, `"Unknown"`)
	assert.Empty(t, story.Insights)
}

func TestGenerateStory_MissingProductName(t *testing.T) {
	svc := New(&fakeSource{history: []models.Sale{
		sale(time.January, 100, "", "Electronics", "c1"),
	}}, logger.NewNoOpLogger())

	story, err := svc.GenerateStory(context.Background(), TimeframeLastQuarter)
	require.NoError(t, err)

	assert.Contains(t, story.Highlights[1].Content, `"Unknown Product"`)
}

func TestTopEntry_TieBreaksByName(t *testing.T) {
	top := topEntry(map[string]float64{"Zebra": 100, "Apple": 100, "Mango": 50})
	assert.Equal(t, "Apple", top.name)
	assert.Equal(t, 100.0, top.value)
}

func TestHalfOverHalfGrowth(t *testing.T) {
	tests := []struct {
		name    string
		amounts []float64
		want    float64
	}{
		{"empty", nil, 0},
		{"single sale lands in second half", []float64{100}, 0},
		{"even split growth", []float64{100, 100, 150, 150}, 50},
		{"decline", []float64{200, 100}, -50},
		{"flat", []float64{100, 100}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sales []models.Sale
			for _, a := range tt.amounts {
				sales = append(sales, models.Sale{Amount: a})
			}
			assert.InDelta(t, tt.want, halfOverHalfGrowth(sales), 0.0001)
		})
	}
}
