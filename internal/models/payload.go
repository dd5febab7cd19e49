// internal/models/payload.go
package models

// PayloadType discriminates the response union. Exactly one data shape is
// valid per type; unknown and error carry a message instead of data.
type PayloadType string

const (
	PayloadSummary   PayloadType = "summary"
	PayloadSales     PayloadType = "sales"
	PayloadTrend     PayloadType = "trend"
	PayloadCustomers PayloadType = "customers"
	PayloadInsights  PayloadType = "insights"
	PayloadStory     PayloadType = "story"
	PayloadUnknown   PayloadType = "unknown"
	PayloadError     PayloadType = "error"
)

// Payload is the tagged response produced for one query. Data holds the
// type-specific shape below; Summary is the human-readable one-liner.
type Payload struct {
	Type    PayloadType `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Summary string      `json:"summary,omitempty"`
	Message string      `json:"message,omitempty"`
}

// SummaryData is the aggregate shape for total sales/revenue queries.
type SummaryData struct {
	Total    string `json:"total"`
	Count    int    `json:"count"`
	Currency string `json:"currency"`
	Metric   string `json:"metric"`
}

// SaleEntry is one row of a sales payload. Product and Category are omitted
// on branches that do not carry them (per-day aggregation).
type SaleEntry struct {
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	Product  string  `json:"product,omitempty"`
	Category string  `json:"category,omitempty"`
}

// TrendPoint is one period of a monthly trend series.
type TrendPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// CustomerEntry is one row of a customers payload.
type CustomerEntry struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Joined     string `json:"joined,omitempty"`
	LastActive string `json:"lastActive,omitempty"`
}

// InsightEntry is one row of an insights payload.
type InsightEntry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Priority    string `json:"priority"`
}

// StorySection is a titled block inside a business story.
type StorySection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// StoryData is the structured narrative produced by the story generator.
type StoryData struct {
	Title           string         `json:"title"`
	Summary         string         `json:"summary"`
	Highlights      []StorySection `json:"highlights"`
	Insights        []StorySection `json:"insights"`
	Recommendations []StorySection `json:"recommendations"`
	Conclusion      string         `json:"conclusion"`
}
