// internal/models/records.go
package models

import "time"

// Sale is a single sales transaction row.
// A NULL amount in storage is normalized to 0 at the scan boundary.
type Sale struct {
	ID              string    `json:"id"`
	TransactionDate time.Time `json:"transactionDate"`
	Amount          float64   `json:"amount"`
	ProductName     string    `json:"productName"`
	Category        string    `json:"category"`
	CustomerID      *string   `json:"customerId,omitempty"`
}

// Customer is a customer account row.
type Customer struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastActive *time.Time `json:"lastActive,omitempty"`
}

// Insight is a generated business insight row. Priority is a free string
// (High/Medium/Low), not an enum; filtering compares case-insensitively.
type Insight struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
}
