// internal/server/server_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-assistant/internal/analytics"
	"analytics-assistant/internal/common/logger"
	"analytics-assistant/internal/common/observability"
	"analytics-assistant/internal/models"
)

type stubQuerier struct {
	payload  *models.Payload
	lastSeen string
}

func (s *stubQuerier) Query(ctx context.Context, utterance string) *models.Payload {
	s.lastSeen = utterance
	return s.payload
}

type stubPinger struct{ err error }

func (s *stubPinger) Ping(ctx context.Context) error { return s.err }

type stubSource struct {
	history  []models.Sale
	insights []models.Insight
	inserted []models.Insight
	err      error
}

func (s *stubSource) RecentSales(ctx context.Context) ([]models.Sale, error) {
	return s.history, s.err
}

func (s *stubSource) SalesHistory(ctx context.Context) ([]models.Sale, error) {
	return s.history, s.err
}

func (s *stubSource) RecentCustomers(ctx context.Context) ([]models.Customer, error) {
	return nil, s.err
}

func (s *stubSource) AllInsights(ctx context.Context) ([]models.Insight, error) {
	return s.insights, s.err
}

func (s *stubSource) InsertInsights(ctx context.Context, insights []models.Insight) error {
	s.inserted = append(s.inserted, insights...)
	return s.err
}

func newTestServer(t *testing.T, q Querier, source *stubSource, db, cache Pinger) *Server {
	t.Helper()
	if source == nil {
		source = &stubSource{}
	}
	log := logger.NewNoOpLogger()
	svc := analytics.New(source, log)
	obs := observability.New("assistant-server-test")
	t.Cleanup(obs.Shutdown)
	return New(q, svc, db, cache, obs, time.Second, log)
}

func TestHandleQuery(t *testing.T) {
	q := &stubQuerier{payload: &models.Payload{
		Type:    models.PayloadSummary,
		Data:    models.SummaryData{Total: "350.00", Count: 2, Currency: "USD", Metric: "Revenue"},
		Summary: "Total revenue: $350.00",
	}}
	srv := newTestServer(t, q, nil, nil, nil)

	body := bytes.NewBufferString(`{"query": "show me total revenue"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/query", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "show me total revenue", q.lastSeen)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got models.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.PayloadSummary, got.Type)
	assert.Equal(t, "Total revenue: $350.00", got.Summary)
}

func TestHandleQuery_InvalidBody(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{payload: &models.Payload{Type: models.PayloadUnknown}}, nil, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"missing query", `{}`},
		{"empty query", `{"query": ""}`},
		{"wrong type", `{"query": 42}`},
		{"extra fields", `{"query": "sales", "verbose": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleQuery_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{payload: &models.Payload{Type: models.PayloadUnknown}}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/query", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleAnalytics(t *testing.T) {
	source := &stubSource{history: []models.Sale{
		{TransactionDate: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), Amount: 100, Category: "Electronics"},
		{TransactionDate: time.Date(2023, 2, 5, 0, 0, 0, 0, time.UTC), Amount: 50, Category: "Accessories"},
	}}
	srv := newTestServer(t, &stubQuerier{payload: &models.Payload{Type: models.PayloadUnknown}}, source, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var overview analytics.Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	assert.Equal(t, 150.0, overview.TotalSales)
	assert.Len(t, overview.CategoriesData, 2)
	assert.Len(t, overview.MonthlySalesData, 2)
}

func TestHandleAnalytics_SourceError(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	srv := newTestServer(t, &stubQuerier{payload: &models.Payload{Type: models.PayloadUnknown}}, source, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleStory(t *testing.T) {
	source := &stubSource{history: []models.Sale{
		{TransactionDate: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), Amount: 100, ProductName: "Laptop", Category: "Electronics"},
		{TransactionDate: time.Date(2023, 2, 5, 0, 0, 0, 0, time.UTC), Amount: 150, ProductName: "Laptop", Category: "Electronics"},
	}}
	srv := newTestServer(t, &stubQuerier{payload: &models.Payload{Type: models.PayloadUnknown}}, source, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/story", bytes.NewBufferString(`{"timeframe": "annual"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Type    models.PayloadType `json:"type"`
		Summary string             `json:"summary"`
		Data    models.StoryData   `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.PayloadStory, got.Type)
	assert.Equal(t, "Business Performance Annual Review", got.Data.Title)
	assert.Equal(t, got.Data.Summary, got.Summary)
}

func TestHandleStory_EmptyBodyDefaultsToQuarter(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{payload: &models.Payload{Type: models.PayloadUnknown}}, &stubSource{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/story", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Business Performance Quarterly Review")
}

func TestHandleStory_InvalidTimeframe(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{payload: &models.Payload{Type: models.PayloadUnknown}}, &stubSource{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/story", bytes.NewBufferString(`{"timeframe": "decade"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGenerateInsights(t *testing.T) {
	source := &stubSource{history: []models.Sale{
		{TransactionDate: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), Amount: 100, ProductName: "Laptop", Category: "Electronics"},
		{TransactionDate: time.Date(2023, 2, 5, 0, 0, 0, 0, time.UTC), Amount: 150, ProductName: "Laptop", Category: "Electronics"},
	}}
	srv := newTestServer(t, &stubQuerier{payload: &models.Payload{Type: models.PayloadUnknown}}, source, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/insights/generate", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Type    models.PayloadType    `json:"type"`
		Summary string                `json:"summary"`
		Data    []models.InsightEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.PayloadInsights, got.Type)
	assert.NotEmpty(t, got.Data)
	assert.Equal(t, fmt.Sprintf("Generated %d new insights.", len(got.Data)), got.Summary)

	// The batch reached the store.
	assert.Len(t, source.inserted, len(got.Data))
}

func TestHandleGenerateInsights_SourceError(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	srv := newTestServer(t, &stubQuerier{payload: &models.Payload{Type: models.PayloadUnknown}}, source, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/insights/generate", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		cache    Pinger
		wantCode int
	}{
		{"all healthy", &stubPinger{}, &stubPinger{}, http.StatusOK},
		{"postgres down", &stubPinger{err: errors.New("down")}, &stubPinger{}, http.StatusServiceUnavailable},
		{"redis down", &stubPinger{}, &stubPinger{err: errors.New("down")}, http.StatusServiceUnavailable},
		{"no backends wired", nil, nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubQuerier{payload: &models.Payload{Type: models.PayloadUnknown}}, nil, tt.db, tt.cache)

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{payload: &models.Payload{Type: models.PayloadUnknown}}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
