// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"analytics-assistant/internal/analytics"
	"analytics-assistant/internal/common/logger"
	"analytics-assistant/internal/common/observability"
	"analytics-assistant/internal/common/validation"
	"analytics-assistant/internal/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 16

// queryRequestSchema validates POST /api/query bodies.
var queryRequestSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"query": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
	},
	"required":             []string{"query"},
	"additionalProperties": false,
}

// storyRequestSchema validates POST /api/story bodies.
var storyRequestSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"timeframe": map[string]interface{}{
			"type": "string",
			"enum": []string{"last-quarter", "annual"},
		},
	},
	"additionalProperties": false,
}

// Querier is the interpreter contract the HTTP layer drives.
type Querier interface {
	Query(ctx context.Context, utterance string) *models.Payload
}

// Pinger is a health-checkable backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	interpreter  Querier
	analytics    *analytics.Service
	db           Pinger
	cache        Pinger
	obs          *observability.Observability
	logger       logger.Logger
	queryTimeout time.Duration
	httpServer   *http.Server
}

func New(q Querier, svc *analytics.Service, db, cache Pinger, obs *observability.Observability, queryTimeout time.Duration, log logger.Logger) *Server {
	return &Server{
		interpreter:  q,
		analytics:    svc,
		db:           db,
		cache:        cache,
		obs:          obs,
		queryTimeout: queryTimeout,
		logger: log.With(map[string]interface{}{
			"component": "server",
		}),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("POST /api/story", s.handleStory)
	mux.HandleFunc("POST /api/insights/generate", s.handleGenerateInsights)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe(addr string, readTimeout, writeTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	result, err := validation.ValidateJSON(queryRequestSchema, body)
	if err != nil || !result.Valid {
		s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "invalid request",
			"detail": validationDetail(result),
		})
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	start := time.Now()
	payload := s.interpreter.Query(ctx, req.Query)
	s.obs.RecordQueryProcessed(ctx, string(payload.Type))
	s.obs.RecordQueryDuration(ctx, time.Since(start), string(payload.Type))

	s.logger.Info("query handled", map[string]interface{}{
		"requestId":   requestID,
		"payloadType": string(payload.Type),
		"durationMs":  time.Since(start).Milliseconds(),
	})

	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	overview, err := s.analytics.GetOverview(ctx)
	if err != nil {
		s.logger.Error("analytics overview failed", map[string]interface{}{
			"error": err.Error(),
		})
		s.writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}

	s.writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	timeframe := analytics.TimeframeLastQuarter
	if len(body) > 0 {
		result, err := validation.ValidateJSON(storyRequestSchema, body)
		if err != nil || !result.Valid {
			s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  "invalid request",
				"detail": validationDetail(result),
			})
			return
		}
		var req struct {
			Timeframe string `json:"timeframe"`
		}
		if err := json.Unmarshal(body, &req); err == nil && req.Timeframe != "" {
			timeframe = req.Timeframe
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	story, err := s.analytics.GenerateStory(ctx, timeframe)
	if err != nil {
		s.logger.Error("story generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		s.writeError(w, http.StatusInternalServerError, "failed to generate story")
		return
	}

	s.writeJSON(w, http.StatusOK, &models.Payload{
		Type:    models.PayloadStory,
		Data:    *story,
		Summary: story.Summary,
	})
}

func (s *Server) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	insights, err := s.analytics.GenerateInsights(ctx)
	if err != nil {
		s.logger.Error("insight generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		s.writeError(w, http.StatusInternalServerError, "failed to generate insights")
		return
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

	s.writeJSON(w, http.StatusOK, &models.Payload{
		Type:    models.PayloadInsights,
		Data:    entries,
		Summary: fmt.Sprintf("Generated %d new insights.", len(entries)),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{"postgres": "ok", "redis": "ok"}
	healthy := true

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			status["postgres"] = err.Error()
			healthy = false
		}
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			status["redis"] = err.Error()
			healthy = false
		}
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]string{"error": message})
}

func validationDetail(result *validation.ValidationResult) []validation.ValidationError {
	if result == nil {
		return nil
	}
	return result.Errors
}
