// internal/interpreter/interpreter.go
package interpreter

import (
	"context"
	"strings"
	"time"

	"analytics-assistant/internal/common/logger"
	"analytics-assistant/internal/models"
)

// DataSource is the read-only snapshot contract the interpreter consumes.
// Each method returns the ordered records one intent requires.
type DataSource interface {
	RecentSales(ctx context.Context) ([]models.Sale, error)
	SalesHistory(ctx context.Context) ([]models.Sale, error)
	RecentCustomers(ctx context.Context) ([]models.Customer, error)
	AllInsights(ctx context.Context) ([]models.Insight, error)
}

// Interpreter turns a free-text utterance and a data snapshot into a typed
// response payload. It holds no state across queries.
type Interpreter struct {
	source DataSource
	logger logger.Logger
	now    func() time.Time
}

func New(source DataSource, log logger.Logger) *Interpreter {
	return &Interpreter{
		source: source,
		logger: log.With(map[string]interface{}{
			"component": "interpreter",
		}),
		now: time.Now,
	}
}

// Query classifies the utterance, fetches the snapshot its intent requires
// and builds the response payload. It never returns a Go error: data-access
// failures map to the error payload and unclassifiable text to the unknown
// payload.
func (i *Interpreter) Query(ctx context.Context, utterance string) *models.Payload {
	intent := Classify(utterance)
	q := strings.ToLower(utterance)

	var payload *models.Payload
	switch intent {
	case IntentSales:
		sales, err := i.source.RecentSales(ctx)
		if err != nil {
			return i.errorPayload(intent, err)
		}
		payload = i.buildSales(q, sales)
	case IntentCustomers:
		customers, err := i.source.RecentCustomers(ctx)
		if err != nil {
			return i.errorPayload(intent, err)
		}
		payload = i.buildCustomers(q, customers)
	case IntentTrend:
		sales, err := i.source.SalesHistory(ctx)
		if err != nil {
			return i.errorPayload(intent, err)
		}
		payload = i.buildTrend(sales)
	case IntentInsights:
		insights, err := i.source.AllInsights(ctx)
		if err != nil {
			return i.errorPayload(intent, err)
		}
		payload = i.buildInsights(q, insights)
	default:
		return &models.Payload{
			Type:    models.PayloadUnknown,
			Message: unknownMessage,
		}
	}

	i.logger.Info("query processed", map[string]interface{}{
		"intent":      string(intent),
		"payloadType": string(payload.Type),
	})

	return payload
}

func (i *Interpreter) errorPayload(intent Intent, err error) *models.Payload {
	i.logger.Error("query failed", map[string]interface{}{
		"intent": string(intent),
		"error":  err.Error(),
	})
	return &models.Payload{
		Type:    models.PayloadError,
		Message: errorMessage,
	}
}
