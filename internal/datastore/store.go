// internal/datastore/store.go
package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"analytics-assistant/internal/common/logger"
	"analytics-assistant/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrQueryFailed = errors.New("QUERY_FAILED")

const (
	cacheKeyRecentSales     = "nlq:sales:recent"
	cacheKeySalesHistory    = "nlq:sales:history"
	cacheKeyRecentCustomers = "nlq:customers:recent"
	cacheKeyInsights        = "nlq:insights:all"
)

// Store fetches query snapshots from PostgreSQL with a Redis read-through
// cache. Cache failures are soft: a miss or a broken cache falls through to
// the database, and a failed write is only logged.
type Store struct {
	db          *sql.DB
	cache       *redis.Client
	cacheTTL    time.Duration
	recentLimit int
	logger      logger.Logger
}

func New(db *sql.DB, cache *redis.Client, cacheTTL time.Duration, recentLimit int, log logger.Logger) *Store {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	return &Store{
		db:          db,
		cache:       cache,
		cacheTTL:    cacheTTL,
		recentLimit: recentLimit,
		logger: log.With(map[string]interface{}{
			"component": "datastore",
		}),
	}
}

// RecentSales returns the latest sales, transaction date descending.
func (s *Store) RecentSales(ctx context.Context) ([]models.Sale, error) {
	var cached []models.Sale
	if s.cacheGet(ctx, cacheKeyRecentSales, &cached) {
		return cached, nil
	}

	query := `SELECT id, transaction_date, amount, product_name, category, customer_id
	          FROM sales ORDER BY transaction_date DESC LIMIT $1`
	sales, err := s.querySales(ctx, query, s.recentLimit)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKeyRecentSales, sales)
	return sales, nil
}

// SalesHistory returns every sale, transaction date ascending.
func (s *Store) SalesHistory(ctx context.Context) ([]models.Sale, error) {
	var cached []models.Sale
	if s.cacheGet(ctx, cacheKeySalesHistory, &cached) {
		return cached, nil
	}

	query := `SELECT id, transaction_date, amount, product_name, category, customer_id
	          FROM sales ORDER BY transaction_date ASC`
	sales, err := s.querySales(ctx, query)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKeySalesHistory, sales)
	return sales, nil
}

// RecentCustomers returns the latest customers, creation date descending.
func (s *Store) RecentCustomers(ctx context.Context) ([]models.Customer, error) {
	var cached []models.Customer
	if s.cacheGet(ctx, cacheKeyRecentCustomers, &cached) {
		return cached, nil
	}

	query := `SELECT id, name, email, created_at, last_active
	          FROM customers ORDER BY created_at DESC LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, s.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: customers: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		var lastActive sql.NullTime
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt, &lastActive); err != nil {
			return nil, fmt.Errorf("%w: customers scan: %v", ErrQueryFailed, err)
		}
		if lastActive.Valid {
			t := lastActive.Time
			c.LastActive = &t
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: customers rows: %v", ErrQueryFailed, err)
	}

	s.cacheSet(ctx, cacheKeyRecentCustomers, customers)
	return customers, nil
}

// AllInsights returns every insight, creation date descending.
func (s *Store) AllInsights(ctx context.Context) ([]models.Insight, error) {
	var cached []models.Insight
	if s.cacheGet(ctx, cacheKeyInsights, &cached) {
		return cached, nil
	}

	query := `SELECT id, title, description, category, priority, created_at
	          FROM insights ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: insights: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var insights []models.Insight
	for rows.Next() {
		var in models.Insight
		var category, priority sql.NullString
		if err := rows.Scan(&in.ID, &in.Title, &in.Description, &category, &priority, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: insights scan: %v", ErrQueryFailed, err)
		}
		in.Category = category.String
		in.Priority = priority.String
		insights = append(insights, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: insights rows: %v", ErrQueryFailed, err)
	}

	s.cacheSet(ctx, cacheKeyInsights, insights)
	return insights, nil
}

// InsertInsights stores a generated insight batch in one transaction and
// invalidates the insight cache so the next read sees the new rows.
func (s *Store) InsertInsights(ctx context.Context, insights []models.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: insights insert: %v", ErrQueryFailed, err)
	}

	query := `INSERT INTO insights (title, description, category, priority)
	          VALUES ($1, $2, $3, $4)`
	for _, in := range insights {
		if _, err := tx.ExecContext(ctx, query, in.Title, in.Description, in.Category, in.Priority); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: insights insert: %v", ErrQueryFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: insights insert: %v", ErrQueryFailed, err)
	}

	s.cacheInvalidate(ctx, cacheKeyInsights)
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) querySales(ctx context.Context, query string, args ...interface{}) ([]models.Sale, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: sales: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var sale models.Sale
		var amount sql.NullFloat64
		var product, category sql.NullString
		var customerID sql.NullString
		if err := rows.Scan(&sale.ID, &sale.TransactionDate, &amount, &product, &category, &customerID); err != nil {
			return nil, fmt.Errorf("%w: sales scan: %v", ErrQueryFailed, err)
		}
		// Missing amount defaults to 0 rather than poisoning aggregates.
		sale.Amount = amount.Float64
		sale.ProductName = product.String
		sale.Category = category.String
		if customerID.Valid {
			id := customerID.String
			sale.CustomerID = &id
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: sales rows: %v", ErrQueryFailed, err)
	}

	return sales, nil
}

func (s *Store) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	val, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (s *Store) cacheInvalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("cache invalidation failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *Store) cacheSet(ctx context.Context, key string, val interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
