// Package store reads and writes the llm_telemetry table.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"opsgate/internal/telemetry/models"
)

// ErrSchemaMissing is returned when llm_telemetry has not been migrated.
var ErrSchemaMissing = errors.New("llm_telemetry table missing")

// PostgresStore queries llm_telemetry.
//
// Sums are returned as the text rendering of the NUMERIC result so the
// caller can reject values that do not parse as finite numbers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var windowStart = map[models.Window]string{
	models.WindowToday: "date_trunc('day', now())",
	models.WindowMonth: "date_trunc('month', now())",
}

func (s *PostgresStore) SumCost(ctx context.Context, w models.Window) (string, error) {
	start, ok := windowStart[w]
	if !ok {
		return "", fmt.Errorf("unknown window %q", w)
	}
	query := `SELECT COALESCE(SUM(cost_usd), 0)::text FROM llm_telemetry WHERE created_at >= ` + start

	var total string
	if err := s.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return "", fmt.Errorf("sum cost for %s: %w", w, classify(err))
	}
	return total, nil
}

func (s *PostgresStore) SumTagged(ctx context.Context, tag models.Tag) (string, error) {
	var total string
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(cost_usd), 0)::text
		FROM llm_telemetry
		WHERE source = $1 OR endpoint = $2
	`, tag.Source, tag.Endpoint).Scan(&total)
	if err != nil {
		return "", fmt.Errorf("sum tagged cost: %w", classify(err))
	}
	return total, nil
}

func (s *PostgresStore) DailyUsage(ctx context.Context) (models.DailyUsage, error) {
	var usage models.DailyUsage
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(tokens_total), 0), COUNT(*)
		FROM llm_telemetry
		WHERE created_at >= date_trunc('day', now())
	`).Scan(&usage.Tokens, &usage.Requests)
	if err != nil {
		return models.DailyUsage{}, fmt.Errorf("daily usage: %w", classify(err))
	}
	return usage, nil
}

// MostUsedModel returns "" when no row in the window names a model.
func (s *PostgresStore) MostUsedModel(ctx context.Context, w models.Window) (string, error) {
	start, ok := windowStart[w]
	if !ok {
		return "", fmt.Errorf("unknown window %q", w)
	}
	query := `
		SELECT model FROM llm_telemetry
		WHERE created_at >= ` + start + ` AND model <> ''
		GROUP BY model
		ORDER BY COUNT(*) DESC, model
		LIMIT 1`

	var model string
	err := s.db.QueryRowContext(ctx, query).Scan(&model)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("most used model: %w", classify(err))
	}
	return model, nil
}

func (s *PostgresStore) Insert(ctx context.Context, u models.Usage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_telemetry (id, source, endpoint, operation, model, agent, tokens_total, cost_usd)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric)
	`, uuid.New(), u.Source, u.Endpoint, u.Operation, u.Model, u.Agent, u.Tokens,
		strconv.FormatFloat(u.CostUSD, 'f', -1, 64))
	if err != nil {
		return fmt.Errorf("insert telemetry: %w", classify(err))
	}
	return nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("%w: %s", ErrSchemaMissing, pgErr.Message)
	}
	return err
}
