package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"alert-service/internal/models"
)

// timestamp is returned in its text form so both stores yield the same shape.
var pgSelectColumns = strings.Replace(
	strings.Join(models.AlertColumns, ", "), "timestamp", "timestamp::text", 1)

var (
	pgListQuery = `
	SELECT ` + pgSelectColumns + `
	FROM ` + alertTable + `
	ORDER BY ` + alertTable + `.timestamp DESC, ` + alertTable + `.id DESC
	LIMIT $1 OFFSET $2`

	pgGetQuery = `
	SELECT ` + pgSelectColumns + `
	FROM ` + alertTable + `
	WHERE id = $1`
)

// PostgresStore reads alerts from a PostgreSQL database through a pgx pool.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	s := &PostgresStore{Pool: pool}
	if err := s.validateSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) validateSchema(ctx context.Context) error {
	rows, err := s.Pool.Query(ctx, `
	SELECT column_name
	FROM information_schema.columns
	WHERE table_name = $1 AND table_schema = ANY (current_schemas(false))`, alertTable)
	if err != nil {
		return fmt.Errorf("failed to read %s schema: %w", alertTable, err)
	}
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to read %s schema: %w", alertTable, err)
	}
	return checkColumns(cols)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	var one int
	if err := conn.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("liveness query failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAlerts(ctx context.Context, limit, offset int) ([]models.Alert, error) {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, pgListQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	return alerts, nil
}

func (s *PostgresStore) GetAlert(ctx context.Context, id int64) (models.Alert, error) {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return models.Alert{}, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	a, err := scanAlert(conn.QueryRow(ctx, pgGetQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Alert{}, ErrNotFound
		}
		return models.Alert{}, fmt.Errorf("failed to get alert %d: %w", id, err)
	}
	return a, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (models.AlertStats, error) {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return models.AlertStats{}, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	var stats models.AlertStats
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+alertTable).Scan(&stats.TotalAlerts); err != nil {
		return models.AlertStats{}, fmt.Errorf("failed to count alerts: %w", err)
	}

	var maxScore, avgScore *float64
	if err := conn.QueryRow(ctx, "SELECT MAX(score)::float8 FROM "+alertTable).Scan(&maxScore); err != nil {
		return models.AlertStats{}, fmt.Errorf("failed to get max score: %w", err)
	}
	if err := conn.QueryRow(ctx, "SELECT AVG(score)::float8 FROM "+alertTable).Scan(&avgScore); err != nil {
		return models.AlertStats{}, fmt.Errorf("failed to get average score: %w", err)
	}

	if maxScore != nil {
		stats.MaxScore = roundScore(*maxScore)
	}
	if avgScore != nil {
		stats.AvgScore = roundScore(*avgScore)
	}
	return stats, nil
}

func (s *PostgresStore) ClearAlerts(ctx context.Context) (int64, error) {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "DELETE FROM "+alertTable)
	if err != nil {
		return 0, fmt.Errorf("failed to delete alerts: %w", err)
	}

	// setval on a NULL sequence is a no-op when id is not serial.
	_, err = tx.Exec(ctx,
		`SELECT setval(pg_get_serial_sequence($1, 'id'), 1, false)`, alertTable)
	if err != nil {
		return 0, fmt.Errorf("failed to reset alert sequence: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit clear: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}
