package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"alert-service/internal/models"
)

// The cast keeps DATETIME and REAL timestamps in their stored form; the
// driver would otherwise hand back time.Time or a float.
var sqliteSelectColumns = strings.Replace(
	strings.Join(models.AlertColumns, ", "), "timestamp", "CAST(timestamp AS TEXT)", 1)

var (
	sqliteListQuery = `
	SELECT ` + sqliteSelectColumns + `
	FROM ` + alertTable + `
	ORDER BY ` + alertTable + `.timestamp DESC, ` + alertTable + `.id DESC
	LIMIT ? OFFSET ?`

	sqliteGetQuery = `
	SELECT ` + sqliteSelectColumns + `
	FROM ` + alertTable + `
	WHERE id = ?`
)

// SQLiteStore reads alerts from a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the file at path. The file must already hold high_risk_flows.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	s := &SQLiteStore{db: conn}
	if err := s.validateSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) validateSchema(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, alertTable)
	if err != nil {
		return fmt.Errorf("failed to read %s schema: %w", alertTable, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan column name: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read %s schema: %w", alertTable, err)
	}
	return checkColumns(cols)
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	var one int
	if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("liveness query failed: %w", err)
	}
	return nil
}

// ListAlerts returns alerts newest first, ties broken by id descending.
func (s *SQLiteStore) ListAlerts(ctx context.Context, limit, offset int) ([]models.Alert, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, sqliteListQuery, limit, offset)
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

func (s *SQLiteStore) GetAlert(ctx context.Context, id int64) (models.Alert, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return models.Alert{}, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	a, err := scanAlert(conn.QueryRowContext(ctx, sqliteGetQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Alert{}, ErrNotFound
		}
		return models.Alert{}, fmt.Errorf("failed to get alert %d: %w", id, err)
	}
	return a, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (models.AlertStats, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return models.AlertStats{}, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	var stats models.AlertStats
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+alertTable).Scan(&stats.TotalAlerts); err != nil {
		return models.AlertStats{}, fmt.Errorf("failed to count alerts: %w", err)
	}

	var maxScore, avgScore sql.NullFloat64
	if err := conn.QueryRowContext(ctx, "SELECT MAX(score) FROM "+alertTable).Scan(&maxScore); err != nil {
		return models.AlertStats{}, fmt.Errorf("failed to get max score: %w", err)
	}
	if err := conn.QueryRowContext(ctx, "SELECT AVG(score) FROM "+alertTable).Scan(&avgScore); err != nil {
		return models.AlertStats{}, fmt.Errorf("failed to get average score: %w", err)
	}

	// Empty table yields NULL aggregates, reported as 0.
	stats.MaxScore = roundScore(maxScore.Float64)
	stats.AvgScore = roundScore(avgScore.Float64)
	return stats, nil
}

func (s *SQLiteStore) ClearAlerts(ctx context.Context) (int64, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM "+alertTable)
	if err != nil {
		return 0, fmt.Errorf("failed to delete alerts: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted alerts: %w", err)
	}

	// sqlite_sequence only exists once an AUTOINCREMENT table has been written.
	var seqTables int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'`,
	).Scan(&seqTables)
	if err != nil {
		return 0, fmt.Errorf("failed to look up sqlite_sequence: %w", err)
	}
	if seqTables > 0 {
		if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", alertTable); err != nil {
			return 0, fmt.Errorf("failed to reset alert sequence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit clear: %w", err)
	}
	return deleted, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
