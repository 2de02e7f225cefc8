// Package db reads and clears alert rows in the high_risk_flows relation.
package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"alert-service/internal/config"
	"alert-service/internal/models"
)

const alertTable = "high_risk_flows"

var (
	// ErrNotFound is returned by GetAlert when no row has the requested id.
	ErrNotFound = errors.New("db: alert not found")

	ErrUnsupportedDriver = errors.New("db: unsupported database driver")

	// ErrSchemaMismatch means high_risk_flows lacks one of the declared columns.
	ErrSchemaMismatch = errors.New("db: alert table schema mismatch")
)

// Store is the alert relation as seen by the HTTP layer. Each method
// acquires its own connection and releases it before returning.
type Store interface {
	Ping(ctx context.Context) error
	ListAlerts(ctx context.Context, limit, offset int) ([]models.Alert, error)
	GetAlert(ctx context.Context, id int64) (models.Alert, error)
	Stats(ctx context.Context) (models.AlertStats, error)
	// ClearAlerts deletes every row and resets the id sequence in one
	// transaction, returning the number of rows removed.
	ClearAlerts(ctx context.Context) (int64, error)
	Close() error
}

// New opens the store selected by cfg.Driver and validates its schema.
func New(ctx context.Context, cfg config.DBConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (models.Alert, error) {
	var a models.Alert
	err := row.Scan(
		&a.ID,
		&a.SrcIP,
		&a.DstIP,
		&a.SrcPort,
		&a.DstPort,
		&a.Proto,
		&a.Score,
		&a.Timestamp,
	)
	return a, err
}

// checkColumns compares the columns found on the table with the declared ones.
func checkColumns(found []string) error {
	have := make(map[string]bool, len(found))
	for _, c := range found {
		have[strings.ToLower(c)] = true
	}
	var missing []string
	for _, c := range models.AlertColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s missing columns %v", ErrSchemaMismatch, alertTable, missing)
	}
	return nil
}

// roundScore rounds the exact binary value to 4 decimals, ties to even,
// so 0.03125 becomes 0.0312 rather than 0.0313.
func roundScore(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 4, 64), 64)
	if err != nil {
		return v
	}
	return r
}
