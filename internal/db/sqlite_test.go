package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert-service/internal/models"
)

const createAlertTable = `
CREATE TABLE high_risk_flows (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	src_ip TEXT NOT NULL,
	dst_ip TEXT NOT NULL,
	src_port INTEGER NOT NULL,
	dst_port INTEGER NOT NULL,
	proto TEXT NOT NULL,
	score REAL NOT NULL,
	timestamp TEXT NOT NULL
)`

// seedFile creates a SQLite file with the given DDL and returns its path
// together with a raw handle playing the role of the ingestion process.
func seedFile(t *testing.T, ddl string) (string, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alerts.db")
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	_, err = raw.Exec(ddl)
	require.NoError(t, err)
	return path, raw
}

func insertAlert(t *testing.T, raw *sql.DB, a models.Alert) int64 {
	t.Helper()
	res, err := raw.Exec(
		`INSERT INTO high_risk_flows (src_ip, dst_ip, src_port, dst_port, proto, score, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.SrcIP, a.DstIP, a.SrcPort, a.DstPort, a.Proto, a.Score, a.Timestamp,
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func sample(ts string, score float64) models.Alert {
	return models.Alert{
		SrcIP:     "10.0.0.5",
		DstIP:     "192.168.1.20",
		SrcPort:   51234,
		DstPort:   443,
		Proto:     "TCP",
		Score:     score,
		Timestamp: ts,
	}
}

func openTestStore(t *testing.T) (*SQLiteStore, *sql.DB) {
	t.Helper()
	path, raw := seedFile(t, createAlertTable)
	store, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, raw
}

func TestSQLite_Ping(t *testing.T) {
	store, _ := openTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestSQLite_GetAlert_RoundTrip(t *testing.T) {
	store, raw := openTestStore(t)
	want := models.Alert{
		SrcIP:     "fe80::1",
		DstIP:     "8.8.8.8",
		SrcPort:   5353,
		DstPort:   53,
		Proto:     "UDP",
		Score:     0.87654321,
		Timestamp: "2025-01-02T03:04:05.123456",
	}
	want.ID = insertAlert(t, raw, want)

	got, err := store.GetAlert(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLite_GetAlert_TimestampKeepsStoredForm(t *testing.T) {
	path, raw := seedFile(t, `
	CREATE TABLE high_risk_flows (
		id INTEGER PRIMARY KEY AUTOINCREMENT, src_ip TEXT, dst_ip TEXT, src_port INTEGER,
		dst_port INTEGER, proto TEXT, score REAL, timestamp DATETIME
	)`)
	tests := []struct {
		name   string
		stored any
		want   string
	}{
		{name: "datetime text", stored: "2025-01-02 03:04:05", want: "2025-01-02 03:04:05"},
		{name: "iso with fraction", stored: "2025-01-02T03:04:05.123456", want: "2025-01-02T03:04:05.123456"},
		{name: "real epoch", stored: 1700000000.25, want: "1700000000.25"},
		{name: "integer epoch", stored: int64(1700000000), want: "1700000000"},
	}
	ids := make([]int64, len(tests))
	for i, tt := range tests {
		res, err := raw.Exec(
			`INSERT INTO high_risk_flows (src_ip, dst_ip, src_port, dst_port, proto, score, timestamp)
			 VALUES ('10.0.0.1', '10.0.0.2', 1, 2, 'TCP', 0.5, ?)`, tt.stored)
		require.NoError(t, err)
		ids[i], err = res.LastInsertId()
		require.NoError(t, err)
	}

	store, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer store.Close()

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetAlert(context.Background(), ids[i])
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Timestamp)
		})
	}

	alerts, err := store.ListAlerts(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, alerts, len(tests))
	for _, a := range alerts {
		assert.NotContains(t, a.Timestamp, "e+09")
		assert.NotContains(t, a.Timestamp, "Z")
	}
}

func TestSQLite_GetAlert_NotFound(t *testing.T) {
	store, raw := openTestStore(t)
	insertAlert(t, raw, sample("2025-01-01T00:00:00", 0.5))

	_, err := store.GetAlert(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListAlerts_NewestFirst(t *testing.T) {
	store, raw := openTestStore(t)
	id1 := insertAlert(t, raw, sample("2025-01-01T00:00:01", 0.1))
	id2 := insertAlert(t, raw, sample("2025-01-01T00:00:02", 0.2))
	id3 := insertAlert(t, raw, sample("2025-01-01T00:00:03", 0.3))

	alerts, err := store.ListAlerts(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, id3, alerts[0].ID)
	assert.Equal(t, id2, alerts[1].ID)

	alerts, err = store.ListAlerts(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, id1, alerts[0].ID)
}

func TestSQLite_ListAlerts_TieBreakByID(t *testing.T) {
	store, raw := openTestStore(t)
	a := insertAlert(t, raw, sample("2025-01-01T00:00:00", 0.1))
	b := insertAlert(t, raw, sample("2025-01-01T00:00:00", 0.2))

	alerts, err := store.ListAlerts(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, []int64{b, a}, []int64{alerts[0].ID, alerts[1].ID})
}

func TestSQLite_ListAlerts_EmptyIsNotNil(t *testing.T) {
	store, _ := openTestStore(t)

	alerts, err := store.ListAlerts(context.Background(), 50, 0)
	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestSQLite_Stats(t *testing.T) {
	store, raw := openTestStore(t)
	insertAlert(t, raw, sample("2025-01-01T00:00:01", 0.12345))
	insertAlert(t, raw, sample("2025-01-01T00:00:02", 0.5))
	insertAlert(t, raw, sample("2025-01-01T00:00:03", 0.99999))

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalAlerts)
	assert.InDelta(t, 1.0, stats.MaxScore, 1e-9)
	assert.InDelta(t, 0.5411, stats.AvgScore, 1e-9)
}

func TestSQLite_Stats_Empty(t *testing.T) {
	store, _ := openTestStore(t)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AlertStats{TotalAlerts: 0, MaxScore: 0.0, AvgScore: 0.0}, stats)
}

func TestSQLite_ClearAlerts_Idempotent(t *testing.T) {
	store, raw := openTestStore(t)
	for i := 0; i < 4; i++ {
		insertAlert(t, raw, sample(fmt.Sprintf("2025-01-01T00:00:0%d", i), 0.4))
	}
	ctx := context.Background()

	deleted, err := store.ClearAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	deleted, err = store.ClearAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	alerts, err := store.ListAlerts(ctx, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestSQLite_ClearAlerts_ResetsSequence(t *testing.T) {
	store, raw := openTestStore(t)
	insertAlert(t, raw, sample("2025-01-01T00:00:01", 0.1))
	insertAlert(t, raw, sample("2025-01-01T00:00:02", 0.2))

	_, err := store.ClearAlerts(context.Background())
	require.NoError(t, err)

	id := insertAlert(t, raw, sample("2025-01-01T00:00:03", 0.3))
	assert.Equal(t, int64(1), id)
}

func TestSQLite_ClearAlerts_WithoutAutoincrement(t *testing.T) {
	path, raw := seedFile(t, `
	CREATE TABLE high_risk_flows (
		id INTEGER PRIMARY KEY, src_ip TEXT, dst_ip TEXT, src_port INTEGER,
		dst_port INTEGER, proto TEXT, score REAL, timestamp TEXT
	)`)
	insertAlert(t, raw, sample("2025-01-01T00:00:01", 0.1))

	store, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer store.Close()

	deleted, err := store.ClearAlerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestSQLite_ClearAlerts_ConcurrentListSeesWholeState(t *testing.T) {
	store, raw := openTestStore(t)
	const rows = 25
	for i := 0; i < rows; i++ {
		insertAlert(t, raw, sample(fmt.Sprintf("2025-01-01T00:00:%02d", i), 0.5))
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	sizes := make(chan int, 20)
	errs := make(chan error, 21)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			alerts, err := store.ListAlerts(ctx, 100, 0)
			if err != nil {
				errs <- err
				return
			}
			sizes <- len(alerts)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := store.ClearAlerts(ctx); err != nil {
			errs <- err
		}
	}()
	wg.Wait()
	close(sizes)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	for n := range sizes {
		assert.True(t, n == rows || n == 0, "observed torn listing of %d rows", n)
	}
}

func TestOpenSQLite_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name string
		ddl  string
	}{
		{
			name: "missing columns",
			ddl:  `CREATE TABLE high_risk_flows (id INTEGER PRIMARY KEY, src_ip TEXT, dst_ip TEXT)`,
		},
		{
			name: "missing table",
			ddl:  `CREATE TABLE other (id INTEGER PRIMARY KEY)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, _ := seedFile(t, tt.ddl)

			_, err := OpenSQLite(context.Background(), path)
			assert.ErrorIs(t, err, ErrSchemaMismatch)
			assert.Contains(t, err.Error(), "score")
		})
	}
}

func TestSQLite_ClosedStoreFails(t *testing.T) {
	path, _ := seedFile(t, createAlertTable)
	store, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.Error(t, store.Ping(context.Background()))
	_, err = store.ListAlerts(context.Background(), 10, 0)
	assert.Error(t, err)
	_, err = store.GetAlert(context.Background(), 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
