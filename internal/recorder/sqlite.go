package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"TokenChart/internal/model"
)

// SQLiteRecorder persists chart snapshots to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the refresher writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chart_snapshots (
			id                   TEXT PRIMARY KEY,
			timestamp            INTEGER NOT NULL,
			asset                TEXT NOT NULL,
			time_window          TEXT NOT NULL,
			state                TEXT NOT NULL,
			buckets              INTEGER,
			total_volume         REAL,
			total_trades         INTEGER,
			last_price           REAL,
			first_price          REAL,
			price_change         REAL,
			price_change_percent REAL,
			high                 REAL,
			low                  REAL,
			avg_price            REAL,
			is_last_known        INTEGER,
			error                TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_asset_ts ON chart_snapshots(asset, time_window, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(snap *ChartSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.RecordedAt.IsZero() {
		snap.RecordedAt = time.Now()
	}
	s := snap.Summary
	_, err := r.db.Exec(`INSERT INTO chart_snapshots
		(id, timestamp, asset, time_window, state, buckets,
		 total_volume, total_trades, last_price, first_price,
		 price_change, price_change_percent, high, low, avg_price,
		 is_last_known, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		snap.ID, snap.RecordedAt.UnixMilli(), snap.Asset, string(snap.Window), snap.State, snap.Buckets,
		s.TotalVolume, s.TotalTrades, s.LastPrice, s.FirstPrice,
		s.PriceChange, s.PriceChangePercent, s.High, s.Low, s.AvgPrice,
		s.IsLastKnown, snap.Error,
	)
	return err
}

// RecentSnapshots returns up to limit snapshots, newest first.
func (r *SQLiteRecorder) RecentSnapshots(asset string, window model.Window, limit int) ([]ChartSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, state, buckets,
		total_volume, total_trades, last_price, first_price,
		price_change, price_change_percent, high, low, avg_price,
		is_last_known, error
		FROM chart_snapshots WHERE asset = ? AND time_window = ?
		ORDER BY timestamp DESC LIMIT ?`, asset, string(window), limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []ChartSnapshot
	for rows.Next() {
		snap := ChartSnapshot{Asset: asset, Window: window}
		var ts int64
		s := &snap.Summary
		if err := rows.Scan(&snap.ID, &ts, &snap.State, &snap.Buckets,
			&s.TotalVolume, &s.TotalTrades, &s.LastPrice, &s.FirstPrice,
			&s.PriceChange, &s.PriceChangePercent, &s.High, &s.Low, &s.AvgPrice,
			&s.IsLastKnown, &snap.Error); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.RecordedAt = time.UnixMilli(ts)
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
