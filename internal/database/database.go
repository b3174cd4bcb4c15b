package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// DB is the photo index database.
type DB struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the photo index at dbPath. The parent directory
// must already exist and be writable; startup.LoadConfig validates that.
func New(ctx context.Context, dbPath string) (*DB, error) {
	logging.Info("Photo index path: %s", dbPath)

	// WAL mode with a busy timeout keeps concurrent request handlers from
	// tripping over "database is locked" errors.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo index: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close photo index after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to photo index: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &DB{db: db, path: dbPath}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close photo index after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize photo index schema: %w", err)
	}

	logging.Info("Photo index initialized at %s", dbPath)
	return d, nil
}

func (d *DB) initialize(ctx context.Context) error {
	start := time.Now()
	schema := `
	CREATE TABLE IF NOT EXISTS photos (
		name TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mod_time INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		format TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_photos_mod_time ON photos(mod_time);
	`

	_, err := d.db.ExecContext(ctx, schema)
	recordQuery("initialize_schema", start, err)
	return err
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// recordQuery records database query metrics.
func recordQuery(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
