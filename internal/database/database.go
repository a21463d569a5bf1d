package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-sqlite3"

	"video-platform/internal/apperr"
	"video-platform/internal/logging"
	"video-platform/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database manages all persistent state of the video platform.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
	clock  clockwork.Clock
}

// Option configures a Database.
type Option func(*Database)

// WithClock sets the clock used for created/updated timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(d *Database) {
		d.clock = c
	}
}

// New creates a new Database instance.
// IMPORTANT: dbPath should be the full path to the database FILE (e.g., "/data/video-platform.db"),
// and the parent directory must already exist and be writable.
// Use startup.LoadConfig() to ensure proper directory validation before calling this.
func New(ctx context.Context, dbPath string, opts ...Option) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	// Diagnose potential permission issues
	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// WAL for concurrent readers; busy_timeout helps prevent "database is locked" errors.
	// _txlock=immediate takes the write lock at BEGIN so read-modify-write
	// transactions cannot deadlock on lock upgrade.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	-- Videos. Counters are denormalized from the rating and view tables and
	-- only ever change inside the transaction that changes those rows.
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		visibility TEXT NOT NULL DEFAULT 'public' CHECK (visibility IN ('public', 'private', 'unlisted')),
		status TEXT NOT NULL DEFAULT 'processing' CHECK (status IN ('processing', 'completed', 'failed')),
		video_key TEXT NOT NULL,
		transcoded_key TEXT NOT NULL DEFAULT '',
		thumbnail_key TEXT NOT NULL,
		views INTEGER NOT NULL DEFAULT 0 CHECK (views >= 0),
		likes INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
		dislikes INTEGER NOT NULL DEFAULT 0 CHECK (dislikes >= 0),
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_videos_owner ON videos(owner_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_videos_visibility ON videos(visibility, created_at);

	-- Rating membership: one row per (subject, user); rating is 1 (like) or -1 (dislike)
	CREATE TABLE IF NOT EXISTS video_ratings (
		video_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating IN (1, -1)),
		created_at INTEGER NOT NULL,
		PRIMARY KEY (video_id, user_id),
		FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE
	);

	-- Comments
	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		text TEXT NOT NULL,
		likes INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
		dislikes INTEGER NOT NULL DEFAULT 0 CHECK (dislikes >= 0),
		created_at INTEGER NOT NULL,
		FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_comments_video ON comments(video_id, created_at);

	CREATE TABLE IF NOT EXISTS comment_ratings (
		comment_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating IN (1, -1)),
		created_at INTEGER NOT NULL,
		PRIMARY KEY (comment_id, user_id),
		FOREIGN KEY (comment_id) REFERENCES comments(id) ON DELETE CASCADE
	);

	-- Replies are append-only; rowid keeps insertion order
	CREATE TABLE IF NOT EXISTS replies (
		id TEXT NOT NULL UNIQUE,
		comment_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (comment_id) REFERENCES comments(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_replies_comment ON replies(comment_id);

	-- Durable view ledger: at most one live row per (video, viewer)
	CREATE TABLE IF NOT EXISTS views (
		video_id TEXT NOT NULL,
		viewer TEXT NOT NULL,
		viewed_at INTEGER NOT NULL,
		PRIMARY KEY (video_id, viewer),
		FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_views_viewed_at ON views(viewed_at);
	`

	_, err := d.db.ExecContext(ctx, schema)
	if err != nil {
		return err
	}

	// Run migrations
	return d.runMigrations(ctx)
}

// runMigrations applies database schema migrations
func (d *Database) runMigrations(ctx context.Context) error {
	// Migration 1: failure cause recorded next to the failed status
	var columnExists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('videos')
		WHERE name='status_detail'
	`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check for status_detail column: %w", err)
	}

	if !columnExists {
		logging.Info("Migrating database: adding status_detail column to videos table")

		_, err = d.db.ExecContext(ctx, `
			ALTER TABLE videos ADD COLUMN status_detail TEXT NOT NULL DEFAULT ''
		`)
		if err != nil {
			return fmt.Errorf("failed to add status_detail column: %w", err)
		}

		logging.Info("Migration complete: status_detail column added")
	}

	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping verifies that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// withTx runs fn in a write transaction. The transaction is committed when fn
// returns nil and rolled back otherwise. SQLite busy and locked errors are
// reported as apperr.ErrConflict.
func (d *Database) withTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) (err error) {
	start := time.Now()
	defer func() { recordQuery(operation, start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return translateError(err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(start).Seconds())
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.Error("failed to rollback %s: %v", operation, rbErr)
		}
	}()

	if err = fn(tx); err != nil {
		return translateError(err)
	}
	if err = tx.Commit(); err != nil {
		return translateError(err)
	}
	committed = true
	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(time.Since(start).Seconds())
	return nil
}

// translateError maps SQLite lock contention onto apperr.ErrConflict so that
// callers can retry. Other errors pass through unchanged.
func translateError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return fmt.Errorf("%w: %v", apperr.ErrConflict, err)
		}
	}
	return err
}

// rowExists reports whether table has a row with the given id.
func rowExists(ctx context.Context, tx *sql.Tx, table, id string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM "+table+" WHERE id = ?)", id).Scan(&exists)
	return exists, err
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	// Check if directory is writable by testing
	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile) // Explicitly ignore cleanup error
	logging.Debug("Database directory is writable")

	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", p, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("%s is read-only! Mode: %v - this will cause write failures", p, info.Mode())
		if p == dbPath {
			continue
		}
		// Try to fix it
		if chmodErr := os.Chmod(p, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", p, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", p)
		}
	}

	return nil
}
