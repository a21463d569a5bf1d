package database

import (
	"context"
	"database/sql"
	"time"

	"video-platform/internal/apperr"
)

// RecordView inserts a view record for (videoID, viewer) unless a live one
// already exists, and increments the video's counter when it does insert.
// A record older than retention is treated as expired and replaced. The
// primary key on (video_id, viewer) makes the insert an atomic
// insert-if-absent, so concurrent callers count at most one view.
func (d *Database) RecordView(ctx context.Context, videoID, viewer string, at time.Time, retention time.Duration) (bool, error) {
	var inserted bool
	err := d.withTx(ctx, "record_view", func(tx *sql.Tx) error {
		exists, err := rowExists(ctx, tx, "videos", videoID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("video", videoID)
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM views WHERE video_id = ? AND viewer = ? AND viewed_at <= ?",
			videoID, viewer, toMillis(at.Add(-retention))); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO views (video_id, viewer, viewed_at) VALUES (?, ?, ?)
			ON CONFLICT(video_id, viewer) DO NOTHING
		`, videoID, viewer, toMillis(at))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, "UPDATE videos SET views = views + 1 WHERE id = ?", videoID); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	return inserted, err
}

// HasRecentView reports whether a view record for (videoID, viewer) newer
// than since exists.
func (d *Database) HasRecentView(ctx context.Context, videoID, viewer string, since time.Time) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("has_recent_view", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var found bool
	err = d.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM views WHERE video_id = ? AND viewer = ? AND viewed_at > ?)",
		videoID, viewer, toMillis(since)).Scan(&found)
	return found, err
}

// PurgeViews deletes view records at or before cutoff and returns how many
// were removed.
func (d *Database) PurgeViews(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := d.withTx(ctx, "purge_views", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM views WHERE viewed_at <= ?", toMillis(cutoff))
		if err != nil {
			return err
		}
		purged, err = res.RowsAffected()
		return err
	})
	return purged, err
}
