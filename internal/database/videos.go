package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	"video-platform/internal/apperr"
)

// CreateVideo inserts a new video. ID, OwnerID, Title, VideoKey and
// ThumbnailKey must be set; Status defaults to processing and Visibility to
// public. CreatedAt and UpdatedAt are filled in.
func (d *Database) CreateVideo(ctx context.Context, v *Video) error {
	if v.Status == "" {
		v.Status = StatusProcessing
	}
	if v.Visibility == "" {
		v.Visibility = VisibilityPublic
	}
	if !v.Visibility.Valid() {
		return apperr.Validation("unknown visibility %q", v.Visibility)
	}

	now := d.clock.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	return d.withTx(ctx, "create_video", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO videos (id, owner_id, title, description, visibility, status,
				video_key, thumbnail_key, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, v.ID, v.OwnerID, v.Title, v.Description, v.Visibility, v.Status,
			v.VideoKey, v.ThumbnailKey, toMillis(now), toMillis(now))
		return err
	})
}

// GetVideo retrieves a video by id.
func (d *Database) GetVideo(ctx context.Context, id string) (*Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_video", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row videoRow
	err = sqlscan.Get(ctx, d.db, &row, "SELECT "+videoColumns+" FROM videos WHERE id = ?", id)
	if sqlscan.NotFound(err) {
		err = nil
		return nil, apperr.NotFound("video", id)
	}
	if err != nil {
		return nil, err
	}
	return row.toVideo(), nil
}

// GetVideoStatus returns only the processing state of a video.
func (d *Database) GetVideoStatus(ctx context.Context, id string) (VideoStatus, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var status string
	err := d.db.QueryRowContext(ctx, "SELECT status FROM videos WHERE id = ?", id).Scan(&status)
	if err == sql.ErrNoRows {
		return "", apperr.NotFound("video", id)
	}
	if err != nil {
		return "", err
	}
	return VideoStatus(status), nil
}

// ListVideos returns public videos, newest first.
func (d *Database) ListVideos(ctx context.Context, limit, offset int) ([]*Video, error) {
	return d.selectVideos(ctx, "list_videos", `
		SELECT `+videoColumns+` FROM videos
		WHERE visibility = 'public'
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
}

// ListChannelVideos returns the videos of one owner, newest first. Private and
// unlisted videos are included only when includeHidden is true.
func (d *Database) ListChannelVideos(ctx context.Context, ownerID string, includeHidden bool) ([]*Video, error) {
	return d.selectVideos(ctx, "list_channel_videos", `
		SELECT `+videoColumns+` FROM videos
		WHERE owner_id = ? AND (? OR visibility = 'public')
		ORDER BY created_at DESC, id
	`, ownerID, includeHidden)
}

// ListVideosByStatus returns every video in status, oldest first.
func (d *Database) ListVideosByStatus(ctx context.Context, status VideoStatus) ([]*Video, error) {
	return d.selectVideos(ctx, "list_videos_by_status", `
		SELECT `+videoColumns+` FROM videos
		WHERE status = ?
		ORDER BY created_at, id
	`, string(status))
}

func (d *Database) selectVideos(ctx context.Context, operation, query string, args ...interface{}) ([]*Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(operation, start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []*videoRow
	if err = sqlscan.Select(ctx, d.db, &rows, query, args...); err != nil {
		return nil, err
	}

	videos := make([]*Video, 0, len(rows))
	for _, r := range rows {
		videos = append(videos, r.toVideo())
	}
	return videos, nil
}

// TransitionStatus moves a processing video to a terminal status in a single
// conditional update. It returns false without error when the video already
// left processing, which makes repeated completion callbacks no-ops.
func (d *Database) TransitionStatus(ctx context.Context, id string, to VideoStatus, transcodedKey, detail string) (bool, error) {
	if !to.Terminal() {
		return false, apperr.Validation("invalid target status %q", to)
	}

	var changed bool
	err := d.withTx(ctx, "transition_status", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE videos
			SET status = ?, transcoded_key = ?, status_detail = ?, updated_at = ?
			WHERE id = ? AND status = 'processing'
		`, to, transcodedKey, detail, toMillis(d.clock.Now()), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 1 {
			changed = true
			return nil
		}

		exists, err := rowExists(ctx, tx, "videos", id)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("video", id)
		}
		return nil
	})
	return changed, err
}

// ReplaceThumbnail swaps the thumbnail key and returns the previous one.
func (d *Database) ReplaceThumbnail(ctx context.Context, id, thumbnailKey string) (string, error) {
	var old string
	err := d.withTx(ctx, "replace_thumbnail", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "SELECT thumbnail_key FROM videos WHERE id = ?", id).Scan(&old)
		if err == sql.ErrNoRows {
			return apperr.NotFound("video", id)
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE videos SET thumbnail_key = ?, updated_at = ? WHERE id = ?",
			thumbnailKey, toMillis(d.clock.Now()), id)
		return err
	})
	return old, err
}

// VideoDetails holds the user-editable fields of a video. Nil fields are left
// unchanged.
type VideoDetails struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Visibility  *Visibility `json:"visibility,omitempty"`
}

// UpdateVideoDetails applies details and returns the updated video.
func (d *Database) UpdateVideoDetails(ctx context.Context, id string, details VideoDetails) (*Video, error) {
	if details.Visibility != nil && !details.Visibility.Valid() {
		return nil, apperr.Validation("unknown visibility %q", *details.Visibility)
	}

	err := d.withTx(ctx, "update_video", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE videos SET
				title = COALESCE(?, title),
				description = COALESCE(?, description),
				visibility = COALESCE(?, visibility),
				updated_at = ?
			WHERE id = ?
		`, details.Title, details.Description, details.Visibility, toMillis(d.clock.Now()), id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("video", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d.GetVideo(ctx, id)
}

// DeleteVideo removes a video and, through foreign keys, its ratings, views,
// comments and replies. The deleted record is returned so the caller can
// clean up media files.
func (d *Database) DeleteVideo(ctx context.Context, id string) (*Video, error) {
	var deleted *Video
	err := d.withTx(ctx, "delete_video", func(tx *sql.Tx) error {
		var row videoRow
		err := sqlscan.Get(ctx, tx, &row, "SELECT "+videoColumns+" FROM videos WHERE id = ?", id)
		if sqlscan.NotFound(err) {
			return apperr.NotFound("video", id)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id); err != nil {
			return err
		}
		deleted = row.toVideo()
		return nil
	})
	return deleted, err
}

// IncrementViews adds one to a video's view counter. Used by view ledgers
// that keep their records outside SQLite.
func (d *Database) IncrementViews(ctx context.Context, id string) error {
	return d.withTx(ctx, "increment_views", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE videos SET views = views + 1 WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("video", id)
		}
		return nil
	})
}
