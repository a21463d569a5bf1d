package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	"video-platform/internal/apperr"
)

const commentColumns = "id, video_id, author_id, text, likes, dislikes, created_at"

// CreateComment adds a top-level comment to an existing video. ID, VideoID,
// AuthorID and Text must be set; CreatedAt is filled in.
func (d *Database) CreateComment(ctx context.Context, c *Comment) error {
	c.CreatedAt = d.clock.Now().UTC()
	if c.Replies == nil {
		c.Replies = []Reply{}
	}

	return d.withTx(ctx, "create_comment", func(tx *sql.Tx) error {
		exists, err := rowExists(ctx, tx, "videos", c.VideoID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("video", c.VideoID)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO comments (id, video_id, author_id, text, created_at) VALUES (?, ?, ?, ?, ?)",
			c.ID, c.VideoID, c.AuthorID, c.Text, toMillis(c.CreatedAt))
		return err
	})
}

// GetComment retrieves a comment with its replies.
func (d *Database) GetComment(ctx context.Context, id string) (*Comment, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_comment", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row commentRow
	err = sqlscan.Get(ctx, d.db, &row, "SELECT "+commentColumns+" FROM comments WHERE id = ?", id)
	if sqlscan.NotFound(err) {
		err = nil
		return nil, apperr.NotFound("comment", id)
	}
	if err != nil {
		return nil, err
	}

	var replies []*replyRow
	err = sqlscan.Select(ctx, d.db, &replies, `
		SELECT id, comment_id, author_id, text, created_at FROM replies
		WHERE comment_id = ?
		ORDER BY rowid
	`, id)
	if err != nil {
		return nil, err
	}

	c := row.toComment()
	for _, r := range replies {
		c.Replies = append(c.Replies, r.toReply())
	}
	return &c, nil
}

// ListComments returns the comments of a video, newest first, each with its
// replies in insertion order.
func (d *Database) ListComments(ctx context.Context, videoID string) ([]Comment, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_comments", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []*commentRow
	err = sqlscan.Select(ctx, d.db, &rows, `
		SELECT `+commentColumns+` FROM comments
		WHERE video_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, videoID)
	if err != nil {
		return nil, err
	}

	var replies []*replyRow
	err = sqlscan.Select(ctx, d.db, &replies, `
		SELECT r.id, r.comment_id, r.author_id, r.text, r.created_at
		FROM replies r JOIN comments c ON c.id = r.comment_id
		WHERE c.video_id = ?
		ORDER BY r.rowid
	`, videoID)
	if err != nil {
		return nil, err
	}

	comments := make([]Comment, 0, len(rows))
	index := make(map[string]int, len(rows))
	for i, r := range rows {
		comments = append(comments, r.toComment())
		index[r.ID] = i
	}
	for _, r := range replies {
		if i, ok := index[r.CommentID]; ok {
			comments[i].Replies = append(comments[i].Replies, r.toReply())
		}
	}
	return comments, nil
}

// AddReply appends a reply to a comment and returns the updated comment.
// ID, AuthorID and Text of r must be set; CommentID and CreatedAt are filled in.
func (d *Database) AddReply(ctx context.Context, commentID string, r *Reply) (*Comment, error) {
	r.CommentID = commentID
	r.CreatedAt = d.clock.Now().UTC()

	err := d.withTx(ctx, "add_reply", func(tx *sql.Tx) error {
		exists, err := rowExists(ctx, tx, "comments", commentID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("comment", commentID)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO replies (id, comment_id, author_id, text, created_at) VALUES (?, ?, ?, ?, ?)",
			r.ID, commentID, r.AuthorID, r.Text, toMillis(r.CreatedAt))
		return err
	})
	if err != nil {
		return nil, err
	}
	return d.GetComment(ctx, commentID)
}

// DeleteComment removes a comment together with its replies and ratings.
func (d *Database) DeleteComment(ctx context.Context, id string) error {
	return d.withTx(ctx, "delete_comment", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("comment", id)
		}
		return nil
	})
}
