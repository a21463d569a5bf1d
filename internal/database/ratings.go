package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"video-platform/internal/apperr"
)

// ApplyRating reads the user's current rating of a subject, asks next for the
// target state and writes the membership row and both counters in one
// transaction. Counters are clamped at zero.
func (d *Database) ApplyRating(ctx context.Context, subject Subject, subjectID, userID string, next func(current Rating) Rating) (*RatingResult, error) {
	tables, ok := subjects[subject]
	if !ok {
		return nil, apperr.Validation("unknown rating subject %q", subject)
	}

	result := &RatingResult{}
	err := d.withTx(ctx, "apply_rating_"+string(subject), func(tx *sql.Tx) error {
		exists, err := rowExists(ctx, tx, tables.subject, subjectID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound(string(subject), subjectID)
		}

		current := RatingNone
		err = tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT rating FROM %s WHERE %s = ? AND user_id = ?", tables.ratings, tables.fk),
			subjectID, userID).Scan(&current)
		if err != nil && err != sql.ErrNoRows {
			return err
		}

		target := next(current)
		if target != current {
			if err := writeMembership(ctx, tx, tables, subjectID, userID, target, d.clock.Now()); err != nil {
				return err
			}

			likeDelta, dislikeDelta := countDeltas(current, target)
			_, err = tx.ExecContext(ctx,
				fmt.Sprintf(`UPDATE %s SET likes = MAX(0, likes + ?), dislikes = MAX(0, dislikes + ?) WHERE id = ?`, tables.subject),
				likeDelta, dislikeDelta, subjectID)
			if err != nil {
				return err
			}
		}

		err = tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT likes, dislikes FROM %s WHERE id = ?", tables.subject),
			subjectID).Scan(&result.Likes, &result.Dislikes)
		if err != nil {
			return err
		}
		result.Liked = target == RatingLike
		result.Disliked = target == RatingDislike
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func writeMembership(ctx context.Context, tx *sql.Tx, tables subjectTables, subjectID, userID string, target Rating, now time.Time) error {
	if target == RatingNone {
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND user_id = ?", tables.ratings, tables.fk),
			subjectID, userID)
		return err
	}

	_, err := tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, user_id, rating, created_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(%s, user_id) DO UPDATE SET rating = excluded.rating`,
			tables.ratings, tables.fk, tables.fk),
		subjectID, userID, int(target), toMillis(now))
	return err
}

// countDeltas returns the counter changes for moving from one state to another.
func countDeltas(from, to Rating) (likes, dislikes int) {
	switch from {
	case RatingLike:
		likes--
	case RatingDislike:
		dislikes--
	}
	switch to {
	case RatingLike:
		likes++
	case RatingDislike:
		dislikes++
	}
	return likes, dislikes
}

// GetRating returns a user's current rating of a subject.
func (d *Database) GetRating(ctx context.Context, subject Subject, subjectID, userID string) (Rating, error) {
	tables, ok := subjects[subject]
	if !ok {
		return RatingNone, apperr.Validation("unknown rating subject %q", subject)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var r Rating
	err := d.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT rating FROM %s WHERE %s = ? AND user_id = ?", tables.ratings, tables.fk),
		subjectID, userID).Scan(&r)
	if err == sql.ErrNoRows {
		return RatingNone, nil
	}
	return r, err
}

// GetRatingMembers returns the liked-by and disliked-by sets of a subject,
// each sorted by user id.
func (d *Database) GetRatingMembers(ctx context.Context, subject Subject, subjectID string) (*RatingMembers, error) {
	tables, ok := subjects[subject]
	if !ok {
		return nil, apperr.Validation("unknown rating subject %q", subject)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		fmt.Sprintf("SELECT user_id, rating FROM %s WHERE %s = ? ORDER BY user_id", tables.ratings, tables.fk),
		subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := &RatingMembers{LikedBy: []string{}, DislikedBy: []string{}}
	for rows.Next() {
		var userID string
		var r Rating
		if err := rows.Scan(&userID, &r); err != nil {
			return nil, err
		}
		if r == RatingLike {
			members.LikedBy = append(members.LikedBy, userID)
		} else {
			members.DislikedBy = append(members.DislikedBy, userID)
		}
	}
	return members, rows.Err()
}
