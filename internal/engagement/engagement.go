package engagement

import (
	"context"
	"errors"
	"strings"
	"time"

	"video-platform/internal/apperr"
	"video-platform/internal/database"
	"video-platform/internal/identity"
	"video-platform/internal/logging"
	"video-platform/internal/metrics"
)

var log = logging.For("engagement")

// Action is what a user asks for: like or dislike.
type Action string

const (
	ActionLike    Action = "like"
	ActionDislike Action = "dislike"
)

// ParseAction validates a client-supplied action.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionLike, ActionDislike:
		return a, nil
	}
	return "", apperr.Validation("action must be %q or %q", ActionLike, ActionDislike)
}

// Next returns the membership state after applying action to current.
// Repeating the current state's action toggles back to neutral.
//
//	current   like      dislike
//	neutral   liked     disliked
//	liked     neutral   disliked
//	disliked  liked     neutral
func Next(current database.Rating, action Action) database.Rating {
	want := database.RatingLike
	if action == ActionDislike {
		want = database.RatingDislike
	}
	if current == want {
		return database.RatingNone
	}
	return want
}

// Store applies a rating transition atomically.
type Store interface {
	ApplyRating(ctx context.Context, subject database.Subject, subjectID, userID string, next func(database.Rating) database.Rating) (*database.RatingResult, error)
	GetRatingMembers(ctx context.Context, subject database.Subject, subjectID string) (*database.RatingMembers, error)
	GetRating(ctx context.Context, subject database.Subject, subjectID, userID string) (database.Rating, error)
}

// Ledger rates videos and comments through the same transition table.
type Ledger struct {
	store    Store
	attempts int
	backoff  time.Duration
}

// NewLedger returns a ledger over store. Transactions that lose a lock race
// are retried a few times before ErrConflict reaches the caller.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, attempts: 3, backoff: 20 * time.Millisecond}
}

// Rate applies action by requester to the subject and returns the new counts
// together with the requester's own membership.
func (l *Ledger) Rate(ctx context.Context, subject database.Subject, subjectID string, requester identity.Identity, action Action) (*database.RatingResult, error) {
	if requester.Anonymous() {
		return nil, apperr.Forbidden("rate")
	}
	if action != ActionLike && action != ActionDislike {
		return nil, apperr.Validation("unknown action %q", action)
	}

	next := func(current database.Rating) database.Rating { return Next(current, action) }

	var result *database.RatingResult
	var err error
	for attempt := 1; attempt <= l.attempts; attempt++ {
		result, err = l.store.ApplyRating(ctx, subject, subjectID, requester.UserID, next)
		if !errors.Is(err, apperr.ErrConflict) || attempt == l.attempts {
			break
		}
		log.Debug("Rating %s %s conflicted (attempt %d/%d), retrying", subject, subjectID, attempt, l.attempts)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.backoff * time.Duration(attempt)):
		}
	}
	if err != nil {
		return nil, err
	}

	metrics.RatingsTotal.WithLabelValues(string(subject), string(action), state(result)).Inc()
	return result, nil
}

// RateVideo is Rate for a video.
func (l *Ledger) RateVideo(ctx context.Context, videoID string, requester identity.Identity, action Action) (*database.RatingResult, error) {
	return l.Rate(ctx, database.SubjectVideo, videoID, requester, action)
}

// RateComment is Rate for a comment.
func (l *Ledger) RateComment(ctx context.Context, commentID string, requester identity.Identity, action Action) (*database.RatingResult, error) {
	return l.Rate(ctx, database.SubjectComment, commentID, requester, action)
}

// Members returns who likes and dislikes a subject.
func (l *Ledger) Members(ctx context.Context, subject database.Subject, subjectID string) (*database.RatingMembers, error) {
	return l.store.GetRatingMembers(ctx, subject, subjectID)
}

// Summary lists who rated a subject. Mine is the requester's own state and is
// omitted for anonymous requesters.
type Summary struct {
	database.RatingMembers
	Mine string `json:"mine,omitempty"`
}

// Summarize returns the liked-by and disliked-by sets of a subject along with
// the requester's own rating.
func (l *Ledger) Summarize(ctx context.Context, subject database.Subject, subjectID string, requester identity.Identity) (*Summary, error) {
	members, err := l.Members(ctx, subject, subjectID)
	if err != nil {
		return nil, err
	}
	sum := &Summary{RatingMembers: *members}
	if requester.Anonymous() {
		return sum, nil
	}
	mine, err := l.store.GetRating(ctx, subject, subjectID, requester.UserID)
	if err != nil {
		return nil, err
	}
	sum.Mine = mine.String()
	return sum, nil
}

func state(r *database.RatingResult) string {
	switch {
	case r.Liked:
		return database.RatingLike.String()
	case r.Disliked:
		return database.RatingDislike.String()
	default:
		return database.RatingNone.String()
	}
}
