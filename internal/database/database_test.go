package database

import (
	"errors"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"

	"video-platform/internal/apperr"
)

// TestRecordQuery tests the recordQuery helper function.
func TestRecordQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		operation string
		err       error
	}{
		{name: "successful query", operation: "test_operation"},
		{name: "failed query", operation: "test_operation", err: errors.New("test error")},
		{name: "empty operation name", operation: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// Should not panic
			recordQuery(tt.operation, time.Now(), tt.err)
		})
	}
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantConflict bool
	}{
		{name: "busy", err: sqlite3.Error{Code: sqlite3.ErrBusy}, wantConflict: true},
		{name: "locked", err: sqlite3.Error{Code: sqlite3.ErrLocked}, wantConflict: true},
		{name: "constraint", err: sqlite3.Error{Code: sqlite3.ErrConstraint}},
		{name: "not found passes through", err: apperr.NotFound("video", "x")},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			if errors.Is(got, apperr.ErrConflict) != tt.wantConflict {
				t.Errorf("translateError(%v) = %v, conflict want %v", tt.err, got, tt.wantConflict)
			}
			if !tt.wantConflict && got != tt.err {
				t.Errorf("translateError(%v) changed a non-contention error to %v", tt.err, got)
			}
		})
	}
}

func TestCountDeltas(t *testing.T) {
	tests := []struct {
		from, to              Rating
		wantLike, wantDislike int
	}{
		{RatingNone, RatingLike, 1, 0},
		{RatingNone, RatingDislike, 0, 1},
		{RatingLike, RatingNone, -1, 0},
		{RatingLike, RatingDislike, -1, 1},
		{RatingDislike, RatingLike, 1, -1},
		{RatingDislike, RatingNone, 0, -1},
		{RatingLike, RatingLike, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			likes, dislikes := countDeltas(tt.from, tt.to)
			if likes != tt.wantLike || dislikes != tt.wantDislike {
				t.Errorf("countDeltas(%v, %v) = (%d, %d), want (%d, %d)",
					tt.from, tt.to, likes, dislikes, tt.wantLike, tt.wantDislike)
			}
		})
	}
}

func TestVisibilityValid(t *testing.T) {
	for _, v := range []Visibility{VisibilityPublic, VisibilityPrivate, VisibilityUnlisted} {
		if !v.Valid() {
			t.Errorf("%q should be valid", v)
		}
	}
	for _, v := range []Visibility{"", "secret", "PUBLIC"} {
		if v.Valid() {
			t.Errorf("%q should be invalid", v)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusProcessing.Terminal() {
		t.Error("processing must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Error("completed and failed must be terminal")
	}
}

func TestPlaybackKey(t *testing.T) {
	tests := []struct {
		name  string
		video Video
		want  string
	}{
		{
			name:  "processing serves raw",
			video: Video{Status: StatusProcessing, VideoKey: "videos/a.mov"},
			want:  "videos/a.mov",
		},
		{
			name:  "failed serves raw",
			video: Video{Status: StatusFailed, VideoKey: "videos/a.mov"},
			want:  "videos/a.mov",
		},
		{
			name:  "completed serves rendition",
			video: Video{Status: StatusCompleted, VideoKey: "videos/a.mov", TranscodedKey: "videos/a_480p.mp4"},
			want:  "videos/a_480p.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.video.PlaybackKey(); got != tt.want {
				t.Errorf("PlaybackKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMillisRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 15, 123_000_000, time.UTC)
	if got := fromMillis(toMillis(ts)); !got.Equal(ts) {
		t.Errorf("fromMillis(toMillis(%v)) = %v", ts, got)
	}
}
