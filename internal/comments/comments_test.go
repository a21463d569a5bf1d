package comments

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-platform/internal/apperr"
	"video-platform/internal/database"
	"video-platform/internal/identity"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"trimmed", "  hello  ", "hello", false},
		{"empty", "", "", true},
		{"whitespace only", " \n\t ", "", true},
		{"at limit", strings.Repeat("a", MaxTextLength), strings.Repeat("a", MaxTextLength), false},
		{"over limit", strings.Repeat("a", MaxTextLength+1), "", true},
		{"multibyte counted as characters", strings.Repeat("é", MaxTextLength), strings.Repeat("é", MaxTextLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cleanText(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func setupService(t *testing.T) *Service {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping SQLite integration test in short mode")
	}

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "comments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.CreateVideo(context.Background(), &database.Video{
		ID: "v1", OwnerID: "owner", Title: "t", VideoKey: "videos/v1.mp4", ThumbnailKey: "thumbnails/v1.jpg",
	}))
	return New(db)
}

func TestIntegration_CommentsAndReplies(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	alice := identity.Identity{UserID: "alice"}
	bob := identity.Identity{UserID: "bob"}

	_, err := s.Add(ctx, "v1", identity.Identity{}, "hi")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = s.Add(ctx, "missing", alice, "hi")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	c, err := s.Add(ctx, "v1", alice, "  first  ")
	require.NoError(t, err)
	assert.Equal(t, "first", c.Text)

	_, err = s.Reply(ctx, "nope", bob, "reply")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.Reply(ctx, c.ID, bob, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	for _, text := range []string{"one", "two", "three"} {
		_, err := s.Reply(ctx, c.ID, bob, text)
		require.NoError(t, err)
	}
	updated, err := s.Reply(ctx, c.ID, alice, "four")
	require.NoError(t, err)
	require.Len(t, updated.Replies, 4)
	for i, want := range []string{"one", "two", "three", "four"} {
		assert.Equal(t, want, updated.Replies[i].Text)
	}

	list, err := s.List(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Replies, 4)
}

func TestIntegration_DeleteAuthorization(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	alice := identity.Identity{UserID: "alice"}

	c, err := s.Add(ctx, "v1", alice, "mine")
	require.NoError(t, err)
	_, err = s.Reply(ctx, c.ID, identity.Identity{UserID: "bob"}, "reply")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(ctx, c.ID, identity.Identity{UserID: "bob"}), apperr.ErrForbidden)
	assert.ErrorIs(t, s.Delete(ctx, c.ID, identity.Identity{UserID: "owner"}), apperr.ErrForbidden,
		"video owner is not the comment author")

	require.NoError(t, s.Delete(ctx, c.ID, identity.Identity{UserID: "root", Admin: true}))
	assert.ErrorIs(t, s.Delete(ctx, c.ID, alice), apperr.ErrNotFound)

	list, err := s.List(ctx, "v1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
