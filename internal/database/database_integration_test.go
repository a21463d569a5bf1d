package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"video-platform/internal/apperr"
)

// Integration tests for database operations with real SQLite database

var testEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// setupTestDB creates a test database driven by a fake clock.
func setupTestDB(t testing.TB) (*Database, *clockwork.FakeClock) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping SQLite integration test in short mode")
	}

	clock := clockwork.NewFakeClockAt(testEpoch)
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := New(context.Background(), dbPath, WithClock(clock))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db, clock
}

func createTestVideo(t testing.TB, db *Database, id, owner string) *Video {
	t.Helper()

	v := &Video{
		ID:           id,
		OwnerID:      owner,
		Title:        "Video " + id,
		VideoKey:     "videos/" + id + ".mp4",
		ThumbnailKey: "thumbnails/" + id + ".jpg",
	}
	if err := db.CreateVideo(context.Background(), v); err != nil {
		t.Fatalf("CreateVideo(%s) failed: %v", id, err)
	}
	return v
}

func TestNewDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping SQLite integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}

	// Reopening runs migrations against an existing schema
	db2, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	db2.Close()
}

func TestCreateAndGetVideo(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	created := createTestVideo(t, db, "v1", "alice")
	if created.Status != StatusProcessing {
		t.Errorf("new video status = %q, want processing", created.Status)
	}

	got, err := db.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if got.OwnerID != "alice" || got.Title != "Video v1" || got.Visibility != VisibilityPublic {
		t.Errorf("GetVideo() = %+v", got)
	}
	if got.Status != StatusProcessing {
		t.Errorf("status = %q, want processing", got.Status)
	}
	if !got.CreatedAt.Equal(testEpoch) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, testEpoch)
	}

	status, err := db.GetVideoStatus(ctx, "v1")
	if err != nil || status != StatusProcessing {
		t.Errorf("GetVideoStatus() = %q, %v", status, err)
	}

	if _, err := db.GetVideo(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetVideo(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetVideoStatus(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetVideoStatus(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCreateVideoRejectsUnknownVisibility(t *testing.T) {
	db, _ := setupTestDB(t)

	err := db.CreateVideo(context.Background(), &Video{
		ID: "v1", OwnerID: "a", Title: "t", VideoKey: "k", ThumbnailKey: "t", Visibility: "secret",
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("CreateVideo() error = %v, want ErrValidation", err)
	}
}

func TestTransitionStatus(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")

	changed, err := db.TransitionStatus(ctx, "v1", StatusCompleted, "videos/v1_480p.mp4", "")
	if err != nil || !changed {
		t.Fatalf("TransitionStatus() = %v, %v; want true", changed, err)
	}

	// Second transition is a no-op, even to a different terminal state
	changed, err = db.TransitionStatus(ctx, "v1", StatusFailed, "", "late failure")
	if err != nil || changed {
		t.Errorf("second TransitionStatus() = %v, %v; want false, nil", changed, err)
	}

	v, _ := db.GetVideo(ctx, "v1")
	if v.Status != StatusCompleted || v.TranscodedKey != "videos/v1_480p.mp4" {
		t.Errorf("video after transitions = %+v", v)
	}

	if _, err := db.TransitionStatus(ctx, "missing", StatusFailed, "", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("TransitionStatus(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := db.TransitionStatus(ctx, "v1", StatusProcessing, "", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("TransitionStatus(processing) error = %v, want ErrValidation", err)
	}
}

func TestTransitionStatusFailedKeepsRawKey(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")

	if _, err := db.TransitionStatus(ctx, "v1", StatusFailed, "", "ffmpeg exited 1"); err != nil {
		t.Fatal(err)
	}
	v, _ := db.GetVideo(ctx, "v1")
	if v.Status != StatusFailed || v.StatusDetail != "ffmpeg exited 1" {
		t.Errorf("video = %+v", v)
	}
	if v.PlaybackKey() != "videos/v1.mp4" {
		t.Errorf("PlaybackKey() = %q, want raw upload", v.PlaybackKey())
	}
}

func TestListVideos(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()

	createTestVideo(t, db, "v1", "alice")
	clock.Advance(time.Minute)
	createTestVideo(t, db, "v2", "bob")
	clock.Advance(time.Minute)
	private := &Video{ID: "v3", OwnerID: "alice", Title: "p", VideoKey: "k", ThumbnailKey: "t", Visibility: VisibilityPrivate}
	if err := db.CreateVideo(ctx, private); err != nil {
		t.Fatal(err)
	}

	public, err := db.ListVideos(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListVideos() error = %v", err)
	}
	if len(public) != 2 || public[0].ID != "v2" || public[1].ID != "v1" {
		t.Errorf("ListVideos() = %v, want [v2 v1]", ids(public))
	}

	page, _ := db.ListVideos(ctx, 1, 1)
	if len(page) != 1 || page[0].ID != "v1" {
		t.Errorf("ListVideos(1,1) = %v, want [v1]", ids(page))
	}

	channel, _ := db.ListChannelVideos(ctx, "alice", false)
	if len(channel) != 1 || channel[0].ID != "v1" {
		t.Errorf("ListChannelVideos(public) = %v, want [v1]", ids(channel))
	}
	channel, _ = db.ListChannelVideos(ctx, "alice", true)
	if len(channel) != 2 || channel[0].ID != "v3" {
		t.Errorf("ListChannelVideos(all) = %v, want [v3 v1]", ids(channel))
	}
}

func TestListVideosByStatus(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()

	createTestVideo(t, db, "v1", "alice")
	clock.Advance(time.Minute)
	createTestVideo(t, db, "v2", "bob")
	clock.Advance(time.Minute)
	createTestVideo(t, db, "v3", "bob")
	if _, err := db.TransitionStatus(ctx, "v2", StatusCompleted, "videos/v2_480p.mp4", ""); err != nil {
		t.Fatal(err)
	}

	processing, err := db.ListVideosByStatus(ctx, StatusProcessing)
	if err != nil {
		t.Fatalf("ListVideosByStatus() error = %v", err)
	}
	if got := ids(processing); len(got) != 2 || got[0] != "v1" || got[1] != "v3" {
		t.Errorf("ListVideosByStatus(processing) = %v, want [v1 v3]", got)
	}

	completed, _ := db.ListVideosByStatus(ctx, StatusCompleted)
	if got := ids(completed); len(got) != 1 || got[0] != "v2" {
		t.Errorf("ListVideosByStatus(completed) = %v, want [v2]", got)
	}
}

func ids(videos []*Video) []string {
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.ID)
	}
	return out
}

func TestReplaceThumbnail(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")

	old, err := db.ReplaceThumbnail(ctx, "v1", "thumbnails/new.jpg")
	if err != nil {
		t.Fatalf("ReplaceThumbnail() error = %v", err)
	}
	if old != "thumbnails/v1.jpg" {
		t.Errorf("old key = %q", old)
	}
	v, _ := db.GetVideo(ctx, "v1")
	if v.ThumbnailKey != "thumbnails/new.jpg" {
		t.Errorf("ThumbnailKey = %q", v.ThumbnailKey)
	}

	if _, err := db.ReplaceThumbnail(ctx, "missing", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("ReplaceThumbnail(missing) error = %v", err)
	}
}

func TestUpdateVideoDetails(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")
	clock.Advance(time.Hour)

	title := "Renamed"
	vis := VisibilityUnlisted
	v, err := db.UpdateVideoDetails(ctx, "v1", VideoDetails{Title: &title, Visibility: &vis})
	if err != nil {
		t.Fatalf("UpdateVideoDetails() error = %v", err)
	}
	if v.Title != "Renamed" || v.Visibility != VisibilityUnlisted || v.Description != "" {
		t.Errorf("updated video = %+v", v)
	}
	if !v.UpdatedAt.Equal(testEpoch.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v", v.UpdatedAt)
	}

	bad := Visibility("secret")
	if _, err := db.UpdateVideoDetails(ctx, "v1", VideoDetails{Visibility: &bad}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad visibility error = %v", err)
	}
	if _, err := db.UpdateVideoDetails(ctx, "missing", VideoDetails{Title: &title}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing video error = %v", err)
	}
}

func TestDeleteVideoCascades(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")

	if _, err := db.RecordView(ctx, "v1", "viewer", clock.Now(), 24*time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ApplyRating(ctx, SubjectVideo, "v1", "bob", func(Rating) Rating { return RatingLike }); err != nil {
		t.Fatal(err)
	}
	c := &Comment{ID: "c1", VideoID: "v1", AuthorID: "bob", Text: "nice"}
	if err := db.CreateComment(ctx, c); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddReply(ctx, "c1", &Reply{ID: "r1", AuthorID: "alice", Text: "thanks"}); err != nil {
		t.Fatal(err)
	}

	deleted, err := db.DeleteVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("DeleteVideo() error = %v", err)
	}
	if deleted.VideoKey != "videos/v1.mp4" || deleted.ThumbnailKey != "thumbnails/v1.jpg" {
		t.Errorf("deleted = %+v", deleted)
	}

	for _, table := range []string{"views", "video_ratings", "comments", "replies"} {
		var n int
		if err := db.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("%s has %d rows after cascade", table, n)
		}
	}

	if _, err := db.DeleteVideo(ctx, "v1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second DeleteVideo() error = %v, want ErrNotFound", err)
	}
}

func TestRecordViewWindow(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")
	retention := 24 * time.Hour

	inserted, err := db.RecordView(ctx, "v1", "fp", clock.Now(), retention)
	if err != nil || !inserted {
		t.Fatalf("first RecordView() = %v, %v", inserted, err)
	}

	clock.Advance(23 * time.Hour)
	inserted, err = db.RecordView(ctx, "v1", "fp", clock.Now(), retention)
	if err != nil || inserted {
		t.Errorf("RecordView() within retention = %v, %v; want false", inserted, err)
	}

	seen, _ := db.HasRecentView(ctx, "v1", "fp", clock.Now().Add(-retention))
	if !seen {
		t.Error("HasRecentView() = false within retention")
	}

	clock.Advance(time.Hour)
	seen, _ = db.HasRecentView(ctx, "v1", "fp", clock.Now().Add(-retention))
	if seen {
		t.Error("HasRecentView() = true at retention boundary")
	}
	inserted, err = db.RecordView(ctx, "v1", "fp", clock.Now(), retention)
	if err != nil || !inserted {
		t.Errorf("RecordView() after retention = %v, %v; want true", inserted, err)
	}

	v, _ := db.GetVideo(ctx, "v1")
	if v.Views != 2 {
		t.Errorf("views = %d, want 2", v.Views)
	}

	if _, err := db.RecordView(ctx, "missing", "fp", clock.Now(), retention); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("RecordView(missing) error = %v", err)
	}
}

func TestRecordViewConcurrent(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")

	const racers = 16
	var wg sync.WaitGroup
	results := make(chan bool, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := db.RecordView(ctx, "v1", "same-viewer", clock.Now(), 24*time.Hour)
			if err != nil {
				t.Errorf("RecordView() error = %v", err)
			}
			results <- inserted
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for inserted := range results {
		if inserted {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("%d racers inserted, want exactly 1", winners)
	}

	v, _ := db.GetVideo(ctx, "v1")
	if v.Views != 1 {
		t.Errorf("views = %d, want 1", v.Views)
	}
}

func TestPurgeViews(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")

	db.RecordView(ctx, "v1", "old", clock.Now(), 24*time.Hour)
	clock.Advance(12 * time.Hour)
	db.RecordView(ctx, "v1", "new", clock.Now(), 24*time.Hour)
	clock.Advance(13 * time.Hour)

	purged, err := db.PurgeViews(ctx, clock.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PurgeViews() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	// Purging ledger rows never touches the counter
	v, _ := db.GetVideo(ctx, "v1")
	if v.Views != 2 {
		t.Errorf("views = %d, want 2", v.Views)
	}
}

func TestIncrementViews(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")

	if err := db.IncrementViews(ctx, "v1"); err != nil {
		t.Fatal(err)
	}
	v, _ := db.GetVideo(ctx, "v1")
	if v.Views != 1 {
		t.Errorf("views = %d, want 1", v.Views)
	}
	if err := db.IncrementViews(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("IncrementViews(missing) error = %v", err)
	}
}

func setRating(r Rating) func(Rating) Rating {
	return func(Rating) Rating { return r }
}

func TestApplyRating(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")

	steps := []struct {
		target          Rating
		likes, dislikes int64
		liked, disliked bool
	}{
		{RatingLike, 1, 0, true, false},
		{RatingDislike, 0, 1, false, true},
		{RatingNone, 0, 0, false, false},
	}

	for i, s := range steps {
		res, err := db.ApplyRating(ctx, SubjectVideo, "v1", "bob", setRating(s.target))
		if err != nil {
			t.Fatalf("step %d: ApplyRating() error = %v", i, err)
		}
		want := RatingResult{Likes: s.likes, Dislikes: s.dislikes, Liked: s.liked, Disliked: s.disliked}
		if *res != want {
			t.Errorf("step %d: result = %+v, want %+v", i, *res, want)
		}
		current, _ := db.GetRating(ctx, SubjectVideo, "v1", "bob")
		if current != s.target {
			t.Errorf("step %d: stored rating = %v, want %v", i, current, s.target)
		}
	}

	if _, err := db.ApplyRating(ctx, SubjectVideo, "missing", "bob", setRating(RatingLike)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing subject error = %v", err)
	}
	if _, err := db.ApplyRating(ctx, Subject("channel"), "v1", "bob", setRating(RatingLike)); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("unknown subject error = %v", err)
	}
}

func TestApplyRatingPassesCurrentState(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")

	var seen []Rating
	record := func(target Rating) func(Rating) Rating {
		return func(current Rating) Rating {
			seen = append(seen, current)
			return target
		}
	}

	db.ApplyRating(ctx, SubjectVideo, "v1", "bob", record(RatingDislike))
	db.ApplyRating(ctx, SubjectVideo, "v1", "bob", record(RatingLike))
	db.ApplyRating(ctx, SubjectVideo, "v1", "bob", record(RatingLike))

	want := []Rating{RatingNone, RatingDislike, RatingLike}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Errorf("current states seen = %v, want %v", seen, want)
	}
}

func TestApplyRatingClampsAtZero(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")

	// Simulate a desynchronized counter: membership row without a count
	_, err := db.db.Exec("INSERT INTO video_ratings (video_id, user_id, rating, created_at) VALUES ('v1', 'bob', 1, 0)")
	if err != nil {
		t.Fatal(err)
	}

	res, err := db.ApplyRating(ctx, SubjectVideo, "v1", "bob", setRating(RatingNone))
	if err != nil {
		t.Fatalf("ApplyRating() error = %v", err)
	}
	if res.Likes != 0 || res.Dislikes != 0 {
		t.Errorf("result = %+v, want clamped zero counts", res)
	}
}

func TestApplyRatingOnComments(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")
	if err := db.CreateComment(ctx, &Comment{ID: "c1", VideoID: "v1", AuthorID: "bob", Text: "hi"}); err != nil {
		t.Fatal(err)
	}

	res, err := db.ApplyRating(ctx, SubjectComment, "c1", "carol", setRating(RatingDislike))
	if err != nil {
		t.Fatalf("ApplyRating() error = %v", err)
	}
	if res.Dislikes != 1 || !res.Disliked {
		t.Errorf("result = %+v", res)
	}

	c, _ := db.GetComment(ctx, "c1")
	if c.Dislikes != 1 {
		t.Errorf("comment dislikes = %d, want 1", c.Dislikes)
	}

	// Video counters are untouched
	v, _ := db.GetVideo(ctx, "v1")
	if v.Likes != 0 || v.Dislikes != 0 {
		t.Errorf("video counters changed: %+v", v)
	}
}

func TestApplyRatingConcurrentUsers(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")

	const users = 20
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := RatingLike
			if i%2 == 1 {
				target = RatingDislike
			}
			if _, err := db.ApplyRating(ctx, SubjectVideo, "v1", fmt.Sprintf("user-%02d", i), setRating(target)); err != nil {
				t.Errorf("ApplyRating() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	v, _ := db.GetVideo(ctx, "v1")
	members, err := db.GetRatingMembers(ctx, SubjectVideo, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if v.Likes != int64(len(members.LikedBy)) || v.Dislikes != int64(len(members.DislikedBy)) {
		t.Errorf("counters (%d, %d) do not match membership (%d, %d)",
			v.Likes, v.Dislikes, len(members.LikedBy), len(members.DislikedBy))
	}
	if v.Likes != users/2 || v.Dislikes != users/2 {
		t.Errorf("counters = (%d, %d), want (%d, %d)", v.Likes, v.Dislikes, users/2, users/2)
	}
}

func TestCommentsAndReplies(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()
	createTestVideo(t, db, "v1", "alice")

	if err := db.CreateComment(ctx, &Comment{ID: "c1", VideoID: "v1", AuthorID: "bob", Text: "first"}); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	if err := db.CreateComment(ctx, &Comment{ID: "c2", VideoID: "v1", AuthorID: "carol", Text: "second"}); err != nil {
		t.Fatal(err)
	}

	for i, author := range []string{"alice", "dave", "alice"} {
		clock.Advance(time.Second)
		c, err := db.AddReply(ctx, "c1", &Reply{ID: fmt.Sprintf("r%d", i), AuthorID: author, Text: fmt.Sprintf("reply %d", i)})
		if err != nil {
			t.Fatalf("AddReply() error = %v", err)
		}
		if len(c.Replies) != i+1 {
			t.Errorf("after reply %d, comment has %d replies", i, len(c.Replies))
		}
	}

	comments, err := db.ListComments(ctx, "v1")
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(comments) != 2 || comments[0].ID != "c2" || comments[1].ID != "c1" {
		t.Fatalf("ListComments() order wrong: %+v", comments)
	}
	if len(comments[0].Replies) != 0 {
		t.Errorf("c2 replies = %d, want 0", len(comments[0].Replies))
	}
	replies := comments[1].Replies
	if len(replies) != 3 || replies[0].ID != "r0" || replies[2].ID != "r2" {
		t.Errorf("c1 replies out of order: %+v", replies)
	}

	if _, err := db.AddReply(ctx, "missing", &Reply{ID: "rx", AuthorID: "a", Text: "x"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("AddReply(missing) error = %v", err)
	}
	if err := db.CreateComment(ctx, &Comment{ID: "cx", VideoID: "missing", AuthorID: "a", Text: "x"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("CreateComment(missing video) error = %v", err)
	}

	if err := db.DeleteComment(ctx, "c1"); err != nil {
		t.Fatalf("DeleteComment() error = %v", err)
	}
	if _, err := db.GetComment(ctx, "c1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetComment after delete error = %v", err)
	}
	var n int
	db.db.QueryRow("SELECT COUNT(*) FROM replies").Scan(&n)
	if n != 0 {
		t.Errorf("%d replies survived comment deletion", n)
	}
	if err := db.DeleteComment(ctx, "c1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second DeleteComment() error = %v", err)
	}
}
