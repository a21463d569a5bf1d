package comments

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"video-platform/internal/apperr"
	"video-platform/internal/database"
	"video-platform/internal/identity"
	"video-platform/internal/logging"
	"video-platform/internal/metrics"
)

var log = logging.For("comments")

// MaxTextLength is the longest comment or reply, in characters.
const MaxTextLength = 1000

// Store persists comments and reply threads.
type Store interface {
	CreateComment(ctx context.Context, c *database.Comment) error
	GetComment(ctx context.Context, id string) (*database.Comment, error)
	ListComments(ctx context.Context, videoID string) ([]database.Comment, error)
	AddReply(ctx context.Context, commentID string, r *database.Reply) (*database.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// Service handles comments and their replies.
type Service struct {
	store Store
}

// New returns a Service over store.
func New(store Store) *Service {
	return &Service{store: store}
}

func cleanText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Validation("text is required")
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return "", apperr.Validation("text is %d characters, limit is %d", n, MaxTextLength)
	}
	return text, nil
}

// Add posts a top-level comment on a video.
func (s *Service) Add(ctx context.Context, videoID string, author identity.Identity, text string) (*database.Comment, error) {
	if author.Anonymous() {
		return nil, apperr.Forbidden("comment")
	}
	text, err := cleanText(text)
	if err != nil {
		return nil, err
	}

	c := &database.Comment{
		ID:       uuid.NewString(),
		VideoID:  videoID,
		AuthorID: author.UserID,
		Text:     text,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a single comment with its replies.
func (s *Service) Get(ctx context.Context, commentID string) (*database.Comment, error) {
	return s.store.GetComment(ctx, commentID)
}

// List returns a video's comments, newest first.
func (s *Service) List(ctx context.Context, videoID string) ([]database.Comment, error) {
	return s.store.ListComments(ctx, videoID)
}

// Reply appends a reply to a comment and returns the updated comment.
func (s *Service) Reply(ctx context.Context, commentID string, author identity.Identity, text string) (*database.Comment, error) {
	if author.Anonymous() {
		return nil, apperr.Forbidden("reply")
	}
	text, err := cleanText(text)
	if err != nil {
		return nil, err
	}

	c, err := s.store.AddReply(ctx, commentID, &database.Reply{
		ID:       uuid.NewString(),
		AuthorID: author.UserID,
		Text:     text,
	})
	if err != nil {
		return nil, err
	}
	metrics.RepliesTotal.Inc()
	return c, nil
}

// Delete removes a comment and its replies. Only the author or an admin may
// delete.
func (s *Service) Delete(ctx context.Context, commentID string, requester identity.Identity) error {
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !requester.CanModify(c.AuthorID) {
		return apperr.Forbidden("delete this comment")
	}
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	log.Info("Deleted comment %s with %d replies (requested by %s)", commentID, len(c.Replies), requester.UserID)
	return nil
}
