package database

import (
	"time"
)

// VideoStatus is the processing state of an upload.
type VideoStatus string

const (
	// StatusProcessing is the initial state while the transcode runs.
	StatusProcessing VideoStatus = "processing"
	// StatusCompleted means the normalized rendition is available.
	StatusCompleted VideoStatus = "completed"
	// StatusFailed means transcoding failed; the raw upload is still served.
	StatusFailed VideoStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s VideoStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Visibility controls who may read a video.
type Visibility string

const (
	// VisibilityPublic videos are listed and readable by anyone.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate videos are readable by the owner and admins only.
	VisibilityPrivate Visibility = "private"
	// VisibilityUnlisted videos are readable by link but not listed.
	VisibilityUnlisted Visibility = "unlisted"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityUnlisted:
		return true
	}
	return false
}

// Video is an uploaded asset with its engagement counters.
type Video struct {
	ID            string      `json:"id"`
	OwnerID       string      `json:"ownerId"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Visibility    Visibility  `json:"visibility"`
	Status        VideoStatus `json:"status"`
	StatusDetail  string      `json:"statusDetail,omitempty"`
	VideoKey      string      `json:"videoKey"`
	TranscodedKey string      `json:"transcodedKey,omitempty"`
	ThumbnailKey  string      `json:"thumbnailKey"`
	Views         int64       `json:"views"`
	Likes         int64       `json:"likes"`
	Dislikes      int64       `json:"dislikes"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// PlaybackKey returns the key that should be served: the normalized rendition
// when it exists, otherwise the raw upload.
func (v *Video) PlaybackKey() string {
	if v.Status == StatusCompleted && v.TranscodedKey != "" {
		return v.TranscodedKey
	}
	return v.VideoKey
}

type videoRow struct {
	ID            string `db:"id"`
	OwnerID       string `db:"owner_id"`
	Title         string `db:"title"`
	Description   string `db:"description"`
	Visibility    string `db:"visibility"`
	Status        string `db:"status"`
	StatusDetail  string `db:"status_detail"`
	VideoKey      string `db:"video_key"`
	TranscodedKey string `db:"transcoded_key"`
	ThumbnailKey  string `db:"thumbnail_key"`
	Views         int64  `db:"views"`
	Likes         int64  `db:"likes"`
	Dislikes      int64  `db:"dislikes"`
	CreatedAt     int64  `db:"created_at"`
	UpdatedAt     int64  `db:"updated_at"`
}

func (r *videoRow) toVideo() *Video {
	return &Video{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Title:         r.Title,
		Description:   r.Description,
		Visibility:    Visibility(r.Visibility),
		Status:        VideoStatus(r.Status),
		StatusDetail:  r.StatusDetail,
		VideoKey:      r.VideoKey,
		TranscodedKey: r.TranscodedKey,
		ThumbnailKey:  r.ThumbnailKey,
		Views:         r.Views,
		Likes:         r.Likes,
		Dislikes:      r.Dislikes,
		CreatedAt:     fromMillis(r.CreatedAt),
		UpdatedAt:     fromMillis(r.UpdatedAt),
	}
}

const videoColumns = `id, owner_id, title, description, visibility, status, status_detail,
	video_key, transcoded_key, thumbnail_key, views, likes, dislikes, created_at, updated_at`

// Comment is a top-level comment on a video with its replies in insertion order.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	Likes     int64     `json:"likes"`
	Dislikes  int64     `json:"dislikes"`
	CreatedAt time.Time `json:"createdAt"`
	Replies   []Reply   `json:"replies"`
}

type commentRow struct {
	ID        string `db:"id"`
	VideoID   string `db:"video_id"`
	AuthorID  string `db:"author_id"`
	Text      string `db:"text"`
	Likes     int64  `db:"likes"`
	Dislikes  int64  `db:"dislikes"`
	CreatedAt int64  `db:"created_at"`
}

func (r *commentRow) toComment() Comment {
	return Comment{
		ID:        r.ID,
		VideoID:   r.VideoID,
		AuthorID:  r.AuthorID,
		Text:      r.Text,
		Likes:     r.Likes,
		Dislikes:  r.Dislikes,
		CreatedAt: fromMillis(r.CreatedAt),
		Replies:   []Reply{},
	}
}

// Reply is an entry in a comment's append-only reply sequence.
type Reply struct {
	ID        string    `json:"id"`
	CommentID string    `json:"commentId"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type replyRow struct {
	ID        string `db:"id"`
	CommentID string `db:"comment_id"`
	AuthorID  string `db:"author_id"`
	Text      string `db:"text"`
	CreatedAt int64  `db:"created_at"`
}

func (r *replyRow) toReply() Reply {
	return Reply{
		ID:        r.ID,
		CommentID: r.CommentID,
		AuthorID:  r.AuthorID,
		Text:      r.Text,
		CreatedAt: fromMillis(r.CreatedAt),
	}
}

// Rating is a user's membership state for one subject.
type Rating int

const (
	// RatingNone is the neutral state: in neither set.
	RatingNone Rating = 0
	// RatingLike places the user in the liked-by set.
	RatingLike Rating = 1
	// RatingDislike places the user in the disliked-by set.
	RatingDislike Rating = -1
)

func (r Rating) String() string {
	switch r {
	case RatingLike:
		return "liked"
	case RatingDislike:
		return "disliked"
	default:
		return "neutral"
	}
}

// Subject identifies which kind of entity is being rated.
type Subject string

const (
	// SubjectVideo rates videos.
	SubjectVideo Subject = "video"
	// SubjectComment rates comments.
	SubjectComment Subject = "comment"
)

type subjectTables struct {
	subject string // table holding the counters
	ratings string // membership table
	fk      string // membership column referencing the subject
}

var subjects = map[Subject]subjectTables{
	SubjectVideo:   {subject: "videos", ratings: "video_ratings", fk: "video_id"},
	SubjectComment: {subject: "comments", ratings: "comment_ratings", fk: "comment_id"},
}

// RatingResult is the state after a rating transition.
type RatingResult struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	Liked    bool  `json:"liked"`
	Disliked bool  `json:"disliked"`
}

// RatingMembers lists the users in each membership set of a subject.
type RatingMembers struct {
	LikedBy    []string `json:"likedBy"`
	DislikedBy []string `json:"dislikedBy"`
}
