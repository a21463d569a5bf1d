package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"video-platform/internal/apperr"
	"video-platform/internal/database"
	"video-platform/internal/events"
	"video-platform/internal/identity"
	"video-platform/internal/logging"
	"video-platform/internal/media"
	"video-platform/internal/mediatypes"
	"video-platform/internal/metrics"
	"video-platform/internal/storage"
	"video-platform/internal/workers"
)

var log = logging.For("lifecycle")

// Repository is the persistence the lifecycle needs.
type Repository interface {
	CreateVideo(ctx context.Context, v *database.Video) error
	GetVideo(ctx context.Context, id string) (*database.Video, error)
	GetVideoStatus(ctx context.Context, id string) (database.VideoStatus, error)
	TransitionStatus(ctx context.Context, id string, to database.VideoStatus, transcodedKey, detail string) (bool, error)
	ReplaceThumbnail(ctx context.Context, id, thumbnailKey string) (string, error)
	UpdateVideoDetails(ctx context.Context, id string, details database.VideoDetails) (*database.Video, error)
	DeleteVideo(ctx context.Context, id string) (*database.Video, error)
	ListVideosByStatus(ctx context.Context, status database.VideoStatus) ([]*database.Video, error)
}

// Transcoder converts a raw upload into the normalized rendition.
type Transcoder interface {
	Transcode(ctx context.Context, input, output string) error
}

// Admitter holds back transcode jobs, typically under memory pressure.
type Admitter interface {
	Admit(ctx context.Context) error
}

type admitAll struct{}

func (admitAll) Admit(context.Context) error { return nil }

// VideoStore is a store whose keys resolve to local paths the transcoder can read.
type VideoStore interface {
	storage.Store
	Path(key string) (string, error)
}

// Config holds lifecycle limits and behavior switches.
type Config struct {
	// WaitForTranscode makes Submit return only after the transcode finished.
	WaitForTranscode  bool
	MaxVideoBytes     int64
	MaxThumbnailBytes int64
}

// Deps are the collaborators of a Service.
type Deps struct {
	Repo       Repository
	Videos     VideoStore
	Thumbnails storage.Store
	Transcoder Transcoder
	Events     events.Publisher
	Pool       *workers.Pool
	Clock      clockwork.Clock
	Admission  Admitter
}

// Service drives videos through processing -> completed|failed.
type Service struct {
	repo       Repository
	videos     VideoStore
	thumbnails storage.Store
	transcoder Transcoder
	events     events.Publisher
	pool       *workers.Pool
	clock      clockwork.Clock
	admission  Admitter
	cfg        Config

	// jobs outlive the request that started them
	jobCtx    context.Context
	cancelJob context.CancelFunc
}

// New creates a Service. Missing optional deps get defaults: a no-op event
// publisher, a single-slot pool and the real clock.
func New(deps Deps, cfg Config) *Service {
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}
	if deps.Pool == nil {
		deps.Pool = workers.NewPool(1)
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Admission == nil {
		deps.Admission = admitAll{}
	}
	if cfg.MaxVideoBytes <= 0 {
		cfg.MaxVideoBytes = mediatypes.MaxVideoBytes
	}
	if cfg.MaxThumbnailBytes <= 0 {
		cfg.MaxThumbnailBytes = mediatypes.MaxThumbnailBytes
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	return &Service{
		repo:       deps.Repo,
		videos:     deps.Videos,
		thumbnails: deps.Thumbnails,
		transcoder: deps.Transcoder,
		events:     deps.Events,
		pool:       deps.Pool,
		clock:      deps.Clock,
		admission:  deps.Admission,
		cfg:        cfg,
		jobCtx:     jobCtx,
		cancelJob:  cancel,
	}
}

// Upload is one file of a multipart upload.
type Upload struct {
	Filename string
	// Size is the declared size; 0 when unknown.
	Size int64
	Body io.Reader
}

func (u *Upload) present() bool {
	return u != nil && u.Body != nil && u.Filename != ""
}

// SubmitRequest carries a new video and its metadata.
type SubmitRequest struct {
	Title       string
	Description string
	Visibility  database.Visibility
	Video       *Upload
	Thumbnail   *Upload
}

// Submit validates and stores an upload, creates the record with status
// processing and schedules the transcode. With WaitForTranscode the returned
// record reflects the finished transcode; otherwise it is still processing.
func (s *Service) Submit(ctx context.Context, requester identity.Identity, req SubmitRequest) (*database.Video, error) {
	if requester.Anonymous() {
		return nil, apperr.Forbidden("upload videos")
	}
	if err := s.validateSubmit(&req); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	videoKey := storage.VideoKey(id, mediatypes.Ext(req.Video.Filename))
	thumbKey := storage.ThumbnailKey(id, media.ThumbnailExt)

	thumb, err := media.NormalizeThumbnail(req.Thumbnail.Body, s.cfg.MaxThumbnailBytes)
	if err != nil {
		return nil, err
	}

	if err := s.saveVideo(ctx, videoKey, req.Video.Body); err != nil {
		return nil, err
	}
	if _, err := s.thumbnails.Save(ctx, thumbKey, bytes.NewReader(thumb)); err != nil {
		s.removeBestEffort(ctx, s.videos, videoKey, "video")
		return nil, err
	}

	v := &database.Video{
		ID:           id,
		OwnerID:      requester.UserID,
		Title:        req.Title,
		Description:  req.Description,
		Visibility:   req.Visibility,
		Status:       database.StatusProcessing,
		VideoKey:     videoKey,
		ThumbnailKey: thumbKey,
	}
	if err := s.repo.CreateVideo(ctx, v); err != nil {
		s.removeBestEffort(ctx, s.videos, videoKey, "video")
		s.removeBestEffort(ctx, s.thumbnails, thumbKey, "thumbnail")
		return nil, err
	}

	metrics.VideosUploadedTotal.Inc()
	log.Info("Accepted upload %s from %s (%q)", id, requester.UserID, v.Title)
	s.publish(ctx, events.SubjectStatus, v, "")

	done := s.pool.Go(func() { s.runTranscode(v) })
	if !s.cfg.WaitForTranscode {
		return v, nil
	}

	select {
	case <-done:
	case <-ctx.Done():
		// Client gave up; the transcode keeps running.
		return v, nil
	}

	current, err := s.repo.GetVideo(ctx, id)
	if err != nil {
		return v, nil
	}
	return current, nil
}

func (s *Service) validateSubmit(req *SubmitRequest) error {
	if !req.Video.present() {
		return apperr.Validation("a video file is required")
	}
	if !req.Thumbnail.present() {
		return apperr.Validation("a thumbnail image is required")
	}
	if !mediatypes.IsVideo(req.Video.Filename) {
		return apperr.Validation("unsupported video format %q", mediatypes.Ext(req.Video.Filename))
	}
	if !mediatypes.IsImage(req.Thumbnail.Filename) {
		return apperr.Validation("unsupported thumbnail format %q", mediatypes.Ext(req.Thumbnail.Filename))
	}
	if req.Video.Size > s.cfg.MaxVideoBytes {
		return apperr.Validation("video exceeds %d bytes", s.cfg.MaxVideoBytes)
	}
	if req.Thumbnail.Size > s.cfg.MaxThumbnailBytes {
		return apperr.Validation("thumbnail exceeds %d bytes", s.cfg.MaxThumbnailBytes)
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return apperr.Validation("title is required")
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Visibility == "" {
		req.Visibility = database.VisibilityPublic
	}
	if !req.Visibility.Valid() {
		return apperr.Validation("unknown visibility %q", req.Visibility)
	}
	return nil
}

// saveVideo streams the upload to storage, enforcing the size limit even when
// the declared size was missing or wrong.
func (s *Service) saveVideo(ctx context.Context, key string, body io.Reader) error {
	n, err := s.videos.Save(ctx, key, io.LimitReader(body, s.cfg.MaxVideoBytes+1))
	if err != nil {
		return err
	}
	if n > s.cfg.MaxVideoBytes {
		s.removeBestEffort(ctx, s.videos, key, "video")
		return apperr.Validation("video exceeds %d bytes", s.cfg.MaxVideoBytes)
	}
	if n == 0 {
		s.removeBestEffort(ctx, s.videos, key, "video")
		return apperr.Validation("video file is empty")
	}
	return nil
}

func (s *Service) runTranscode(v *database.Video) {
	ctx := s.jobCtx
	outKey := storage.TranscodedKey(v.VideoKey)

	err := s.admission.Admit(ctx)
	var input string
	if err == nil {
		input, err = s.videos.Path(v.VideoKey)
	}
	if err == nil {
		var output string
		output, err = s.videos.Path(outKey)
		if err == nil {
			err = s.transcoder.Transcode(ctx, input, output)
		}
	}

	if err != nil {
		if cbErr := s.OnTranscodeFailure(context.WithoutCancel(ctx), v.ID, err); cbErr != nil {
			log.Error("failed to record transcode failure for %s: %v", v.ID, cbErr)
		}
		return
	}

	if cbErr := s.OnTranscodeSuccess(context.WithoutCancel(ctx), v.ID, outKey); cbErr != nil {
		log.Error("failed to record transcode success for %s: %v", v.ID, cbErr)
		if errors.Is(cbErr, apperr.ErrNotFound) {
			// deleted while transcoding
			s.removeBestEffort(ctx, s.videos, outKey, "video")
		}
	}
}

// OnTranscodeSuccess marks a processing video completed. Calling it again, or
// after a failure was recorded, changes nothing.
func (s *Service) OnTranscodeSuccess(ctx context.Context, videoID, transcodedKey string) error {
	changed, err := s.repo.TransitionStatus(ctx, videoID, database.StatusCompleted, transcodedKey, "")
	if err != nil {
		return err
	}
	if !changed {
		log.Debug("Video %s already left processing; success ignored", videoID)
		return nil
	}

	log.Info("Video %s completed", videoID)
	s.publish(ctx, events.SubjectStatus, &database.Video{ID: videoID, Status: database.StatusCompleted}, "")
	return nil
}

// OnTranscodeFailure marks a processing video failed. The raw upload stays in
// place and remains the playback source.
func (s *Service) OnTranscodeFailure(ctx context.Context, videoID string, cause error) error {
	detail := "transcode failed"
	if cause != nil {
		detail = cause.Error()
	}

	changed, err := s.repo.TransitionStatus(ctx, videoID, database.StatusFailed, "", detail)
	if err != nil {
		return err
	}
	if !changed {
		log.Debug("Video %s already left processing; failure ignored", videoID)
		return nil
	}

	log.Warn("Video %s failed to transcode, serving original: %s", videoID, detail)
	s.publish(ctx, events.SubjectStatus, &database.Video{ID: videoID, Status: database.StatusFailed}, detail)
	return nil
}

// Status returns the processing state of a video.
func (s *Service) Status(ctx context.Context, videoID string) (database.VideoStatus, error) {
	return s.repo.GetVideoStatus(ctx, videoID)
}

// Get returns a video readable by requester. Private videos of other users
// are reported as not found.
func (s *Service) Get(ctx context.Context, videoID string, requester identity.Identity) (*database.Video, error) {
	v, err := s.repo.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if v.Visibility == database.VisibilityPrivate && !requester.CanModify(v.OwnerID) {
		return nil, apperr.NotFound("video", videoID)
	}
	return v, nil
}

// authorize loads a video and checks that requester owns it or is an admin.
func (s *Service) authorize(ctx context.Context, videoID string, requester identity.Identity, action string) (*database.Video, error) {
	v, err := s.repo.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !requester.CanModify(v.OwnerID) {
		return nil, apperr.Forbidden(action)
	}
	return v, nil
}

// ReplaceThumbnail stores a new thumbnail and swaps the reference. Failure to
// delete the previous image is logged, not returned.
func (s *Service) ReplaceThumbnail(ctx context.Context, videoID string, thumb *Upload, requester identity.Identity) (*database.Video, error) {
	if _, err := s.authorize(ctx, videoID, requester, "replace this thumbnail"); err != nil {
		return nil, err
	}
	if !thumb.present() {
		return nil, apperr.Validation("a thumbnail image is required")
	}
	if !mediatypes.IsImage(thumb.Filename) {
		return nil, apperr.Validation("unsupported thumbnail format %q", mediatypes.Ext(thumb.Filename))
	}
	if thumb.Size > s.cfg.MaxThumbnailBytes {
		return nil, apperr.Validation("thumbnail exceeds %d bytes", s.cfg.MaxThumbnailBytes)
	}

	data, err := media.NormalizeThumbnail(thumb.Body, s.cfg.MaxThumbnailBytes)
	if err != nil {
		return nil, err
	}

	// A fresh key per upload so the old object can be removed independently.
	newKey := storage.ThumbnailKey(videoID+"-"+uuid.NewString()[:8], media.ThumbnailExt)
	if _, err := s.thumbnails.Save(ctx, newKey, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	oldKey, err := s.repo.ReplaceThumbnail(ctx, videoID, newKey)
	if err != nil {
		s.removeBestEffort(ctx, s.thumbnails, newKey, "thumbnail")
		return nil, err
	}
	if oldKey != "" && oldKey != newKey {
		s.removeBestEffort(ctx, s.thumbnails, oldKey, "thumbnail")
	}

	log.Info("Replaced thumbnail of %s", videoID)
	return s.repo.GetVideo(ctx, videoID)
}

// Update changes title, description or visibility.
func (s *Service) Update(ctx context.Context, videoID string, details database.VideoDetails, requester identity.Identity) (*database.Video, error) {
	if _, err := s.authorize(ctx, videoID, requester, "edit this video"); err != nil {
		return nil, err
	}
	if details.Title != nil {
		title := strings.TrimSpace(*details.Title)
		if title == "" {
			return nil, apperr.Validation("title is required")
		}
		details.Title = &title
	}
	if details.Description != nil {
		desc := strings.TrimSpace(*details.Description)
		details.Description = &desc
	}
	if details.Visibility != nil && !details.Visibility.Valid() {
		return nil, apperr.Validation("unknown visibility %q", *details.Visibility)
	}
	return s.repo.UpdateVideoDetails(ctx, videoID, details)
}

// Delete removes the record, then makes a best-effort attempt to delete the
// raw upload, the rendition and the thumbnail.
func (s *Service) Delete(ctx context.Context, videoID string, requester identity.Identity) error {
	if _, err := s.authorize(ctx, videoID, requester, "delete this video"); err != nil {
		return err
	}

	v, err := s.repo.DeleteVideo(ctx, videoID)
	if err != nil {
		return err
	}

	s.removeBestEffort(ctx, s.videos, v.VideoKey, "video")
	transcoded := v.TranscodedKey
	if transcoded == "" {
		transcoded = storage.TranscodedKey(v.VideoKey)
	}
	s.removeBestEffort(ctx, s.videos, transcoded, "video")
	s.removeBestEffort(ctx, s.thumbnails, v.ThumbnailKey, "thumbnail")

	metrics.VideosDeletedTotal.Inc()
	log.Info("Deleted video %s (requested by %s)", videoID, requester.UserID)
	s.publish(ctx, events.SubjectDeleted, v, "")
	return nil
}

// Resume reschedules transcodes for videos left in processing, typically by a
// restart that interrupted their jobs. It returns the number rescheduled.
func (s *Service) Resume(ctx context.Context) (int, error) {
	stuck, err := s.repo.ListVideosByStatus(ctx, database.StatusProcessing)
	if err != nil {
		return 0, err
	}
	for _, v := range stuck {
		v := v
		s.pool.Go(func() { s.runTranscode(v) })
	}
	if len(stuck) > 0 {
		log.Info("Rescheduled %d interrupted transcode jobs", len(stuck))
	}
	return len(stuck), nil
}

// Wait blocks until in-flight transcodes finish or ctx expires. On expiry the
// jobs' context is canceled so that running ffmpeg processes are stopped.
func (s *Service) Wait(ctx context.Context) error {
	err := s.pool.Wait(ctx)
	if err != nil {
		s.cancelJob()
	}
	return err
}

func (s *Service) removeBestEffort(ctx context.Context, store storage.Store, key, kind string) {
	if key == "" {
		return
	}
	if err := store.Delete(context.WithoutCancel(ctx), key); err != nil {
		metrics.StorageCleanupErrors.WithLabelValues(kind).Inc()
		log.Warn("failed to delete %s %s: %v", kind, key, err)
	}
}

func (s *Service) publish(ctx context.Context, subject string, v *database.Video, detail string) {
	event := events.StatusEvent{
		VideoID: v.ID,
		OwnerID: v.OwnerID,
		Status:  string(v.Status),
		Detail:  detail,
		At:      s.clock.Now().UTC(),
	}
	if subject == events.SubjectDeleted {
		event.Status = "deleted"
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), subject, event); err != nil {
		log.Warn("failed to publish %s for %s: %v", subject, v.ID, err)
	}
}

// String describes the service configuration for startup logs.
func (s *Service) String() string {
	return fmt.Sprintf("lifecycle(workers=%d, wait=%v, maxVideo=%d, maxThumb=%d)",
		s.pool.Size(), s.cfg.WaitForTranscode, s.cfg.MaxVideoBytes, s.cfg.MaxThumbnailBytes)
}
