package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"video-platform/internal/apperr"
	"video-platform/internal/database"
	"video-platform/internal/identity"
	"video-platform/internal/lifecycle"
	"video-platform/internal/streaming"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// multipartMemory is held in RAM before parts spill to temp files.
	multipartMemory = 8 << 20
	// formOverhead covers the text fields and part headers of an upload.
	formOverhead = 1 << 20
)

// SubmitVideo accepts a multipart upload with video, thumbnail, title,
// description and visibility parts.
// POST /api/videos
func (h *Handlers) SubmitVideo(w http.ResponseWriter, r *http.Request) {
	requester := identity.FromContext(r.Context())
	if requester.Anonymous() {
		writeError(w, r, apperr.Forbidden("upload videos"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxVideoBytes+h.cfg.MaxThumbnailBytes+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, "upload exceeds the size limit", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, r, apperr.Validation("invalid multipart form: %v", err))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn("failed to remove multipart temp files: %v", err)
		}
	}()

	video, closeVideo := formUpload(r, "video")
	defer closeVideo()
	thumb, closeThumb := formUpload(r, "thumbnail")
	defer closeThumb()

	v, err := h.lifecycle.Submit(r.Context(), requester, lifecycle.SubmitRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Visibility:  database.Visibility(r.FormValue("visibility")),
		Video:       video,
		Thumbnail:   thumb,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/videos/"+v.ID)
	writeJSONStatus(w, http.StatusCreated, v)
}

// formUpload returns the named file part, or nil when absent. The returned
// func closes the part.
func formUpload(r *http.Request, field string) (*lifecycle.Upload, func()) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, func() {}
	}
	return &lifecycle.Upload{Filename: hdr.Filename, Size: hdr.Size, Body: f}, func() { closePart(f) }
}

func closePart(f multipart.File) {
	if err := f.Close(); err != nil {
		log.Debug("failed to close upload part: %v", err)
	}
}

// ListVideos returns public videos, newest first.
// GET /api/videos?limit=&offset=
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPageSize, maxPageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	videos, err := h.catalog.ListVideos(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if videos == nil {
		videos = []*database.Video{}
	}
	writeJSONStatus(w, http.StatusOK, videos)
}

// ListChannelVideos returns a user's videos. Owners and admins also see
// private and unlisted ones.
// GET /api/channels/{userId}/videos
func (h *Handlers) ListChannelVideos(w http.ResponseWriter, r *http.Request) {
	owner := mux.Vars(r)["userId"]
	requester := identity.FromContext(r.Context())

	videos, err := h.catalog.ListChannelVideos(r.Context(), owner, requester.CanModify(owner))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if videos == nil {
		videos = []*database.Video{}
	}
	writeJSONStatus(w, http.StatusOK, videos)
}

// GetVideo returns a video and registers a view for the caller. View
// accounting failures never fail the request.
// GET /api/videos/{id}
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requester := identity.FromContext(r.Context())

	v, err := h.lifecycle.Get(r.Context(), id, requester)
	if err != nil {
		writeError(w, r, err)
		return
	}

	counted, err := h.views.RegisterView(r.Context(), v.ID, h.viewer(r, requester))
	if err != nil {
		log.Warn("view accounting failed for %s: %v", v.ID, err)
	}
	if counted {
		v.Views++
	}
	writeJSONStatus(w, http.StatusOK, v)
}

// GetVideoStatus returns the processing status.
// GET /api/videos/{id}/status
func (h *Handlers) GetVideoStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.lifecycle.Get(r.Context(), id, identity.FromContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}

	status, err := h.lifecycle.Status(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]interface{}{"id": id, "status": status})
}

// RegisterView records a playback.
// POST /api/videos/{id}/views
func (h *Handlers) RegisterView(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requester := identity.FromContext(r.Context())

	if _, err := h.lifecycle.Get(r.Context(), id, requester); err != nil {
		writeError(w, r, err)
		return
	}

	counted, err := h.views.RegisterView(r.Context(), id, h.viewer(r, requester))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, r, err)
			return
		}
		log.Warn("view accounting failed for %s: %v", id, err)
	}
	writeJSONStatus(w, http.StatusOK, map[string]bool{"counted": counted})
}

func (h *Handlers) viewer(r *http.Request, requester identity.Identity) string {
	return h.fingerprints.Fingerprint(requester, h.proxies.ClientIP(r))
}

type updateVideoRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Visibility  *database.Visibility `json:"visibility"`
}

// UpdateVideo edits title, description or visibility.
// PATCH /api/videos/{id}
func (h *Handlers) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	var req updateVideoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	v, err := h.lifecycle.Update(r.Context(), mux.Vars(r)["id"], database.VideoDetails{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
	}, identity.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, v)
}

// ReplaceThumbnail swaps the thumbnail for a new image sent as the
// "thumbnail" multipart part.
// PUT /api/videos/{id}/thumbnail
func (h *Handlers) ReplaceThumbnail(w http.ResponseWriter, r *http.Request) {
	requester := identity.FromContext(r.Context())
	if requester.Anonymous() {
		writeError(w, r, apperr.Forbidden("replace this thumbnail"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxThumbnailBytes+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, "thumbnail exceeds the size limit", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, r, apperr.Validation("invalid multipart form: %v", err))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn("failed to remove multipart temp files: %v", err)
		}
	}()

	thumb, closeThumb := formUpload(r, "thumbnail")
	defer closeThumb()

	v, err := h.lifecycle.ReplaceThumbnail(r.Context(), mux.Vars(r)["id"], thumb, requester)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, v)
}

// DeleteVideo removes a video and its files.
// DELETE /api/videos/{id}
func (h *Handlers) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := h.lifecycle.Delete(r.Context(), mux.Vars(r)["id"], identity.FromContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StreamVideo serves the playback rendition: the transcoded file when
// transcoding completed, the original upload otherwise. Streaming does not
// register a view; players call the views endpoint.
// GET /api/videos/{id}/stream
func (h *Handlers) StreamVideo(w http.ResponseWriter, r *http.Request) {
	v, err := h.lifecycle.Get(r.Context(), mux.Vars(r)["id"], identity.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	key := v.PlaybackKey()
	path, err := h.videoFiles.Path(key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	streaming.ServeFile(w, r, path, filepath.Base(key), h.cfg.Streaming)
}
