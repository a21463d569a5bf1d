package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"video-platform/internal/database"
	"video-platform/internal/engagement"
	"video-platform/internal/identity"
)

type rateRequest struct {
	Action string `json:"action"`
}

// RateVideo toggles a like or dislike on a video.
// POST /api/videos/{id}/rate
func (h *Handlers) RateVideo(w http.ResponseWriter, r *http.Request) {
	requester := identity.FromContext(r.Context())
	id := mux.Vars(r)["id"]
	if _, err := h.lifecycle.Get(r.Context(), id, requester); err != nil {
		writeError(w, r, err)
		return
	}
	h.rate(w, r, database.SubjectVideo, id, requester)
}

// RateComment toggles a like or dislike on a comment.
// POST /api/comments/{id}/rate
func (h *Handlers) RateComment(w http.ResponseWriter, r *http.Request) {
	requester := identity.FromContext(r.Context())
	id := mux.Vars(r)["id"]
	if err := h.checkCommentVisible(r.Context(), id, requester); err != nil {
		writeError(w, r, err)
		return
	}
	h.rate(w, r, database.SubjectComment, id, requester)
}

// VideoRatings lists who liked and disliked a video.
// GET /api/videos/{id}/ratings
func (h *Handlers) VideoRatings(w http.ResponseWriter, r *http.Request) {
	requester := identity.FromContext(r.Context())
	id := mux.Vars(r)["id"]
	if _, err := h.lifecycle.Get(r.Context(), id, requester); err != nil {
		writeError(w, r, err)
		return
	}
	h.ratingSummary(w, r, database.SubjectVideo, id, requester)
}

// CommentRatings lists who liked and disliked a comment.
// GET /api/comments/{id}/ratings
func (h *Handlers) CommentRatings(w http.ResponseWriter, r *http.Request) {
	requester := identity.FromContext(r.Context())
	id := mux.Vars(r)["id"]
	if err := h.checkCommentVisible(r.Context(), id, requester); err != nil {
		writeError(w, r, err)
		return
	}
	h.ratingSummary(w, r, database.SubjectComment, id, requester)
}

func (h *Handlers) ratingSummary(w http.ResponseWriter, r *http.Request, subject database.Subject, id string, requester identity.Identity) {
	sum, err := h.ratings.Summarize(r.Context(), subject, id, requester)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, sum)
}

func (h *Handlers) rate(w http.ResponseWriter, r *http.Request, subject database.Subject, id string, requester identity.Identity) {
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	action, err := engagement.ParseAction(req.Action)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.ratings.Rate(r.Context(), subject, id, requester, action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, result)
}
