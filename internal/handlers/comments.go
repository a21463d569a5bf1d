package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"video-platform/internal/apperr"
	"video-platform/internal/database"
	"video-platform/internal/identity"
)

type commentRequest struct {
	Text string `json:"text"`
}

// ListComments returns a video's comments with their replies.
// GET /api/videos/{id}/comments
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.lifecycle.Get(r.Context(), id, identity.FromContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.comments.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []database.Comment{}
	}
	writeJSONStatus(w, http.StatusOK, list)
}

// AddComment posts a comment.
// POST /api/videos/{id}/comments
func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	requester := identity.FromContext(r.Context())
	id := mux.Vars(r)["id"]
	if _, err := h.lifecycle.Get(r.Context(), id, requester); err != nil {
		writeError(w, r, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.comments.Add(r.Context(), id, requester, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

// AddReply answers a comment and returns the whole thread.
// POST /api/comments/{id}/replies
func (h *Handlers) AddReply(w http.ResponseWriter, r *http.Request) {
	requester := identity.FromContext(r.Context())
	id := mux.Vars(r)["id"]
	if err := h.checkCommentVisible(r.Context(), id, requester); err != nil {
		writeError(w, r, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.comments.Reply(r.Context(), id, requester, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

// checkCommentVisible reports a comment as not found when the requester may
// not see the video it belongs to.
func (h *Handlers) checkCommentVisible(ctx context.Context, commentID string, requester identity.Identity) error {
	c, err := h.comments.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if _, err := h.lifecycle.Get(ctx, c.VideoID, requester); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound("comment", commentID)
		}
		return err
	}
	return nil
}

// DeleteComment removes a comment and its replies.
// DELETE /api/comments/{id}
func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.comments.Delete(r.Context(), mux.Vars(r)["id"], identity.FromContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
