package handler

import (
	"net/http"

	"github.com/sakif/tracker/internal/model"
	"github.com/sakif/tracker/internal/service"
)

// CommentHandler serves /api/projects/{projectID}/issues/{issueID}/comments.
type CommentHandler struct {
	comments *service.CommentService
}

func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func commentPath(r *http.Request) (projectID, issueID, commentID int64, err error) {
	projectID, issueID, err = issuePath(r)
	if err != nil {
		return 0, 0, 0, err
	}
	commentID, err = pathID(r, "commentID")
	if err != nil {
		return 0, 0, 0, err
	}
	return projectID, issueID, commentID, nil
}

type commentRequest struct {
	Description string `json:"description"`
}

// Create handles POST .../issues/{issueID}/comments/.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, issueID, err := issuePath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in commentRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), p.ID, projectID, issueID, in.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// List handles GET .../issues/{issueID}/comments/.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, issueID, err := issuePath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	comments, err := h.comments.List(r.Context(), p.ID, projectID, issueID)
	if err != nil {
		writeError(w, err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// Get handles GET .../comments/{commentID}/.
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, issueID, commentID, err := commentPath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.comments.Get(r.Context(), p.ID, projectID, issueID, commentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// Update handles PATCH .../comments/{commentID}/.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, issueID, commentID, err := commentPath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in commentRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.comments.Update(r.Context(), p.ID, projectID, issueID, commentID, in.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// Delete handles DELETE .../comments/{commentID}/. Comment author only.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, issueID, commentID, err := commentPath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.comments.Delete(r.Context(), p.ID, projectID, issueID, commentID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
