package handler

import (
	"net/http"

	"github.com/sakif/tracker/internal/model"
	"github.com/sakif/tracker/internal/service"
)

// IssueHandler serves /api/projects/{projectID}/issues.
type IssueHandler struct {
	issues *service.IssueService
}

func NewIssueHandler(issues *service.IssueService) *IssueHandler {
	return &IssueHandler{issues: issues}
}

// issuePath parses both ids of an issue route.
func issuePath(r *http.Request) (projectID, issueID int64, err error) {
	projectID, err = pathID(r, "projectID")
	if err != nil {
		return 0, 0, err
	}
	issueID, err = pathID(r, "issueID")
	if err != nil {
		return 0, 0, err
	}
	return projectID, issueID, nil
}

// Create handles POST /api/projects/{projectID}/issues/.
func (h *IssueHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.IssueInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	issue, err := h.issues.Create(r.Context(), p.ID, projectID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

// List handles GET /api/projects/{projectID}/issues/.
func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}

	issues, err := h.issues.List(r.Context(), p.ID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if issues == nil {
		issues = []model.Issue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

// Get handles GET /api/projects/{projectID}/issues/{issueID}/.
func (h *IssueHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, issueID, err := issuePath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.issues.Get(r.Context(), p.ID, projectID, issueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Update handles PATCH /api/projects/{projectID}/issues/{issueID}/.
func (h *IssueHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, issueID, err := issuePath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.IssueUpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	issue, err := h.issues.Update(r.Context(), p.ID, projectID, issueID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

// Delete handles DELETE /api/projects/{projectID}/issues/{issueID}/.
func (h *IssueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, issueID, err := issuePath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.issues.Delete(r.Context(), p.ID, projectID, issueID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
