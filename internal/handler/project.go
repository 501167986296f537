package handler

import (
	"net/http"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/auth"
	"github.com/sakif/tracker/internal/model"
	"github.com/sakif/tracker/internal/service"
)

// ProjectHandler serves /api/projects and the nested contributor routes.
type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// principal pulls the authenticated user out of the context. The gate
// guarantees it is present on every protected route; a missing principal
// means a wiring mistake, answered with 401 rather than a panic.
func principal(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized(auth.MsgAuthFailed))
	}
	return p, ok
}

// Create handles POST /api/projects/.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var in service.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	project, err := h.projects.Create(r.Context(), p.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// List handles GET /api/projects/ — only projects the caller contributes to.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	projects, err := h.projects.List(r.Context(), p.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// Get handles GET /api/projects/{projectID}/.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.projects.Get(r.Context(), p.ID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Update handles PATCH /api/projects/{projectID}/.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.ProjectUpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	project, err := h.projects.Update(r.Context(), p.ID, projectID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Delete handles DELETE /api/projects/{projectID}/.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.projects.Delete(r.Context(), p.ID, projectID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListContributors handles GET /api/projects/{projectID}/users/.
func (h *ProjectHandler) ListContributors(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}

	contributors, err := h.projects.ListContributors(r.Context(), p.ID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if contributors == nil {
		contributors = []model.Contributor{}
	}
	writeJSON(w, http.StatusOK, contributors)
}

type addContributorRequest struct {
	User int64 `json:"user"`
}

// AddContributor handles POST /api/projects/{projectID}/users/.
func (h *ProjectHandler) AddContributor(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}

	var in addContributorRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	contributor, err := h.projects.AddContributor(r.Context(), p.ID, projectID, in.User)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contributor)
}
