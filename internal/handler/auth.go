package handler

import (
	"net/http"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/auth"
	"github.com/sakif/tracker/internal/service"
)

// AuthHandler serves registration, the token endpoints, logout and the
// caller's own account.
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Signup handles POST /api/auth/signup/.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Signup(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token handles POST /api/token/ and returns an access/refresh pair.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.auth.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Refresh handles POST /api/token/refresh/.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	access, err := h.auth.Refresh(r.Context(), in.Refresh)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

// Logout handles POST /api/auth/logout/. Always 205: the refresh token is
// blacklisted best-effort and the client discards its copy either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeJSON(r, &in); err == nil && in.Refresh != "" {
		h.auth.Logout(r.Context(), in.Refresh)
	}
	w.WriteHeader(http.StatusResetContent)
}

// Account handles GET /api/auth/account/.
func (h *AuthHandler) Account(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized(auth.MsgAuthFailed))
		return
	}

	user, err := h.auth.Account(r.Context(), principal.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateAccount handles PATCH /api/auth/account/. Omitted fields keep
// their value.
func (h *AuthHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized(auth.MsgAuthFailed))
		return
	}

	var in service.AccountUpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.UpdateAccount(r.Context(), principal.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteAccount handles DELETE /api/auth/account/.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized(auth.MsgAuthFailed))
		return
	}

	if err := h.auth.DeleteAccount(r.Context(), principal.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
