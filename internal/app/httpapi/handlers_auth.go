package httpapi

import (
	"net/http"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/users"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
)

// register creates the account and opens a first session so the
// frontend can go straight to store setup.
func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var in users.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.app.Users.Register(r.Context(), in); err != nil {
		writeError(w, err)
		return
	}

	u, token, err := h.app.Users.Login(r.Context(), in.Email, in.Password, r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": u, "token": token})
}

func (h *handler) loginUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	u, token, err := h.app.Users.Login(r.Context(), in.Email, in.Password, r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": u, "token": token})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Users.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// me returns the caller's profile with their store memberships, which
// is all the frontend needs to route after a reload.
func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	stores, err := h.app.Stores.ListForUser(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": u, "stores": stores})
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in struct {
		DisplayName *string `json:"display_name,omitempty"`
		Phone       *string `json:"phone,omitempty"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.app.Users.UpdateProfile(r.Context(), userFrom(r.Context()).ID, in.DisplayName, in.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.CurrentPassword == "" || in.NewPassword == "" {
		writeError(w, apperr.Invalid("current_password and new_password are required"))
		return
	}

	if err := h.app.Users.ChangePassword(r.Context(), userFrom(r.Context()).ID, in.CurrentPassword, in.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}
