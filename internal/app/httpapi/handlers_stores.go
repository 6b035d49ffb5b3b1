package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/store"
	storesvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/stores"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
)

// createStore onboards a store with the caller as owner and a trial
// subscription already in place.
func (h *handler) createStore(w http.ResponseWriter, r *http.Request) {
	var in storesvc.InitializeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	st, m, err := h.app.Stores.Initialize(r.Context(), userFrom(r.Context()).ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"store": st, "membership": m})
}

func (h *handler) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.app.Stores.ListForUser(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stores)
}

func (h *handler) getStore(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storeFrom(r.Context()))
}

func (h *handler) updateStore(w http.ResponseWriter, r *http.Request) {
	var in storesvc.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	st, err := h.app.Stores.Update(r.Context(), storeFrom(r.Context()).ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.app.Stores.ListMembers(r.Context(), storeFrom(r.Context()).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *handler) addMember(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string     `json:"email"`
		Role  store.Role `json:"role"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.app.Stores.AddMember(r.Context(), storeFrom(r.Context()).ID, userFrom(r.Context()).ID, in.Email, in.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *handler) updateMemberRole(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Role store.Role `json:"role"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.Role == "" {
		writeError(w, apperr.Invalid("role is required"))
		return
	}

	m, err := h.app.Stores.UpdateMemberRole(r.Context(), storeFrom(r.Context()).ID, mux.Vars(r)["userID"], in.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *handler) removeMember(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Stores.RemoveMember(r.Context(), storeFrom(r.Context()).ID, mux.Vars(r)["userID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
