package httpapi

import (
	"net/http"

	syncsvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/sync"
)

// syncReplay lands a till's offline queue. Results come back in queue
// order so the client can clear exactly what was acknowledged.
func (h *handler) syncReplay(w http.ResponseWriter, r *http.Request) {
	var in struct {
		DeviceID string             `json:"device_id"`
		Ops      []syncsvc.QueuedOp `json:"ops"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	results, err := h.app.Sync.Replay(r.Context(), storeFrom(r.Context()).ID, in.DeviceID, userFrom(r.Context()).ID, in.Ops)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *handler) syncPull(w http.ResponseWriter, r *http.Request) {
	since, err := queryTime(r, "since")
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.app.Sync.Pull(r.Context(), storeFrom(r.Context()).ID, since)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// events upgrades to a websocket scoped to the store's channel. Auth
// and membership were settled by the middleware chain.
func (h *handler) events(w http.ResponseWriter, r *http.Request) {
	h.app.Events.Serve(w, r, storeFrom(r.Context()).ID)
}
