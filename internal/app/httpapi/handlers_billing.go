package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/billing"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
)

func (h *handler) getBilling(w http.ResponseWriter, r *http.Request) {
	storeID := storeFrom(r.Context()).ID
	sub, err := h.app.Billing.Subscription(r.Context(), storeID)
	if err != nil {
		writeError(w, err)
		return
	}
	plan, err := h.app.Billing.PlanFor(r.Context(), storeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subscription": sub, "plan": plan})
}

// activateBilling records a payment taken out of band, for shops that
// pay by mobile money transfer rather than through the provider flow.
func (h *handler) activateBilling(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Plan         billing.PlanName `json:"plan"`
		PeriodEndsAt time.Time        `json:"period_ends_at"`
		Reference    string           `json:"reference"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.app.Billing.Activate(r.Context(), storeFrom(r.Context()).ID, in.Plan, in.PeriodEndsAt, in.Reference)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *handler) cancelBilling(w http.ResponseWriter, r *http.Request) {
	sub, err := h.app.Billing.Cancel(r.Context(), storeFrom(r.Context()).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// billingWebhook receives provider notifications. The raw body is
// passed through untouched so the HMAC check sees exactly what was
// signed.
func (h *handler) billingWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, apperr.Invalid("read webhook payload: %v", err))
		return
	}
	defer r.Body.Close()

	if err := h.app.Billing.HandleWebhook(r.Context(), payload, r.Header.Get("X-Sedifex-Signature")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
