package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
)

func (h *handler) financeSummary(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}

	sum, err := h.app.Finance.Summary(r.Context(), storeFrom(r.Context()).ID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *handler) financeDaily(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}

	days, err := h.app.Finance.ListDailySummaries(r.Context(), storeFrom(r.Context()).ID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// financeExport downloads the period's sales as CSV. The export is
// buffered so a failure partway still produces a clean JSON error
// instead of a truncated file.
func (h *handler) financeExport(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}

	st := storeFrom(r.Context())
	var buf bytes.Buffer
	if err := h.app.Finance.ExportSalesCSV(r.Context(), st.ID, from, to, &buf); err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("sales-%s.csv", st.Slug)
	if !from.IsZero() || !to.IsZero() {
		filename = fmt.Sprintf("sales-%s-%s-%s.csv", st.Slug, from.Format("20060102"), to.Format("20060102"))
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
