package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/receipt"
	salesvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/sales"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
)

func (h *handler) commitSale(w http.ResponseWriter, r *http.Request) {
	var in salesvc.CommitInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	s, err := h.app.Sales.Commit(r.Context(), storeFrom(r.Context()).ID, userFrom(r.Context()).ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
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
	limit, _ := strconv.Atoi(q.Get("limit"))

	filter := storage.SaleFilter{
		From:       from,
		To:         to,
		CashierID:  q.Get("cashier_id"),
		CustomerID: q.Get("customer_id"),
		Limit:      limit,
	}

	sales, err := h.app.Sales.List(r.Context(), storeFrom(r.Context()).ID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *handler) getSale(w http.ResponseWriter, r *http.Request) {
	s, err := h.app.Sales.Get(r.Context(), storeFrom(r.Context()).ID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handler) voidSale(w http.ResponseWriter, r *http.Request) {
	s, err := h.app.Sales.Void(r.Context(), storeFrom(r.Context()).ID, mux.Vars(r)["id"], userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// saleReceipt renders the 32-column till slip as plain text. The
// cashier name is best effort; a deleted account prints without one.
func (h *handler) saleReceipt(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r.Context())
	s, err := h.app.Sales.Get(r.Context(), st.ID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	cashier := ""
	if u, err := h.app.Users.Get(r.Context(), s.CashierID); err == nil {
		cashier = u.DisplayName
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(receipt.Render(st, s, cashier)))
}
