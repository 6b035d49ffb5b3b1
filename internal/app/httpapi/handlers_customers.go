package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	customersvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/customers"
	expensesvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/expenses"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
)

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.app.Customers.List(r.Context(), storeFrom(r.Context()).ID, r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in customersvc.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	c, err := h.app.Customers.Create(r.Context(), storeFrom(r.Context()).ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Customers.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if c.StoreID != storeFrom(r.Context()).ID {
		writeError(w, apperr.NotFound("customer not found"))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.ownCustomer(r); err != nil {
		writeError(w, err)
		return
	}

	var in customersvc.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	c, err := h.app.Customers.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.ownCustomer(r); err != nil {
		writeError(w, err)
		return
	}
	if err := h.app.Customers.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) customerPurchases(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sales, err := h.app.Customers.Purchases(r.Context(), storeFrom(r.Context()).ID, mux.Vars(r)["id"], limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *handler) ownCustomer(r *http.Request) error {
	c, err := h.app.Customers.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	if c.StoreID != storeFrom(r.Context()).ID {
		return apperr.NotFound("customer not found")
	}
	return nil
}

func (h *handler) listExpenses(w http.ResponseWriter, r *http.Request) {
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

	expenses, err := h.app.Expenses.List(r.Context(), storeFrom(r.Context()).ID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var in expensesvc.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	e, err := h.app.Expenses.Create(r.Context(), storeFrom(r.Context()).ID, userFrom(r.Context()).ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *handler) getExpense(w http.ResponseWriter, r *http.Request) {
	e, err := h.app.Expenses.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if e.StoreID != storeFrom(r.Context()).ID {
		writeError(w, apperr.NotFound("expense not found"))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.ownExpense(r); err != nil {
		writeError(w, err)
		return
	}

	var in expensesvc.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	e, err := h.app.Expenses.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.ownExpense(r); err != nil {
		writeError(w, err)
		return
	}
	if err := h.app.Expenses.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) ownExpense(r *http.Request) error {
	e, err := h.app.Expenses.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	if e.StoreID != storeFrom(r.Context()).ID {
		return apperr.NotFound("expense not found")
	}
	return nil
}
