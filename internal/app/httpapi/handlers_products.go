package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	productsvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/products"
	stocksvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/stock"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
)

func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.ProductFilter{
		Search:       q.Get("search"),
		Category:     q.Get("category"),
		ActiveOnly:   q.Get("active") == "true",
		LowStockOnly: q.Get("low_stock") == "true",
	}

	items, err := h.app.Products.List(r.Context(), storeFrom(r.Context()).ID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in productsvc.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.app.Products.Create(r.Context(), storeFrom(r.Context()).ID, userFrom(r.Context()).ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Products.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if p.StoreID != storeFrom(r.Context()).ID {
		writeError(w, apperr.NotFound("product not found"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.ownProduct(r); err != nil {
		writeError(w, err)
		return
	}

	var in productsvc.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.app.Products.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.ownProduct(r); err != nil {
		writeError(w, err)
		return
	}
	if err := h.app.Products.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.app.Products.AdjustStock(r.Context(), storeFrom(r.Context()).ID, mux.Vars(r)["id"], userFrom(r.Context()).ID, in.Delta, in.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Products.LowStock(r.Context(), storeFrom(r.Context()).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ownProduct guards cross-store access on /products/{id} routes.
func (h *handler) ownProduct(r *http.Request) error {
	p, err := h.app.Products.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	if p.StoreID != storeFrom(r.Context()).ID {
		return apperr.NotFound("product not found")
	}
	return nil
}

func (h *handler) receiveStock(w http.ResponseWriter, r *http.Request) {
	var in stocksvc.ReceiveInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	p, m, err := h.app.Stock.Receive(r.Context(), storeFrom(r.Context()).ID, userFrom(r.Context()).ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"product": p, "movement": m})
}

func (h *handler) listMovements(w http.ResponseWriter, r *http.Request) {
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

	filter := storage.MovementFilter{
		ProductID: q.Get("product_id"),
		From:      from,
		To:        to,
		Limit:     limit,
	}

	moves, err := h.app.Stock.Movements(r.Context(), storeFrom(r.Context()).ID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, moves)
}

func (h *handler) stockLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.app.Stock.Levels(r.Context(), storeFrom(r.Context()).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}
