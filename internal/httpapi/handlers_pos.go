package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"kasirinaja/dashboard/internal/domain"
)

type stockAdjustRequest struct {
	Delta int `json:"delta"`
}

type restockRequest struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

type cartAddRequest struct {
	ProductID string `json:"product_id"`
}

type cartQuantityRequest struct {
	Delta int `json:"delta"`
}

type quoteRequest struct {
	DiscountPercent float64 `json:"discount_percent"`
	AmountReceived  int64   `json:"amount_received"`
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		products, err := a.service.ListProducts(q.Get("search"), q.Get("sort"), q.Get("direction"))
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	case http.MethodPost:
		var req domain.ProductInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, warnings, err := a.service.CreateProduct(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"product": product, "warnings": warnings})
	default:
		writeMethodNotAllowed(w)
	}
}

// handleProductActions serves /products/search, /products/{id} and the
// duplicate, stock and restock actions below it.
func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r, "/api/v1/products/")
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("product id required"))
		return
	}
	if tail == "search" {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		products, err := a.service.ListProducts(r.URL.Query().Get("q"), "", "")
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
		return
	}

	id, action, _ := strings.Cut(tail, "/")
	switch action {
	case "":
		a.handleProduct(w, r, id)
	case "duplicate":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		product, err := a.service.DuplicateProduct(r.Context(), id)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"product": product})
	case "stock":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req stockAdjustRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, err := a.service.AdjustStock(r.Context(), id, req.Delta)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case "restock":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req restockRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		entry, err := a.service.Restock(r.Context(), id, req.Quantity, req.Note)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"restock": entry})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown product action"))
	}
}

func (a *API) handleProduct(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		product, err := a.service.GetProduct(id)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodPatch:
		var req domain.ProductUpdate
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, warnings, err := a.service.UpdateProduct(r.Context(), id, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product, "warnings": warnings})
	case http.MethodDelete:
		a.service.DeleteProduct(r.Context(), id)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleRestockLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"restock_logs": a.service.RestockLogs()})
}

func (a *API) handleRemoteSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	synced := a.service.SyncFromRemote(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"synced": synced})
}

func (a *API) handleCart(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"cart":  a.service.CartView(),
			"state": a.service.CartState(),
		})
	case http.MethodDelete:
		a.service.ClearCart()
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCartItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req cartAddRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cart, err := a.service.AddToCart(strings.TrimSpace(req.ProductID))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cart": cart})
}

func (a *API) handleCartItemActions(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(pathTail(r, "/api/v1/cart/items/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("cart index must be a number"))
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var req cartQuantityRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		cart, err := a.service.UpdateCartQuantity(index, req.Delta)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cart": cart})
	case http.MethodDelete:
		writeJSON(w, http.StatusOK, map[string]any{"cart": a.service.RemoveFromCart(index)})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCartQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	quote, err := a.service.QuotePayment(req.DiscountPercent, req.AmountReceived)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quote": quote})
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := a.service.Checkout(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	txs, err := a.service.Transactions(q.Get("from"), q.Get("to"), parsePositiveLimit(q.Get("limit"), 100, 1000))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}
