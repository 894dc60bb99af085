package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tillpoint/internal/domain"
	"tillpoint/internal/export"
	"tillpoint/internal/report"
)

type inventoryRequest struct {
	Name         string `json:"name" validate:"required,max=64"`
	DefaultPrice string `json:"default_price" validate:"required"`
	Active       *bool  `json:"active"`
}

type saleLineRequest struct {
	Name      string  `json:"name" validate:"required,max=64"`
	UnitPrice *string `json:"unit_price"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := a.decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := a.service.ListInventory(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleAddInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := a.decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	price, err := domain.ParsePrice(req.DefaultPrice)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	id, err := a.service.AddInventoryItem(r.Context(), req.Name, price)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (a *API) handleEditInventory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req inventoryRequest
	if err := a.decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Active == nil {
		a.fail(w, r, domain.Invalid("active is required"))
		return
	}
	price, err := domain.ParsePrice(req.DefaultPrice)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	item := domain.InventoryItem{ID: id, Name: strings.TrimSpace(req.Name), DefaultPrice: price, Active: *req.Active}
	if err := a.service.EditInventoryItem(r.Context(), item); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if err := a.service.SetInventoryActive(r.Context(), id, active); err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": active})
	}
}

func (a *API) handleSelectable(w http.ResponseWriter, r *http.Request) {
	selectable, err := a.service.SelectableItems(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectable)
}

func (a *API) handleDefaultPrice(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		a.fail(w, r, domain.Invalid("name is required"))
		return
	}
	price, err := a.service.LookupDefaultPrice(r.Context(), name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "default_price": price})
}

func (a *API) handleOpenSale(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.service.OpenSale(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

func (a *API) handleGetSale(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.service.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (a *API) handleDiscardSale(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DiscardSale(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAddSaleLine(w http.ResponseWriter, r *http.Request) {
	var req saleLineRequest
	if err := a.decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	line := domain.SaleLineRequest{Name: req.Name, Quantity: req.Quantity}
	if req.UnitPrice != nil {
		price, err := domain.ParsePrice(*req.UnitPrice)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		line.UnitPrice = &price
	}

	snapshot, err := a.service.AddSaleLine(r.Context(), chi.URLParam(r, "id"), line)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (a *API) handleClearSale(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.service.ClearSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (a *API) handleCompleteSale(w http.ResponseWriter, r *http.Request) {
	tx, err := a.service.CompleteSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (a *API) handleParkSale(w http.ResponseWriter, r *http.Request) {
	parked, err := a.service.ParkSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, parked)
}

func (a *API) handleResumeSale(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.service.ResumeSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

func (a *API) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	window, bucket, err := windowAndBucket(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	txs, err := a.service.ListTransactions(r.Context(), window, bucket)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (a *API) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	tx, err := a.service.GetTransaction(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (a *API) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	window, bucket, err := windowAndBucket(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	txs, err := a.service.ListTransactions(r.Context(), window, bucket)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTransactions(&buf, txs); err != nil {
		a.fail(w, r, err)
		return
	}

	filename := fmt.Sprintf("transactions-%s-%s.xlsx", window, bucket)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *API) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	window, bucket, err := windowAndBucket(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	summary, err := a.service.Summarize(r.Context(), window, bucket)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func windowAndBucket(r *http.Request) (report.Window, report.Bucket, error) {
	window, err := report.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		return "", "", err
	}
	bucket, err := report.ParseBucket(r.URL.Query().Get("bucket"))
	if err != nil {
		return "", "", err
	}
	return window, bucket, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Invalid("invalid id %q", raw)
	}
	return id, nil
}

