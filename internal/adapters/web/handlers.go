package web

import (
	"errors"
	"net/http"
	"strconv"

	"pharmacy-backend/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler serves the REST API on top of the ApplicationService.
type Handler struct {
	svc app.ApplicationService
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	r.Post("/api/medicines", h.createMedicine)
	r.Get("/api/medicines", h.listMedicines)

	r.Post("/api/batches", h.addBatch)
	r.Get("/api/medicines/{id}/batches", h.listBatches)
	r.Get("/api/inventory", h.inventoryStatus)

	r.Post("/api/purchase-orders", h.createPurchaseOrder)
	r.Get("/api/purchase-orders", h.listPurchaseOrders)
	r.Get("/api/purchase-orders/{id}", h.getPurchaseOrder)

	r.Post("/api/prescriptions", h.createPrescription)
	r.Get("/api/prescriptions/{id}", h.getPrescription)

	r.Post("/api/sales", h.processSale)
	r.Get("/api/sales/{id}", h.getSale)

	r.Post("/api/reorder/suggest", h.suggestReorder)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Service string `json:"service"`
		Status  string `json:"status"`
	}
	writeJSON(w, http.StatusOK, response{Service: "pharmacy-backend", Status: "ok"})
}

// idParam extracts a positive integer {id} URL parameter.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	var req app.CreateMedicineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.CreateMedicine(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	req := app.ListMedicinesRequest{
		Name:     r.URL.Query().Get("name"),
		Category: r.URL.Query().Get("category"),
	}
	if raw := r.URL.Query().Get("prescription_required"); raw != "" {
		v := raw == "true"
		req.PrescriptionRequired = &v
	}
	result, err := h.svc.ListMedicines(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) addBatch(w http.ResponseWriter, r *http.Request) {
	var req app.AddBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.svc.AddBatch(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) listBatches(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListBatches(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) inventoryStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetInventoryStatus(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) createPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var req app.CreatePurchaseOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	po, err := h.svc.CreatePurchaseOrder(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, po)
}

func (h *Handler) listPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListPurchaseOrders(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	po, err := h.svc.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (h *Handler) createPrescription(w http.ResponseWriter, r *http.Request) {
	var req app.CreatePrescriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreatePrescription(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) getPrescription(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetPrescription(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) processSale(w http.ResponseWriter, r *http.Request) {
	var req app.ProcessSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sale, err := h.svc.ProcessSale(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (h *Handler) suggestReorder(w http.ResponseWriter, r *http.Request) {
	var req app.SuggestReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	proposal, err := h.svc.SuggestReorder(r.Context(), req)
	if err != nil {
		if errors.Is(err, app.ErrAgentUnavailable) {
			writeError(w, r, err.Error(), "AGENT_UNAVAILABLE", http.StatusServiceUnavailable)
			return
		}
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}
