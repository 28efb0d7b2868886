package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"usps-gateway/internal/usps"
	"usps-gateway/internal/usps/intl"
	"usps-gateway/internal/usps/labels"
)

func (h *Handlers) sendLabel(w http.ResponseWriter, r *http.Request, status int, result *usps.LabelResult, err error) {
	if err != nil {
		h.sendJSONError(w, r, err)
		return
	}
	res := usps.ToResult(result.ToMap(), nil)
	res.StatusCode = status
	h.sendResult(w, res)
}

// CreateLabel creates a domestic shipping label
// @Summary Create domestic label
// @Description Authorizes payment and creates a label. The image is returned base64-encoded.
// @Tags labels
// @Accept json
// @Produce json
// @Param request body labels.LabelRequest true "Label request"
// @Success 201 {object} usps.Result "Label"
// @Failure 422 {object} usps.Result "Invalid label request"
// @Router /api/labels [post]
func (h *Handlers) CreateLabel(w http.ResponseWriter, r *http.Request) {
	if h.services.Labels == nil {
		h.sendJSONError(w, r, accountNotConfigured("Labels"))
		return
	}
	var req labels.LabelRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.sendBadRequest(w, err)
		return
	}
	result, err := h.services.Labels.CreateLabel(r.Context(), req)
	h.sendLabel(w, r, http.StatusCreated, result, err)
}

// CreateReturnLabel creates a domestic return label
// @Summary Create return label
// @Tags labels
// @Accept json
// @Produce json
// @Param request body labels.LabelRequest true "Label request"
// @Success 201 {object} usps.Result "Label"
// @Router /api/labels/return [post]
func (h *Handlers) CreateReturnLabel(w http.ResponseWriter, r *http.Request) {
	if h.services.Labels == nil {
		h.sendJSONError(w, r, accountNotConfigured("Labels"))
		return
	}
	var req labels.LabelRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.sendBadRequest(w, err)
		return
	}
	result, err := h.services.Labels.CreateReturnLabel(r.Context(), req)
	h.sendLabel(w, r, http.StatusCreated, result, err)
}

// EditLabel applies JSON Patch edits to a label
// @Summary Edit label
// @Tags labels
// @Accept json
// @Produce json
// @Param trackingNumber path string true "Tracking number"
// @Param request body []labels.PatchOperation true "Edits"
// @Success 200 {object} usps.Result "Edited label"
// @Router /api/labels/{trackingNumber} [patch]
func (h *Handlers) EditLabel(w http.ResponseWriter, r *http.Request) {
	if h.services.Labels == nil {
		h.sendJSONError(w, r, accountNotConfigured("Labels"))
		return
	}
	var edits []labels.PatchOperation
	if err := decodeJSON(r, &edits, false); err != nil {
		h.sendBadRequest(w, err)
		return
	}
	data, err := h.services.Labels.EditLabel(r.Context(), mux.Vars(r)["trackingNumber"], edits)
	if err != nil {
		h.sendJSONError(w, r, err)
		return
	}
	h.sendResult(w, usps.ToResult(data, nil))
}

// CancelLabel cancels an unused domestic label
// @Summary Cancel label
// @Tags labels
// @Produce json
// @Param trackingNumber path string true "Tracking number"
// @Success 200 {object} usps.Result "Cancellation"
// @Router /api/labels/{trackingNumber} [delete]
func (h *Handlers) CancelLabel(w http.ResponseWriter, r *http.Request) {
	if h.services.Labels == nil {
		h.sendJSONError(w, r, accountNotConfigured("Labels"))
		return
	}
	data, err := h.services.Labels.CancelLabel(r.Context(), mux.Vars(r)["trackingNumber"])
	if err != nil {
		h.sendJSONError(w, r, err)
		return
	}
	h.sendResult(w, usps.ToResult(data, nil))
}

// ReprintLabel returns a domestic label image again
// @Summary Reprint label
// @Tags labels
// @Accept json
// @Produce json
// @Param trackingNumber path string true "Tracking number"
// @Param request body labels.ImageOptions false "Image options"
// @Success 200 {object} usps.Result "Label"
// @Router /api/labels/{trackingNumber}/reprint [post]
func (h *Handlers) ReprintLabel(w http.ResponseWriter, r *http.Request) {
	if h.services.Labels == nil {
		h.sendJSONError(w, r, accountNotConfigured("Labels"))
		return
	}
	var image labels.ImageOptions
	if err := decodeJSON(r, &image, true); err != nil {
		h.sendBadRequest(w, err)
		return
	}
	result, err := h.services.Labels.ReprintLabel(r.Context(), mux.Vars(r)["trackingNumber"], image)
	h.sendLabel(w, r, http.StatusOK, result, err)
}

// CreateInternationalLabel creates an international label
// @Summary Create international label
// @Tags international-labels
// @Accept json
// @Produce json
// @Param request body intl.LabelRequest true "Label request with customs form"
// @Success 201 {object} usps.Result "Label"
// @Failure 422 {object} usps.Result "Invalid label request"
// @Router /api/international-labels [post]
func (h *Handlers) CreateInternationalLabel(w http.ResponseWriter, r *http.Request) {
	if h.services.International == nil {
		h.sendJSONError(w, r, accountNotConfigured("International labels"))
		return
	}
	var req intl.LabelRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.sendBadRequest(w, err)
		return
	}
	result, err := h.services.International.CreateLabel(r.Context(), req)
	h.sendLabel(w, r, http.StatusCreated, result, err)
}

// CancelInternationalLabel cancels an unused international label
// @Summary Cancel international label
// @Tags international-labels
// @Produce json
// @Param trackingNumber path string true "13-character tracking number"
// @Success 200 {object} usps.Result "Cancellation"
// @Router /api/international-labels/{trackingNumber} [delete]
func (h *Handlers) CancelInternationalLabel(w http.ResponseWriter, r *http.Request) {
	if h.services.International == nil {
		h.sendJSONError(w, r, accountNotConfigured("International labels"))
		return
	}
	data, err := h.services.International.CancelLabel(r.Context(), mux.Vars(r)["trackingNumber"])
	if err != nil {
		h.sendJSONError(w, r, err)
		return
	}
	h.sendResult(w, usps.ToResult(data, nil))
}

// ReprintInternationalLabel returns an international label image again
// @Summary Reprint international label
// @Tags international-labels
// @Accept json
// @Produce json
// @Param trackingNumber path string true "13-character tracking number"
// @Param request body intl.ImageInfo false "Image options"
// @Success 200 {object} usps.Result "Label"
// @Router /api/international-labels/{trackingNumber}/reprint [post]
func (h *Handlers) ReprintInternationalLabel(w http.ResponseWriter, r *http.Request) {
	if h.services.International == nil {
		h.sendJSONError(w, r, accountNotConfigured("International labels"))
		return
	}
	var image intl.ImageInfo
	if err := decodeJSON(r, &image, true); err != nil {
		h.sendBadRequest(w, err)
		return
	}
	result, err := h.services.International.ReprintLabel(r.Context(), mux.Vars(r)["trackingNumber"], image)
	h.sendLabel(w, r, http.StatusOK, result, err)
}
