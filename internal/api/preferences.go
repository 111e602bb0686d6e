package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/supermercado/internal/payment"
)

// PreferencesHandler handles checkout preference endpoints.
type PreferencesHandler struct {
	Gateway *payment.Gateway
	Log     *zap.Logger
}

type createPreferenceRequest struct {
	Items []payment.CartItem `json:"items"`
}

type preferenceResponse struct {
	Message string `json:"message"`
	*payment.Preference
}

// Create handles POST /api/preferencias.
func (h *PreferencesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Gateway == nil {
		jsonError(w, http.StatusServiceUnavailable, "pagos no configurados")
		return
	}

	var req createPreferenceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, payment.ErrInvalidCart.Error())
		return
	}

	pref, err := h.Gateway.CreatePreference(r.Context(), req.Items)
	switch {
	case errors.Is(err, payment.ErrInvalidCart):
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.Log.Error("creating preference", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, preferenceResponse{Message: "preferencia creada", Preference: pref})
}
