package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/supermercado/internal/catalog"
)

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	Catalog *catalog.Service
	Log     *zap.Logger
}

// List handles GET /api/categorias.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Catalog.ListCategories(r.Context())
	if err != nil {
		h.Log.Error("listing categories", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "error al obtener las categorías")
		return
	}
	jsonMessage(w, http.StatusOK, "categorías obtenidas", categories)
}
