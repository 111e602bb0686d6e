package api

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/erazemk/supermercado/internal/catalog"
	"github.com/erazemk/supermercado/internal/model"
)

// imageField is the form and JSON key carrying a product image.
const imageField = "imagen"

// ProductsHandler handles product endpoints.
type ProductsHandler struct {
	Catalog   *catalog.Service
	Log       *zap.Logger
	MaxUpload int64
}

type stockTotal struct {
	StockTotal int64 `json:"stocktotal"`
}

// productInput is a parsed create or update request.
type productInput struct {
	Fields     model.ProductFields
	Upload     *catalog.ImageUpload
	ClearImage bool
	file       multipart.File
}

func (in *productInput) Close() {
	if in.file != nil {
		in.file.Close()
	}
}

// List handles GET /api/productos.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.Catalog.ListProducts(r.Context(), filter)
	if err != nil {
		h.fail(w, err, "error al obtener los productos")
		return
	}
	jsonMessage(w, http.StatusOK, "productos obtenidos", products)
}

// StockTotal handles GET /api/productos/stocktotal.
func (h *ProductsHandler) StockTotal(w http.ResponseWriter, r *http.Request) {
	total := h.Catalog.TotalStock(r.Context())
	jsonMessage(w, http.StatusOK, "stock total obtenido", stockTotal{StockTotal: total})
}

// Get handles GET /api/productos/{id}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, err, "error al obtener el producto")
		return
	}
	jsonMessage(w, http.StatusOK, "producto obtenido", p)
}

// Create handles POST /api/productos.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := h.parseInput(w, r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer in.Close()

	p, err := h.Catalog.CreateProduct(r.Context(), in.Fields, in.Upload)
	if err != nil {
		h.fail(w, err, "error al crear el producto")
		return
	}
	jsonMessage(w, http.StatusCreated, "producto creado", p)
}

// Update handles PUT and PATCH /api/productos/{id}.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	in, err := h.parseInput(w, r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer in.Close()

	p, err := h.Catalog.UpdateProduct(r.Context(), id, in.Fields, in.Upload, in.ClearImage)
	if err != nil {
		h.fail(w, err, "error al actualizar el producto")
		return
	}
	jsonMessage(w, http.StatusOK, "producto actualizado", p)
}

// Delete handles DELETE /api/productos/{id}.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Catalog.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, err, "error al eliminar el producto")
		return
	}
	if claims := GetClaims(r.Context()); claims != nil {
		h.Log.Info("product deleted", zap.Int64("id", id), zap.String("by", claims.Subject))
	}
	jsonMessage(w, http.StatusOK, "producto eliminado", nil)
}

// UploadImage handles POST /api/productos/{id}/imagen.
func (h *ProductsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !isMultipart(r) {
		jsonError(w, http.StatusBadRequest, "se esperaba un formulario multipart con el campo imagen")
		return
	}
	in, err := h.parseInput(w, r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer in.Close()

	p, err := h.Catalog.UploadImage(r.Context(), id, in.Upload)
	if err != nil {
		h.fail(w, err, "error al subir la imagen")
		return
	}
	jsonMessage(w, http.StatusOK, "imagen actualizada", p)
}

// DeleteImage handles DELETE /api/productos/{id}/imagen.
func (h *ProductsHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.Catalog.DeleteImage(r.Context(), id)
	if err != nil {
		h.fail(w, err, "error al eliminar la imagen")
		return
	}
	jsonMessage(w, http.StatusOK, "imagen eliminada", p)
}

// fail maps catalog errors to HTTP statuses. Unexpected errors are logged
// and answered with fallback.
func (h *ProductsHandler) fail(w http.ResponseWriter, err error, fallback string) {
	var fieldErr *model.FieldError
	switch {
	case errors.As(err, &fieldErr), errors.Is(err, catalog.ErrInvalidArgument):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	default:
		h.Log.Error(fallback, zap.Error(err))
		jsonError(w, http.StatusInternalServerError, fallback)
	}
}

// parseFilter builds a product filter from the query string. Without any
// filter parameter every product is listed.
func parseFilter(r *http.Request) (*model.ProductFilter, error) {
	q := r.URL.Query()
	if !q.Has("q") && !q.Has("categoriaId") && !q.Has("all") {
		return nil, nil
	}

	filter := &model.ProductFilter{NamePrefix: strings.TrimSpace(q.Get("q"))}

	if v := strings.TrimSpace(q.Get("categoriaId")); v != "" {
		id, err := cast.ToInt64E(v)
		if err != nil || id <= 0 {
			return nil, errors.New("categoriaId inválido")
		}
		filter.CategoryID = &id
	}

	if v := strings.TrimSpace(q.Get("all")); v != "" {
		all, err := cast.ToBoolE(v)
		if err != nil {
			return nil, errors.New("all debe ser booleano")
		}
		filter.IncludeInactive = all
	} else if q.Has("all") {
		filter.IncludeInactive = true
	}

	return filter, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseInput reads product fields from a JSON body or a multipart form. An
// imagen value of null, "" or "null" without a file asks to clear the image.
func (h *ProductsHandler) parseInput(w http.ResponseWriter, r *http.Request) (*productInput, error) {
	in := &productInput{}
	raw := map[string]any{}

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
		if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, errors.New("la solicitud supera el tamaño máximo")
			}
			return nil, errors.New("formulario inválido")
		}
		for key, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				raw[key] = values[0]
			}
		}

		file, header, err := r.FormFile(imageField)
		switch {
		case err == nil:
			in.file = file
			in.Upload = &catalog.ImageUpload{Filename: header.Filename, Content: file}
		case !errors.Is(err, http.ErrMissingFile):
			return nil, errors.New("no se pudo leer la imagen")
		}
	} else {
		if err := decodeJSON(r, &raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.New("cuerpo de la solicitud inválido")
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	if v, ok := raw[imageField]; ok && in.Upload == nil && isClearSentinel(v) {
		in.ClearImage = true
	}
	delete(raw, imageField)

	fields, err := model.SanitizeProductInput(raw)
	if err != nil {
		return nil, err
	}
	in.Fields = fields
	return in, nil
}

func isClearSentinel(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		s = strings.TrimSpace(s)
		return s == "" || s == "null"
	}
	return false
}
