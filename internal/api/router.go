package api

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/erazemk/supermercado/internal/catalog"
	"github.com/erazemk/supermercado/internal/imaging"
	"github.com/erazemk/supermercado/internal/payment"
)

// Options configures the router.
type Options struct {
	// AdminSecret protects catalog mutations when set.
	AdminSecret string
	// ImageDir is served read-only under ImagePublicBase when set.
	ImageDir        string
	ImagePublicBase string
	// MaxUpload bounds multipart request bodies. Zero uses the image limit
	// plus room for form fields.
	MaxUpload      int64
	RequestTimeout time.Duration
}

// NewRouter creates the HTTP router with all endpoints registered. A nil
// gateway disables the payment endpoint.
func NewRouter(cat *catalog.Service, gateway *payment.Gateway, log *zap.Logger, opts Options) http.Handler {
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = imaging.MaxUploadSize + 1<<20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.ImagePublicBase == "" {
		opts.ImagePublicBase = "/imagenes"
	}

	products := &ProductsHandler{Catalog: cat, Log: log, MaxUpload: opts.MaxUpload}
	categories := &CategoriesHandler{Catalog: cat, Log: log}
	preferences := &PreferencesHandler{Gateway: gateway, Log: log}
	requireAdmin := RequireAdmin(opts.AdminSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, LoggingMiddleware(log), middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonMessage(w, http.StatusOK, "ok", nil)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/productos", func(r chi.Router) {
			r.Get("/", products.List)
			r.Get("/stocktotal", products.StockTotal)
			r.Get("/{id}", products.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", products.Create)
				r.Put("/{id}", products.Update)
				r.Patch("/{id}", products.Update)
				r.Delete("/{id}", products.Delete)
				r.Post("/{id}/imagen", products.UploadImage)
				r.Delete("/{id}/imagen", products.DeleteImage)
			})
		})

		r.Get("/categorias", categories.List)
		r.Post("/preferencias", preferences.Create)
	})

	if opts.ImageDir != "" {
		base := strings.TrimRight(opts.ImagePublicBase, "/")
		r.Handle(base+"/*", http.StripPrefix(base+"/", imageServer(opts.ImageDir)))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "recurso no encontrado")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, "método no permitido")
	})

	return r
}

// imageServer serves stored images without directory listings. Only files
// with an accepted image extension are served.
func imageServer(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") || !imaging.AllowedExt(path.Ext(r.URL.Path)) {
			jsonError(w, http.StatusNotFound, "recurso no encontrado")
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
