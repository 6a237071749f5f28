package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type Handlers struct {
	Catalog *CatalogHandler
	Cart    *CartHandler
	Likes   *LikesHandler
	Auth    *AuthHandler
}

func NewRouter(cfg RouterConfig, h Handlers, tokens TokenParser, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(middleware.Compress(5))
	r.Use(SessionMiddleware(tokens))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/images", func(r chi.Router) {
			r.Get("/", h.Catalog.List)
			r.Get("/{id}", h.Catalog.Get)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Post("/items", h.Cart.AddItem)
		})
		r.Route("/likes", func(r chi.Router) {
			r.Get("/", h.Likes.List)
			r.Post("/{id}/toggle", h.Likes.Toggle)
		})
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signin", h.Auth.SignIn)
			r.Post("/signout", h.Auth.SignOut)
		})
		r.Get("/me", h.Auth.Me)
	})

	return otelhttp.NewHandler(r, "storefront")
}
