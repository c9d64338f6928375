package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/anvkup/avnmusicstudio/internal/adapters/http/middleware"
	"github.com/anvkup/avnmusicstudio/internal/core/ports"
)

type RouterDeps struct {
	Leads    ports.LeadSubmitter
	Content  ports.ContentResolver
	Throttle *middleware.Throttle
	SiteURL  string
	Logger   *slog.Logger
	// ProxyHops is the number of trusted proxies appending X-Forwarded-For.
	ProxyHops int
}

func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TrustProxyHops(deps.ProxyHops))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/healthz", Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.Throttle.Middleware)

		leads := NewLeadHandler(deps.Leads, logger)
		r.Post("/contact", leads.Submit)

		blog := NewBlogHandler(deps.Content, deps.SiteURL)
		r.Get("/blog", blog.List)
		r.Get("/blog/{slug}", blog.Get)
	})

	return r
}
