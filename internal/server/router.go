package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// routes builds the chi router for the registry API.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.rateLimit)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/files", func(r chi.Router) {
			r.Post("/", s.instrument("AddFile", s.handleAddFile))
			r.Get("/mine", s.instrument("GetMyFiles", s.handleGetMyFiles))
			r.Get("/public", s.instrument("GetPublicFiles", s.handleGetPublicFiles))
			r.Get("/{id}", s.instrument("GetFile", s.handleGetFile))
			r.Delete("/{id}", s.instrument("DeleteFile", s.handleDeleteFile))
		})

		r.Route("/users/{identity}", func(r chi.Router) {
			r.Get("/files", s.instrument("GetUserFiles", s.handleGetUserFiles))
			r.Get("/access", s.instrument("GetAccessSummary", s.handleGetAccessSummary))
		})

		r.Route("/access", func(r chi.Router) {
			r.Route("/account", func(r chi.Router) {
				r.Post("/", s.instrument("GrantAccountAccess", s.handleGrantAccount))
				r.Get("/", s.instrument("GetAccountAccessList", s.handleAccountAccessList))
				r.Get("/users", s.instrument("ListAccessUsers", s.handleListAccessUsers))
				r.Delete("/{grantee}", s.instrument("RevokeAccountAccess", s.handleRevokeAccount))
			})
			r.Route("/files", func(r chi.Router) {
				r.Post("/", s.instrument("GrantFileAccess", s.handleGrantFile))
				r.Get("/", s.instrument("GetFileAccessList", s.handleFileAccessList))
				r.Delete("/{id}/{grantee}", s.instrument("RevokeFileAccess", s.handleRevokeFile))
			})
		})

		r.Get("/events", s.instrument("Events", s.handleEvents))
	})

	return r
}
