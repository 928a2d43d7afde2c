package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router builds the chi route tree. Account routes sit behind the guard and
// the admin check, so a request without a valid admin token gets 403 before
// its id is looked at.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(requireJSON)
	r.Use(limitBody(maxBodyBytes))

	r.Get("/", s.healthHandler)
	r.Get("/health", s.healthHandler)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/api-key", s.apiKeyHandler)
		r.Post("/password", s.passwordHandler)
		r.Post("/renew-token", s.renewTokenHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.guard)
		r.Use(requireAdmin)

		// /account is the older singular spelling of the same routes.
		for _, base := range []string{"/accounts", "/account"} {
			r.Route(base, func(r chi.Router) {
				r.Get("/", s.listAccountsHandler)
				r.Post("/", s.createAccountHandler)
				r.Get("/{id}", s.getAccountHandler)
				r.Put("/{id}/fields", s.replaceFieldsHandler)
				r.Delete("/{id}", s.deleteAccountHandler)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	})

	return r
}
