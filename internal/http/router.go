package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/ledgerly/internal/http/auth"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/company"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/dashboard"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/export"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/ledger"
)

type Handlers struct {
	Auth      *auth.Handler
	Company   *company.Handler
	Projects  *ledger.ProjectHandler
	Payments  *ledger.PaymentHandler
	Expenses  *ledger.ExpenseHandler
	Team      *ledger.TeamHandler
	Dashboard *dashboard.Handler
	Export    *export.Handler
}

// New builds the API router. Everything except /api/v1/auth goes through
// authenticate.
func New(h Handlers, authenticate func(http.Handler) http.Handler, allowedOrigins []string) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Auth.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/company", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Company.Routes(r)
			})

			// Statement uploads are multipart, so projects accept any content type.
			r.Route("/projects", h.Projects.Routes)

			r.Route("/payments", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Payments.Routes(r)
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Expenses.Routes(r)
			})

			r.Route("/team", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Team.Routes(r)
			})

			r.Route("/dashboard", h.Dashboard.Routes)
			r.Route("/export", h.Export.Routes)
		})
	})

	return router
}
