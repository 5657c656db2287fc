/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/incomes, /api/expenses, /api/savings   Entry collections
  /api/templates/{kind}                       Template collections
  /api/longterm/*                             Plans and projections
  /api/scenarios/*                            Demo scenarios
  /health                                     Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/financeflow/generic"
)

// entryRoutes maps each entry kind to its collection path.
var entryRoutes = map[generic.Kind]string{
	generic.KindIncome:  "/incomes",
	generic.KindExpense: "/expenses",
	generic.KindSaving:  "/savings",
}

// NewRouter creates a new router with all routes configured. An empty
// allowedOrigins falls back to the local frontend dev servers.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		for _, kind := range generic.Kinds {
			r.Route(entryRoutes[kind], func(r chi.Router) {
				r.Get("/", h.ListEntries(kind))
				r.Post("/", h.CreateEntry(kind))
				r.Delete("/{id}", h.DeleteEntry(kind))
			})
		}

		r.Route("/templates/{kind}", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.CreateTemplate)
			r.Delete("/{id}", h.DeleteTemplate)
		})

		r.Route("/longterm", func(r chi.Router) {
			r.Route("/plans", func(r chi.Router) {
				r.Get("/", h.ListPlans)
				r.Post("/", h.CreatePlan)
				r.Get("/{id}", h.GetPlan)
				r.Delete("/{id}", h.DeletePlan)
				r.Put("/{id}/periods", h.ReplacePeriods)
				r.Get("/{id}/projection", h.ProjectPlan)
				r.Post("/{id}/projection", h.ProjectPlan)
			})
			r.Post("/projection", h.ProjectDraft)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found", nil)
	})

	return r
}
