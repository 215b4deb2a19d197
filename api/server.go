/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the mobile/web clients

ROUTE GROUPS:
  /api/attendance/*    Punch capture, summaries, CSV export
  /api/office/*        Geofence profile
  /api/payroll/*       Payroll runs, lines, policy
  /api/employees       Salary profiles

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Attendance routes
		r.Route("/attendance", func(r chi.Router) {
			r.Post("/punch-in", h.PunchIn)
			r.Post("/punch-out", h.PunchOut)
			r.Get("/summary", h.GetAttendanceSummary)
			r.Get("/today", h.GetTodayAttendance)
			r.Get("/export/monthly", h.ExportMonthlyCSV)
		})

		// Office geofence profile
		r.Route("/office", func(r chi.Router) {
			r.Get("/config", h.GetOfficeConfig)
			r.Post("/config", h.SaveOfficeConfig)
		})

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Post("/process", h.ProcessPayroll)
			r.Get("/lines", h.ListPayrollLines)
			r.Get("/policy", h.GetPayrollPolicy)
			r.Put("/policy", h.PutPayrollPolicy)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
		})
	})

	return r
}
