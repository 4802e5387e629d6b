/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: Structured request logs (httplog, ECS schema)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. Heartbeat:     GET /healthz for health checks
  5. CORS:          Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/workbook/*     Whole-workbook operations
  /api/weeks/{week}/* Week views and cell edits
  /api/people/*       Roster operations across all weeks
  /api/revisions/*    Save history
  /api/scenarios/*    Demo workbooks
  /*                  Static files (frontend)

STATIC FILE SERVING:
  Serves the built frontend from web/dist/ when present.
  Falls back to index.html for client-side routing.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(h.Logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/workbook", func(r chi.Router) {
			r.Get("/", h.GetWorkbook)
			r.Put("/", h.ReplaceWorkbook)
			r.Get("/summary", h.GetSummary)
			r.Post("/import", h.ImportLegacy)
			r.Get("/issues", h.ListIssues)
		})
		r.Put("/title", h.SetTitle)
		r.Get("/time-options", h.TimeOptions)

		r.Route("/weeks/{week}", func(r chi.Router) {
			r.Get("/", h.GetWeek)
			r.Get("/payments", h.ListPayments)
			r.Get("/payments/{person}", h.GetPayment)
			r.Get("/totals", h.GetTotals)
			r.Put("/shifts/{person}/{day}", h.UpdateShift)
			r.Post("/shifts/{person}/{day}/toggle", h.ToggleDayOff)
			r.Put("/rates/{person}", h.UpdateRates)
			r.Put("/bonuses/{person}", h.UpdateBonus)
			r.Put("/dates/{day}", h.UpdateDate)
			r.Put("/labels/{key}", h.UpdateLabel)
		})

		r.Route("/people", func(r chi.Router) {
			r.Post("/", h.AddPerson)
			r.Put("/{person}", h.RenamePerson)
			r.Delete("/{person}", h.RemovePerson)
			r.Put("/{person}/leader", h.SetLeader)
		})

		r.Route("/revisions", func(r chi.Router) {
			r.Get("/", h.ListRevisions)
			r.Post("/{id}/restore", h.RestoreRevision)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	// Serve static files
	// First try ./web/dist, then relative to the executable
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, r.URL.Path)
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Shift Payroll</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Shift Payroll API</h1>
<p>The frontend is not built.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/workbook/summary">/api/workbook/summary</a> - Title, days and roster</li>
<li><a href="/api/weeks/1">/api/weeks/1</a> - First week with payments</li>
<li><a href="/api/revisions">/api/revisions</a> - Save history</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
