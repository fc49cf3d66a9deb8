/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:   Unique ID per request for tracing
  2. RealIP:      Client address from proxy headers
  3. Logger:      Structured request logging (logrus)
  4. Recoverer:   Panic recovery (500 instead of crash)
  5. CORS:        Cross-origin requests, origins from config
  6. BillingGate: 402 for tenants with overdue platform billing
                  (students and fee structures only)

ROUTE GROUPS:
  /api/tenants/*         Tenants and platform billing
  /api/fee-structures/*  Fee structure management (gated)
  /api/students/*        Students, payments, dues (gated)
  /api/scenarios/*       Demo scenarios
  /api/admin/*           Admin operations
  /healthz               Liveness and database ping

SECURITY NOTE:
  No authentication middleware. X-Tenant-ID is trusted as sent.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", TenantHeader, "Idempotency-Key"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Tenant and platform billing routes
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Get("/{id}/billing", h.GetBillingStatus)
			r.Post("/{id}/billing/schedules", h.CreateBillingSchedule)
			r.Post("/{id}/billing/schedules/{scheduleID}/pay", h.PayBillingSchedule)
		})

		// Tenant-scoped routes, blocked while platform billing is overdue
		r.Group(func(r chi.Router) {
			r.Use(h.BillingGate)

			r.Route("/fee-structures", func(r chi.Router) {
				r.Get("/", h.ListFeeStructures)
				r.Post("/", h.CreateFeeStructure)
				r.Get("/{id}", h.GetFeeStructure)
			})

			r.Route("/students", func(r chi.Router) {
				r.Get("/", h.ListStudents)
				r.Post("/", h.CreateStudent)
				r.Get("/{id}", h.GetStudent)
				r.Get("/{id}/payments", h.ListPayments)
				r.Post("/{id}/payments", h.RecordPayment)
				r.Get("/{id}/dues", h.GetDues)
				r.Get("/{id}/late-fees", h.GetLateFees)
			})
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/sweep", h.RunSweep)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// BillingGate rejects requests whose X-Tenant-ID names a tenant with an
// overdue billing schedule. Requests without the header pass through.
func (h *Handler) BillingGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := tenantFrom(r)
		if tenantID == "" {
			next.ServeHTTP(w, r)
			return
		}
		if err := h.Gate.Check(r.Context(), tenantID); err != nil {
			h.writeDomainError(w, r, "Billing check failed", err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health pings the database.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one structured line per request.
func requestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.WithFields(logrus.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start).String(),
					"remote":     r.RemoteAddr,
				}).Info("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
