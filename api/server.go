/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/entries/*    Journal entries: post, reverse, audit trail
  /api/accounts/*   Chart of accounts and balances
  /api/mappings     Transaction type to account bindings
  /api/tax-codes    Tax code configuration
  /api/periods/*    Accounting periods and locking
  /api/reports/*    Trial balance, VAT, aging
  /api/invoices     Sales invoice posting
  /api/bills        Vendor bill posting
  /api/payroll/*    Payroll accrual and settlement
  /api/assets/*     Asset register, depreciation, disposal
  /api/stock/*      Stock movements
  /api/projects/*   Project expenses

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Journal entry routes
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.PostEntry)
			r.Get("/{number}", h.GetEntry)
			r.Post("/{number}/reverse", h.ReverseEntry)
			r.Get("/{number}/audit", h.GetAuditTrail)
		})

		// Chart of accounts routes
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{code}", h.GetAccount)
			r.Get("/{code}/balance", h.GetAccountBalance)
		})

		// Configuration routes
		r.Route("/mappings", func(r chi.Router) {
			r.Get("/", h.ListMappings)
			r.Post("/", h.SaveMapping)
		})
		r.Route("/tax-codes", func(r chi.Router) {
			r.Get("/", h.ListTaxCodes)
			r.Post("/", h.SaveTaxCode)
		})
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/", h.CreateCalendar)
			r.Post("/{name}/lock", h.LockPeriod)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/trial-balance", h.GetTrialBalance)
			r.Get("/vat", h.GetVATSummary)
			r.Get("/aging/receivables", h.GetAgedReceivables)
			r.Get("/aging/payables", h.GetAgedPayables)
		})

		// Document routes
		r.Post("/invoices", h.PostInvoice)
		r.Post("/bills", h.PostBill)
		r.Route("/payroll", func(r chi.Router) {
			r.Post("/runs", h.PostPayrollRun)
			r.Post("/payments", h.PostPayrollPayment)
		})
		r.Route("/assets", func(r chi.Router) {
			r.Get("/", h.ListAssets)
			r.Post("/", h.CreateAsset)
			r.Post("/depreciation-run", h.RunDepreciation)
			r.Post("/{code}/dispose", h.DisposeAsset)
		})
		r.Post("/stock/movements", h.PostStockMovement)
		r.Post("/projects/expenses", h.PostProjectExpense)
	})

	return r
}
