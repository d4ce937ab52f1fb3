package server

import (
	"net/http"
	"strings"
)

// registerRoutes wires the REST API surface onto the mux. Collection routes
// are registered exactly; entity routes use prefix registration with manual
// dispatch on the remaining path segments.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Auth
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/logout", s.handleLogout)
	mux.HandleFunc("/api/auth/me", s.handleMe)

	// Investment catalog
	mux.HandleFunc("/api/investments", s.handleInvestments)
	mux.HandleFunc("/api/investments/", s.handleInvestmentByID)

	// Portfolios and nested resources
	mux.HandleFunc("/api/portfolios", s.handlePortfolios)
	mux.HandleFunc("/api/portfolios/", s.routePortfolios)

	// Holdings and nested resources
	mux.HandleFunc("/api/holdings/", s.routeHoldings)

	// Leaf entities
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/distributions/", s.handleDistributionByID)
}

// routePortfolios dispatches /api/portfolios/{id}[/...] requests.
func (s *Server) routePortfolios(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/portfolios/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		WriteError(w, http.StatusNotFound, "Portfolio ID is required")
		return
	}

	if len(parts) == 1 {
		s.handlePortfolioByID(w, r, id)
		return
	}

	switch parts[1] {
	case "holdings":
		s.handlePortfolioHoldings(w, r, id)
	case "tax-summary":
		s.handleTaxSummary(w, r, id)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeHoldings dispatches /api/holdings/{id}[/...] requests.
func (s *Server) routeHoldings(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/holdings/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		WriteError(w, http.StatusNotFound, "Holding ID is required")
		return
	}

	if len(parts) == 1 {
		s.handleHoldingByID(w, r, id)
		return
	}

	switch parts[1] {
	case "transactions":
		s.handleHoldingTransactions(w, r, id)
	case "distributions":
		s.handleHoldingDistributions(w, r, id)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}
