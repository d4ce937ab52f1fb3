package server

import (
	"net/http"
)

// handleTaxSummary computes the FIFO capital-gains report for a portfolio.
func (s *Server) handleTaxSummary(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if _, ok := s.loadOwnedPortfolio(w, r, userID, portfolioID); !ok {
		return
	}

	summary, err := s.app.Tax.GetTaxSummary(r.Context(), portfolioID)
	if err != nil {
		s.logger.Error().Err(err).Str("portfolio_id", portfolioID).Msg("Failed to compute tax summary")
		WriteError(w, http.StatusInternalServerError, "Failed to compute tax summary")
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}
