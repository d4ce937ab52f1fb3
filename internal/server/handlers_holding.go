package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/markhallen/portfoliopro/internal/models"
)

type createHoldingRequest struct {
	// Reference an existing catalog entry...
	InvestmentID string `json:"investment_id"`
	// ...or create one inline.
	Name          string  `json:"name"`
	Code          string  `json:"code"`
	Type          string  `json:"type"`
	ManagementFee float64 `json:"management_fee"` // percent, e.g. 0.10
}

// handlePortfolioHoldings lists or creates holdings under a portfolio.
func (s *Server) handlePortfolioHoldings(w http.ResponseWriter, r *http.Request, portfolioID string) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if _, ok := s.loadOwnedPortfolio(w, r, userID, portfolioID); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		holdings, err := s.app.Store.ListHoldings(r.Context(), portfolioID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to list holdings")
			return
		}
		WriteJSON(w, http.StatusOK, holdings)

	case http.MethodPost:
		var req createHoldingRequest
		if !DecodeJSON(w, r, &req) {
			return
		}

		investmentID := strings.TrimSpace(req.InvestmentID)
		if investmentID == "" {
			req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
			req.Name = strings.TrimSpace(req.Name)
			if req.Code == "" || req.Name == "" {
				WriteError(w, http.StatusBadRequest, "Either investment_id or name and code are required")
				return
			}
			inv := &models.Investment{
				ID:            uuid.New().String(),
				Name:          req.Name,
				Code:          req.Code,
				Type:          strings.TrimSpace(req.Type),
				ManagementFee: int64(req.ManagementFee * 100), // percent to basis points
			}
			if err := s.app.Store.SaveInvestment(r.Context(), inv); err != nil {
				WriteError(w, http.StatusInternalServerError, "Failed to create investment")
				return
			}
			investmentID = inv.ID
		} else if _, err := s.app.Store.GetInvestment(r.Context(), investmentID); err != nil {
			WriteError(w, http.StatusBadRequest, "Unknown investment_id")
			return
		}

		h := &models.Holding{
			ID:           uuid.New().String(),
			PortfolioID:  portfolioID,
			InvestmentID: investmentID,
		}
		if err := s.app.Store.SaveHolding(r.Context(), h); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to create holding")
			return
		}
		WriteJSON(w, http.StatusCreated, h)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

type updateHoldingRequest struct {
	InvestmentID string `json:"investment_id"`
}

// handleHoldingByID handles GET/PUT/DELETE on a single holding.
func (s *Server) handleHoldingByID(w http.ResponseWriter, r *http.Request, holdingID string) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		if _, ok := s.loadOwnedHolding(w, r, userID, holdingID); !ok {
			return
		}
		view, err := s.app.Portfolio.GetHoldingView(r.Context(), holdingID)
		if err != nil {
			s.logger.Error().Err(err).Str("holding_id", holdingID).Msg("Failed to compose holding view")
			WriteError(w, http.StatusInternalServerError, "Failed to load holding")
			return
		}
		WriteJSON(w, http.StatusOK, view)

	case http.MethodPut:
		h, ok := s.loadOwnedHolding(w, r, userID, holdingID)
		if !ok {
			return
		}
		var req updateHoldingRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		req.InvestmentID = strings.TrimSpace(req.InvestmentID)
		if req.InvestmentID == "" {
			WriteError(w, http.StatusBadRequest, "investment_id is required")
			return
		}
		if _, err := s.app.Store.GetInvestment(r.Context(), req.InvestmentID); err != nil {
			WriteError(w, http.StatusBadRequest, "Unknown investment_id")
			return
		}
		h.InvestmentID = req.InvestmentID
		if err := s.app.Store.SaveHolding(r.Context(), h); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to update holding")
			return
		}
		WriteJSON(w, http.StatusOK, h)

	case http.MethodDelete:
		if _, ok := s.loadOwnedHolding(w, r, userID, holdingID); !ok {
			return
		}
		if err := s.app.Store.DeleteHolding(r.Context(), holdingID); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to delete holding")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
