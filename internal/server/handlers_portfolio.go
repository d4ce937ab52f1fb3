package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/markhallen/portfoliopro/internal/common"
	"github.com/markhallen/portfoliopro/internal/interfaces"
	"github.com/markhallen/portfoliopro/internal/models"
)

// requireUser resolves the authenticated user ID or writes 401.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := common.ResolveUserID(r.Context())
	if userID == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return userID, true
}

// loadOwnedPortfolio loads a portfolio and enforces ownership. Writes 404 for
// missing rows and 403 when the portfolio belongs to another user.
func (s *Server) loadOwnedPortfolio(w http.ResponseWriter, r *http.Request, userID, portfolioID string) (*models.Portfolio, bool) {
	p, err := s.app.Store.GetPortfolio(r.Context(), portfolioID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Portfolio not found")
		} else {
			s.logger.Error().Err(err).Str("portfolio_id", portfolioID).Msg("Failed to load portfolio")
			WriteError(w, http.StatusInternalServerError, "Failed to load portfolio")
		}
		return nil, false
	}
	if p.UserID != userID {
		WriteError(w, http.StatusForbidden, "You do not own this portfolio")
		return nil, false
	}
	return p, true
}

// loadOwnedHolding loads a holding and enforces ownership via its portfolio.
func (s *Server) loadOwnedHolding(w http.ResponseWriter, r *http.Request, userID, holdingID string) (*models.Holding, bool) {
	h, err := s.app.Store.GetHolding(r.Context(), holdingID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Holding not found")
		} else {
			s.logger.Error().Err(err).Str("holding_id", holdingID).Msg("Failed to load holding")
			WriteError(w, http.StatusInternalServerError, "Failed to load holding")
		}
		return nil, false
	}
	if _, ok := s.loadOwnedPortfolio(w, r, userID, h.PortfolioID); !ok {
		return nil, false
	}
	return h, true
}

type createPortfolioRequest struct {
	Name string `json:"name"`
}

// handlePortfolios lists the user's portfolio views or creates a portfolio.
func (s *Server) handlePortfolios(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		views, err := s.app.Portfolio.ListPortfolioViews(r.Context(), userID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list portfolios")
			WriteError(w, http.StatusInternalServerError, "Failed to list portfolios")
			return
		}
		WriteJSON(w, http.StatusOK, views)

	case http.MethodPost:
		var req createPortfolioRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			WriteError(w, http.StatusBadRequest, "Portfolio name is required")
			return
		}

		p := &models.Portfolio{
			ID:     uuid.New().String(),
			UserID: userID,
			Name:   req.Name,
		}
		if err := s.app.Store.SavePortfolio(r.Context(), p); err != nil {
			s.logger.Error().Err(err).Msg("Failed to save portfolio")
			WriteError(w, http.StatusInternalServerError, "Failed to create portfolio")
			return
		}
		WriteJSON(w, http.StatusCreated, p)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handlePortfolioByID handles GET/PUT/DELETE on a single portfolio.
func (s *Server) handlePortfolioByID(w http.ResponseWriter, r *http.Request, portfolioID string) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		if _, ok := s.loadOwnedPortfolio(w, r, userID, portfolioID); !ok {
			return
		}
		view, err := s.app.Portfolio.GetPortfolioView(r.Context(), portfolioID)
		if err != nil {
			s.logger.Error().Err(err).Str("portfolio_id", portfolioID).Msg("Failed to compose portfolio view")
			WriteError(w, http.StatusInternalServerError, "Failed to load portfolio")
			return
		}
		WriteJSON(w, http.StatusOK, view)

	case http.MethodPut:
		p, ok := s.loadOwnedPortfolio(w, r, userID, portfolioID)
		if !ok {
			return
		}
		var req createPortfolioRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			WriteError(w, http.StatusBadRequest, "Portfolio name is required")
			return
		}
		p.Name = req.Name
		if err := s.app.Store.SavePortfolio(r.Context(), p); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to update portfolio")
			return
		}
		WriteJSON(w, http.StatusOK, p)

	case http.MethodDelete:
		if _, ok := s.loadOwnedPortfolio(w, r, userID, portfolioID); !ok {
			return
		}
		if err := s.app.Store.DeletePortfolio(r.Context(), portfolioID); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to delete portfolio")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
