package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/markhallen/portfoliopro/internal/interfaces"
	"github.com/markhallen/portfoliopro/internal/models"
)

type distributionRequest struct {
	DatePaid     string  `json:"date_paid"`
	GrossPayment float64 `json:"gross_payment"` // dollars
	TaxWithheld  float64 `json:"tax_withheld"`  // dollars
	Reinvested   bool    `json:"reinvested"`
}

func (req *distributionRequest) toModel(holdingID string) (*models.Distribution, error) {
	date, err := parseDate(req.DatePaid)
	if err != nil {
		return nil, err
	}
	return &models.Distribution{
		ID:           uuid.New().String(),
		HoldingID:    holdingID,
		DatePaid:     date,
		GrossPayment: dollarsToCents(req.GrossPayment),
		TaxWithheld:  dollarsToCents(req.TaxWithheld),
		Reinvested:   req.Reinvested,
	}, nil
}

// handleHoldingDistributions lists or records distributions for a holding.
func (s *Server) handleHoldingDistributions(w http.ResponseWriter, r *http.Request, holdingID string) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if _, ok := s.loadOwnedHolding(w, r, userID, holdingID); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		dists, err := s.app.Store.ListDistributions(r.Context(), holdingID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to list distributions")
			return
		}
		WriteJSON(w, http.StatusOK, dists)

	case http.MethodPost:
		var req distributionRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		d, err := req.toModel(holdingID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.app.Store.SaveDistribution(r.Context(), d); err != nil {
			s.logger.Error().Err(err).Str("holding_id", holdingID).Msg("Failed to save distribution")
			WriteError(w, http.StatusInternalServerError, "Failed to save distribution")
			return
		}
		WriteJSON(w, http.StatusCreated, d)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleDistributionByID handles GET/PUT/DELETE on a single distribution.
func (s *Server) handleDistributionByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	id := PathParam(r, "/api/distributions/", "")
	if id == "" {
		WriteError(w, http.StatusNotFound, "Distribution ID is required")
		return
	}

	d, err := s.app.Store.GetDistribution(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Distribution not found")
		} else {
			WriteError(w, http.StatusInternalServerError, "Failed to load distribution")
		}
		return
	}
	if _, ok := s.loadOwnedHolding(w, r, userID, d.HoldingID); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		WriteJSON(w, http.StatusOK, d)

	case http.MethodPut:
		var req distributionRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		updated, err := req.toModel(d.HoldingID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		updated.ID = d.ID
		updated.CreatedAt = d.CreatedAt
		if err := s.app.Store.SaveDistribution(r.Context(), updated); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to update distribution")
			return
		}
		WriteJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.app.Store.DeleteDistribution(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to delete distribution")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
