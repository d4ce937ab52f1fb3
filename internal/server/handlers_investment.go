package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/markhallen/portfoliopro/internal/interfaces"
	"github.com/markhallen/portfoliopro/internal/models"
)

type investmentRequest struct {
	Name          string  `json:"name"`
	Code          string  `json:"code"`
	Type          string  `json:"type"`
	ManagementFee float64 `json:"management_fee"` // percent
}

// handleInvestments lists the shared catalog or adds an entry to it.
func (s *Server) handleInvestments(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireUser(w, r); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		invs, err := s.app.Store.ListInvestments(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to list investments")
			return
		}
		WriteJSON(w, http.StatusOK, invs)

	case http.MethodPost:
		var req investmentRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
		if req.Name == "" || req.Code == "" {
			WriteError(w, http.StatusBadRequest, "Name and code are required")
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
			WriteError(w, http.StatusInternalServerError, "Failed to save investment")
			return
		}
		WriteJSON(w, http.StatusCreated, inv)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleInvestmentByID returns a single catalog entry.
func (s *Server) handleInvestmentByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := s.requireUser(w, r); !ok {
		return
	}

	id := PathParam(r, "/api/investments/", "")
	if id == "" {
		WriteError(w, http.StatusNotFound, "Investment ID is required")
		return
	}

	inv, err := s.app.Store.GetInvestment(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Investment not found")
		} else {
			WriteError(w, http.StatusInternalServerError, "Failed to load investment")
		}
		return
	}
	WriteJSON(w, http.StatusOK, inv)
}
