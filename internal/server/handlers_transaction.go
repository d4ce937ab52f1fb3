package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/markhallen/portfoliopro/internal/interfaces"
	"github.com/markhallen/portfoliopro/internal/models"
)

type transactionRequest struct {
	Quantity        int64   `json:"quantity"`
	PricePerUnit    float64 `json:"price_per_unit"` // dollars
	Brokerage       float64 `json:"brokerage"`      // dollars
	TransactionDate string  `json:"transaction_date"`
	Type            string  `json:"type"`
}

// parseDate accepts RFC 3339 timestamps or bare dates.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected RFC 3339 or YYYY-MM-DD", value)
}

func (req *transactionRequest) toModel(holdingID string) (*models.Transaction, error) {
	txType := models.TransactionType(req.Type)
	if !txType.Valid() {
		return nil, fmt.Errorf("invalid transaction type %q", req.Type)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if req.PricePerUnit < 0 {
		return nil, fmt.Errorf("price_per_unit must not be negative")
	}
	date, err := parseDate(req.TransactionDate)
	if err != nil {
		return nil, err
	}
	return &models.Transaction{
		ID:              uuid.New().String(),
		HoldingID:       holdingID,
		Quantity:        req.Quantity,
		PricePerUnit:    dollarsToCents(req.PricePerUnit),
		Brokerage:       dollarsToCents(req.Brokerage),
		TransactionDate: date,
		Type:            txType,
	}, nil
}

// handleHoldingTransactions lists or records transactions for a holding.
// POST accepts a single transaction object or an array for bulk import.
func (s *Server) handleHoldingTransactions(w http.ResponseWriter, r *http.Request, holdingID string) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if _, ok := s.loadOwnedHolding(w, r, userID, holdingID); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		txs, err := s.app.Store.ListTransactions(r.Context(), holdingID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
			return
		}
		WriteJSON(w, http.StatusOK, txs)

	case http.MethodPost:
		var raw json.RawMessage
		if !DecodeJSON(w, r, &raw) {
			return
		}

		var reqs []transactionRequest
		if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
			if err := json.Unmarshal(raw, &reqs); err != nil {
				WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
				return
			}
		} else {
			var single transactionRequest
			if err := json.Unmarshal(raw, &single); err != nil {
				WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
				return
			}
			reqs = []transactionRequest{single}
		}
		if len(reqs) == 0 {
			WriteError(w, http.StatusBadRequest, "At least one transaction is required")
			return
		}

		// Validate everything before saving anything.
		txs := make([]*models.Transaction, 0, len(reqs))
		for i, req := range reqs {
			t, err := req.toModel(holdingID)
			if err != nil {
				WriteError(w, http.StatusBadRequest, fmt.Sprintf("transaction %d: %v", i, err))
				return
			}
			txs = append(txs, t)
		}

		for _, t := range txs {
			if err := s.app.Store.SaveTransaction(r.Context(), t); err != nil {
				s.logger.Error().Err(err).Str("holding_id", holdingID).Msg("Failed to save transaction")
				WriteError(w, http.StatusInternalServerError, "Failed to save transaction")
				return
			}
		}

		if len(txs) == 1 {
			WriteJSON(w, http.StatusCreated, txs[0])
			return
		}
		WriteJSON(w, http.StatusCreated, txs)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleTransactionByID handles GET/PUT/DELETE on a single transaction.
func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	id := PathParam(r, "/api/transactions/", "")
	if id == "" {
		WriteError(w, http.StatusNotFound, "Transaction ID is required")
		return
	}

	t, err := s.app.Store.GetTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Transaction not found")
		} else {
			WriteError(w, http.StatusInternalServerError, "Failed to load transaction")
		}
		return
	}
	if _, ok := s.loadOwnedHolding(w, r, userID, t.HoldingID); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		WriteJSON(w, http.StatusOK, t)

	case http.MethodPut:
		var req transactionRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		updated, err := req.toModel(t.HoldingID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		updated.ID = t.ID
		updated.CreatedAt = t.CreatedAt
		if err := s.app.Store.SaveTransaction(r.Context(), updated); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to update transaction")
			return
		}
		WriteJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.app.Store.DeleteTransaction(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
