// Package tax implements the FIFO tax-lot engine: it consumes a holding's
// time-ordered transaction stream, matches sells against the oldest open
// lots first, and emits realised gains bucketed short/long term plus the
// remaining unrealised lot set.
package tax

import (
	"fmt"
	"sort"
	"time"

	"github.com/markhallen/portfoliopro/internal/models"
	"github.com/markhallen/portfoliopro/internal/services/portfolio"
)

// HoldingInput is one holding's already-authorized object graph.
type HoldingInput struct {
	Holding       models.Holding
	Investment    models.Investment
	Transactions  []models.Transaction
	Distributions []models.Distribution
}

// holdingResult is the engine output for a single holding before merging
// into the portfolio summary.
type holdingResult struct {
	realised      []models.RealisedGain
	openLots      []models.TaxLot
	oversoldUnits int64
}

// ComputeSummary runs the tax-lot engine over every holding of a portfolio.
// prices maps ticker code to current price in cents; codes with no quote
// fall back to the holding's average cost. The engine is pure: same inputs
// and clock yield byte-identical output.
//
// Inputs are defensively validated; a malformed transaction fails the whole
// computation rather than producing silently wrong numbers.
func ComputeSummary(p models.Portfolio, holdings []HoldingInput, prices map[string]int64, now time.Time) (*models.TaxSummary, error) {
	summary := &models.TaxSummary{
		PortfolioID:   p.ID,
		PortfolioName: p.Name,
		AsOf:          now,
		ShortTerm:     []models.RealisedGain{},
		LongTerm:      []models.RealisedGain{},
		Unrealised:    []models.UnrealisedHolding{},
	}

	for _, h := range holdings {
		if err := validateTransactions(h.Transactions); err != nil {
			return nil, fmt.Errorf("holding '%s' (%s): %w", h.Holding.ID, h.Investment.Code, err)
		}

		res := processHolding(h, now)

		for _, g := range res.realised {
			if g.LongTerm {
				summary.LongTerm = append(summary.LongTerm, g)
				summary.TotalLongTermGain += g.Gain
			} else {
				summary.ShortTerm = append(summary.ShortTerm, g)
				summary.TotalShortTermGain += g.Gain
			}
		}

		if res.oversoldUnits > 0 {
			summary.Oversold = append(summary.Oversold, models.OversellWarning{
				HoldingID: h.Holding.ID,
				Code:      h.Investment.Code,
				Units:     res.oversoldUnits,
			})
		}

		// Fully sold holdings are omitted from the unrealised list; their
		// realised gains stay in the buckets above.
		if unrealised := composeUnrealised(h, res.openLots, prices, now); unrealised != nil {
			summary.Unrealised = append(summary.Unrealised, *unrealised)
		}

		for _, d := range h.Distributions {
			summary.Distributions.GrossPayment += d.GrossPayment
			summary.Distributions.TaxWithheld += d.TaxWithheld
			if d.Reinvested {
				summary.Distributions.Reinvested++
			}
		}
	}

	summary.TotalGain = summary.TotalShortTermGain + summary.TotalLongTermGain
	return summary, nil
}

// validateTransactions rejects malformed rows before any money math runs.
func validateTransactions(transactions []models.Transaction) error {
	for _, t := range transactions {
		if !t.Type.Valid() {
			return fmt.Errorf("transaction '%s' has unknown type %q", t.ID, t.Type)
		}
		if t.Quantity <= 0 {
			return fmt.Errorf("transaction '%s' has non-positive quantity %d", t.ID, t.Quantity)
		}
		if t.PricePerUnit < 0 {
			return fmt.Errorf("transaction '%s' has negative price %d", t.ID, t.PricePerUnit)
		}
		if t.TransactionDate.IsZero() {
			return fmt.Errorf("transaction '%s' has no transaction date", t.ID)
		}
	}
	return nil
}

// processHolding replays one holding's transactions in date order through
// the lot queue. Buys and reinvestments push lots to the tail; sells consume
// from the head, oldest first.
func processHolding(h HoldingInput, now time.Time) holdingResult {
	// Stable sort: equal dates keep the caller's insertion order, making
	// queue construction deterministic.
	transactions := make([]models.Transaction, len(h.Transactions))
	copy(transactions, h.Transactions)
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].TransactionDate.Before(transactions[j].TransactionDate)
	})

	var res holdingResult
	var lots []models.TaxLot

	for _, t := range transactions {
		switch t.Type {
		case models.TransactionBuy, models.TransactionReinvestment:
			lots = append(lots, models.TaxLot{
				Date:        t.TransactionDate,
				Quantity:    t.Quantity,
				CostPerUnit: t.PricePerUnit,
			})

		case models.TransactionSell:
			remaining := t.Quantity
			for remaining > 0 && len(lots) > 0 {
				lot := &lots[0]

				take := lot.Quantity
				if remaining < take {
					take = remaining
				}

				proceeds := take * t.PricePerUnit
				lotCostBase := take * lot.CostPerUnit

				res.realised = append(res.realised, models.RealisedGain{
					HoldingID:        h.Holding.ID,
					Code:             h.Investment.Code,
					Name:             h.Investment.Name,
					Quantity:         take,
					AcquiredDate:     lot.Date,
					SaleDate:         t.TransactionDate,
					CostPerUnit:      lot.CostPerUnit,
					SalePricePerUnit: t.PricePerUnit,
					CostBase:         lotCostBase,
					Proceeds:         proceeds,
					Gain:             proceeds - lotCostBase,
					LongTerm:         models.IsLongTerm(lot.Date, t.TransactionDate),
					FinancialYear:    models.FinancialYear(t.TransactionDate),
				})

				lot.Quantity -= take
				remaining -= take
				if lot.Quantity == 0 {
					lots = lots[1:]
				}
			}

			// Queue exhausted with units still unmatched: the surplus
			// produces no realised record, only a surfaced warning count.
			if remaining > 0 {
				res.oversoldUnits += remaining
			}
		}
	}

	res.openLots = lots
	return res
}

// composeUnrealised turns the remaining lot queue into the holding's
// unrealised summary. Returns nil when no units remain.
func composeUnrealised(h HoldingInput, lots []models.TaxLot, prices map[string]int64, now time.Time) *models.UnrealisedHolding {
	var units int64
	for _, lot := range lots {
		units += lot.Quantity
	}
	if units == 0 {
		return nil
	}

	currentPrice, haveLive := prices[h.Investment.Code]
	if !haveLive {
		currentPrice = portfolio.ComputeMetrics(h.Transactions).AveragePrice
	}

	u := &models.UnrealisedHolding{
		HoldingID:      h.Holding.ID,
		Code:           h.Investment.Code,
		Name:           h.Investment.Name,
		Units:          units,
		CurrentPrice:   currentPrice,
		PriceEstimated: !haveLive,
		Lots:           make([]models.UnrealisedLot, 0, len(lots)),
	}

	for _, lot := range lots {
		gain := lot.Quantity * (currentPrice - lot.CostPerUnit)
		u.UnrealisedGain += gain
		u.Lots = append(u.Lots, models.UnrealisedLot{
			Date:           lot.Date,
			Quantity:       lot.Quantity,
			CostPerUnit:    lot.CostPerUnit,
			CurrentPrice:   currentPrice,
			UnrealisedGain: gain,
			LongTerm:       models.IsLongTerm(lot.Date, now),
		})
	}
	return u
}
