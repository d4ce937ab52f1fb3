// Package portfolio composes stored object graphs with live prices into
// derived holding and portfolio views.
package portfolio

import "github.com/markhallen/portfoliopro/internal/models"

// ComputeMetrics reduces a holding's transaction history to units held,
// average price, and cost base. Order-independent: buys and reinvestments
// accumulate units and cost, sells decrement units only. Cost base stays at
// average-cost basis here; FIFO lot consumption is the tax engine's concern.
//
// Empty input yields all zeros. Never errors.
func ComputeMetrics(transactions []models.Transaction) models.HoldingMetrics {
	var totalUnits, totalCost int64

	for _, t := range transactions {
		switch t.Type {
		case models.TransactionBuy, models.TransactionReinvestment:
			totalUnits += t.Quantity
			totalCost += t.Quantity * t.PricePerUnit
		case models.TransactionSell:
			totalUnits -= t.Quantity
		}
	}

	metrics := models.HoldingMetrics{Units: totalUnits}
	if totalUnits > 0 {
		metrics.AveragePrice = roundHalfUp(totalCost, totalUnits)
		metrics.CostBase = totalUnits * metrics.AveragePrice
	}
	return metrics
}

// roundHalfUp divides total cents by n units, rounding half-up on the cent.
// Callers guarantee n > 0 and total >= 0.
func roundHalfUp(total, n int64) int64 {
	return (total + n/2) / n
}
