package models

import (
	"fmt"
	"time"
)

// LongTermHoldingPeriod is the holding period beyond which a disposal (or an
// open lot measured against "now") is classified long-term. Exactly 365 days
// of 24 hours, a fixed simplification rather than twelve calendar months.
const LongTermHoldingPeriod = 365 * 24 * time.Hour

// IsLongTerm reports whether the span from acquisition to disposal exceeds
// the long-term holding period.
func IsLongTerm(acquired, disposed time.Time) bool {
	return disposed.Sub(acquired) > LongTermHoldingPeriod
}

// TaxLot is a discrete acquisition batch of units at a specific price and
// date, tracked for FIFO cost-basis matching.
type TaxLot struct {
	Date        time.Time `json:"date"`
	Quantity    int64     `json:"quantity"`      // always >= 0; exhausted lots are removed
	CostPerUnit int64     `json:"cost_per_unit"` // cents
}

// RealisedGain is one FIFO match of sold units against an acquisition lot.
type RealisedGain struct {
	HoldingID        string    `json:"holding_id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Quantity         int64     `json:"quantity"`
	AcquiredDate     time.Time `json:"acquired_date"`
	SaleDate         time.Time `json:"sale_date"`
	CostPerUnit      int64     `json:"cost_per_unit"`       // cents
	SalePricePerUnit int64     `json:"sale_price_per_unit"` // cents
	CostBase         int64     `json:"cost_base"`           // cents
	Proceeds         int64     `json:"proceeds"`            // cents
	Gain             int64     `json:"gain"`                // cents, signed
	LongTerm         bool      `json:"long_term"`
	FinancialYear    string    `json:"financial_year"` // July–June year of the sale, e.g. "2024-2025"
}

// UnrealisedLot is an open lot remaining after all sells are matched.
type UnrealisedLot struct {
	Date           time.Time `json:"date"`
	Quantity       int64     `json:"quantity"`
	CostPerUnit    int64     `json:"cost_per_unit"`   // cents
	CurrentPrice   int64     `json:"current_price"`   // cents; average cost when no live quote
	UnrealisedGain int64     `json:"unrealised_gain"` // cents, quantity × (current − cost)
	LongTerm       bool      `json:"long_term"`       // held longer than the long-term period as of "now"
}

// UnrealisedHolding summarises the open lots of one holding. Holdings with
// zero remaining units are omitted from the summary entirely.
type UnrealisedHolding struct {
	HoldingID      string          `json:"holding_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Units          int64           `json:"units"`
	CurrentPrice   int64           `json:"current_price"`
	PriceEstimated bool            `json:"price_estimated"`
	UnrealisedGain int64           `json:"unrealised_gain"`
	Lots           []UnrealisedLot `json:"lots"`
}

// OversellWarning flags sold units that could not be matched to any recorded
// lot. The unmatched quantity produces no realised-gain record.
type OversellWarning struct {
	HoldingID string `json:"holding_id"`
	Code      string `json:"code"`
	Units     int64  `json:"units"`
}

// DistributionIncome aggregates distribution cash flows.
type DistributionIncome struct {
	GrossPayment int64 `json:"gross_payment"` // cents
	TaxWithheld  int64 `json:"tax_withheld"`  // cents
	Reinvested   int   `json:"reinvested"`    // count of reinvested events
}

// TaxSummary is the point-in-time capital-gains report for one portfolio.
// Totals are plain sums; there is no loss carry-forward across years.
type TaxSummary struct {
	PortfolioID        string              `json:"portfolio_id"`
	PortfolioName      string              `json:"portfolio_name"`
	AsOf               time.Time           `json:"as_of"`
	ShortTerm          []RealisedGain      `json:"short_term"`
	LongTerm           []RealisedGain      `json:"long_term"`
	Unrealised         []UnrealisedHolding `json:"unrealised"`
	Oversold           []OversellWarning   `json:"oversold,omitempty"`
	TotalShortTermGain int64               `json:"total_short_term_gain"`
	TotalLongTermGain  int64               `json:"total_long_term_gain"`
	TotalGain          int64               `json:"total_gain"`
	Distributions      DistributionIncome  `json:"distributions"`
}

// FinancialYear returns the Australian financial year (July–June) containing
// the given date, formatted as "2024-2025".
func FinancialYear(date time.Time) string {
	year := date.Year()
	if date.Month() >= time.July {
		return fmt.Sprintf("%d-%d", year, year+1)
	}
	return fmt.Sprintf("%d-%d", year-1, year)
}
