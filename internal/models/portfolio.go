// Package models defines data structures for PortfolioPro
package models

import "time"

// All monetary amounts are integer cents. Floating point never carries money;
// the only float fields are percentages derived at the end of a computation.

// TransactionType classifies a holding transaction.
type TransactionType string

const (
	TransactionBuy          TransactionType = "buy"
	TransactionSell         TransactionType = "sell"
	TransactionReinvestment TransactionType = "reinvestment"
)

// Valid reports whether the transaction type is one of the known values.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionBuy, TransactionSell, TransactionReinvestment:
		return true
	}
	return false
}

// Portfolio is a named collection of holdings owned by one user.
type Portfolio struct {
	ID        string    `json:"id" badgerhold:"key"`
	UserID    string    `json:"user_id" badgerhold:"index"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Holding is a position in one investment within one portfolio.
type Holding struct {
	ID           string    `json:"id" badgerhold:"key"`
	PortfolioID  string    `json:"portfolio_id" badgerhold:"index"`
	InvestmentID string    `json:"investment_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Investment is a catalog entry shared across holdings and portfolios.
type Investment struct {
	ID            string    `json:"id" badgerhold:"key"`
	Name          string    `json:"name"`
	Code          string    `json:"code"` // ticker, e.g. "VAS"
	ManagementFee int64     `json:"management_fee"` // basis points
	Type          string    `json:"type"`           // e.g. "stock", "etf", "bond"
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Transaction records a buy, sell, or reinvestment against a holding.
// Brokerage is informational only and excluded from cost-base math.
type Transaction struct {
	ID              string          `json:"id" badgerhold:"key"`
	HoldingID       string          `json:"holding_id" badgerhold:"index"`
	Quantity        int64           `json:"quantity"`
	PricePerUnit    int64           `json:"price_per_unit"` // cents
	Brokerage       int64           `json:"brokerage"`      // cents
	TransactionDate time.Time       `json:"transaction_date"`
	Type            TransactionType `json:"type"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Distribution records a cash or reinvested distribution event. A reinvested
// distribution does not itself create a transaction; the reinvestment
// transaction must be recorded separately with type "reinvestment".
type Distribution struct {
	ID           string    `json:"id" badgerhold:"key"`
	HoldingID    string    `json:"holding_id" badgerhold:"index"`
	DatePaid     time.Time `json:"date_paid"`
	GrossPayment int64     `json:"gross_payment"` // cents
	TaxWithheld  int64     `json:"tax_withheld"`  // cents
	Reinvested   bool      `json:"reinvested"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HoldingMetrics are the derived position metrics reduced from a holding's
// full transaction history. Never persisted; recomputed on every read.
type HoldingMetrics struct {
	Units        int64 `json:"units"`
	AveragePrice int64 `json:"average_price"` // cents, round-half-up
	CostBase     int64 `json:"cost_base"`     // cents, units × average price
}

// HoldingView is a holding enriched with its investment, transaction history,
// derived metrics, and live valuation.
type HoldingView struct {
	Holding
	Name                  string         `json:"name"`
	Code                  string         `json:"code"`
	Units                 int64          `json:"units"`
	AveragePrice          int64          `json:"average_price"`
	CostBase              int64          `json:"cost_base"`
	CurrentPrice          int64          `json:"current_price"`
	PriceEstimated        bool           `json:"price_estimated"` // true when no live quote; average cost substituted
	CurrentValue          int64          `json:"current_value"`
	UnrealisedGain        int64          `json:"unrealised_gain"`
	UnrealisedGainPercent float64        `json:"unrealised_gain_percent"`
	Investment            Investment     `json:"investment"`
	Transactions          []Transaction  `json:"transactions,omitempty"`
	Distributions         []Distribution `json:"distributions,omitempty"`
}

// PortfolioView is a portfolio with enriched holdings and aggregate totals.
// The total percentage is derived from summed cost base and value, never by
// summing per-holding percentages.
type PortfolioView struct {
	Portfolio
	Holdings                   []HoldingView `json:"holdings"`
	TotalCostBase              int64         `json:"total_cost_base"`
	TotalValue                 int64         `json:"total_value"`
	TotalUnrealisedGain        int64         `json:"total_unrealised_gain"`
	TotalUnrealisedGainPercent float64       `json:"total_unrealised_gain_percent"`
}
