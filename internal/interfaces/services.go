package interfaces

import (
	"context"

	"github.com/markhallen/portfoliopro/internal/models"
)

// PortfolioService composes stored object graphs with live prices into
// derived views. All derived attributes are pure functions of the stored
// rows plus the price-oracle result at read time; nothing derived is cached.
type PortfolioService interface {
	// GetPortfolioView returns one portfolio with enriched holdings and
	// aggregate totals. One batched price lookup per call.
	GetPortfolioView(ctx context.Context, portfolioID string) (*models.PortfolioView, error)

	// ListPortfolioViews returns all of a user's portfolios enriched, with
	// ticker codes deduplicated across portfolios into one price batch.
	ListPortfolioViews(ctx context.Context, userID string) ([]models.PortfolioView, error)

	// GetHoldingView returns one holding enriched with metrics and valuation.
	GetHoldingView(ctx context.Context, holdingID string) (*models.HoldingView, error)
}

// TaxService runs the FIFO tax-lot engine over a portfolio's full
// transaction and distribution history.
type TaxService interface {
	GetTaxSummary(ctx context.Context, portfolioID string) (*models.TaxSummary, error)
}
