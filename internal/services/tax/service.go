package tax

import (
	"context"
	"fmt"
	"time"

	"github.com/markhallen/portfoliopro/internal/common"
	"github.com/markhallen/portfoliopro/internal/interfaces"
	"github.com/markhallen/portfoliopro/internal/models"
)

// Service implements TaxService: it loads the portfolio graph, fetches one
// batched price round trip, and hands everything to the pure engine.
type Service struct {
	store  interfaces.PortfolioStore
	prices interfaces.PriceClient
	logger *common.Logger
}

// NewService creates a new tax service
func NewService(store interfaces.PortfolioStore, prices interfaces.PriceClient, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		prices: prices,
		logger: logger,
	}
}

// GetTaxSummary computes the point-in-time FIFO capital-gains report for a
// portfolio.
func (s *Service) GetTaxSummary(ctx context.Context, portfolioID string) (*models.TaxSummary, error) {
	p, err := s.store.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	holdings, err := s.store.ListHoldings(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	inputs := make([]HoldingInput, 0, len(holdings))
	codes := make([]string, 0, len(holdings))
	seen := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		inv, err := s.store.GetInvestment(ctx, h.InvestmentID)
		if err != nil {
			return nil, fmt.Errorf("holding '%s' references missing investment: %w", h.ID, err)
		}
		txs, err := s.store.ListTransactions(ctx, h.ID)
		if err != nil {
			return nil, err
		}
		dists, err := s.store.ListDistributions(ctx, h.ID)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, HoldingInput{
			Holding:       h,
			Investment:    *inv,
			Transactions:  txs,
			Distributions: dists,
		})
		if !seen[inv.Code] {
			seen[inv.Code] = true
			codes = append(codes, inv.Code)
		}
	}

	prices, err := s.prices.GetPrices(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("price batch failed: %w", err)
	}

	summary, err := ComputeSummary(*p, inputs, prices, time.Now())
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("portfolio_id", portfolioID).
		Int("short_term", len(summary.ShortTerm)).
		Int("long_term", len(summary.LongTerm)).
		Int("unrealised", len(summary.Unrealised)).
		Msg("Tax summary computed")

	return summary, nil
}
