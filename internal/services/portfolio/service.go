package portfolio

import (
	"context"
	"fmt"

	"github.com/markhallen/portfoliopro/internal/common"
	"github.com/markhallen/portfoliopro/internal/interfaces"
	"github.com/markhallen/portfoliopro/internal/models"
)

// Service implements PortfolioService. It holds no cache; every view is
// recomputed from the stored graph plus one price-oracle round trip.
type Service struct {
	store  interfaces.PortfolioStore
	prices interfaces.PriceClient
	logger *common.Logger
}

// NewService creates a new portfolio service
func NewService(store interfaces.PortfolioStore, prices interfaces.PriceClient, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		prices: prices,
		logger: logger,
	}
}

// holdingGraph is a holding with its relations resolved.
type holdingGraph struct {
	holding       models.Holding
	investment    models.Investment
	transactions  []models.Transaction
	distributions []models.Distribution
}

// loadHoldingGraphs resolves every holding of a portfolio with its
// investment, transactions, and distributions.
func (s *Service) loadHoldingGraphs(ctx context.Context, portfolioID string) ([]holdingGraph, error) {
	holdings, err := s.store.ListHoldings(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	graphs := make([]holdingGraph, 0, len(holdings))
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
		graphs = append(graphs, holdingGraph{
			holding:       h,
			investment:    *inv,
			transactions:  txs,
			distributions: dists,
		})
	}
	return graphs, nil
}

// uniqueCodes deduplicates ticker codes across holding graphs so the price
// oracle is queried once per code per request.
func uniqueCodes(graphs []holdingGraph) []string {
	seen := make(map[string]bool, len(graphs))
	codes := make([]string, 0, len(graphs))
	for _, g := range graphs {
		if code := g.investment.Code; code != "" && !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes
}

// composeHoldingView builds the enriched view for one holding graph.
func composeHoldingView(g holdingGraph, prices map[string]int64) models.HoldingView {
	metrics := ComputeMetrics(g.transactions)
	live, haveLive := prices[g.investment.Code]
	valuation := ComposeValuation(metrics, live, haveLive)

	return models.HoldingView{
		Holding:               g.holding,
		Name:                  g.investment.Name,
		Code:                  g.investment.Code,
		Units:                 metrics.Units,
		AveragePrice:          metrics.AveragePrice,
		CostBase:              metrics.CostBase,
		CurrentPrice:          valuation.CurrentPrice,
		PriceEstimated:        valuation.PriceEstimated,
		CurrentValue:          valuation.CurrentValue,
		UnrealisedGain:        valuation.UnrealisedGain,
		UnrealisedGainPercent: valuation.UnrealisedGainPercent,
		Investment:            g.investment,
		Transactions:          g.transactions,
		Distributions:         g.distributions,
	}
}

// composePortfolioView assembles the portfolio view from pre-fetched graphs
// and prices.
func composePortfolioView(p models.Portfolio, graphs []holdingGraph, prices map[string]int64) *models.PortfolioView {
	holdings := make([]models.HoldingView, 0, len(graphs))
	for _, g := range graphs {
		holdings = append(holdings, composeHoldingView(g, prices))
	}

	view := &models.PortfolioView{
		Portfolio: p,
		Holdings:  holdings,
	}
	view.TotalCostBase, view.TotalValue, view.TotalUnrealisedGain, view.TotalUnrealisedGainPercent = ComposeTotals(holdings)
	return view
}

// GetPortfolioView returns one portfolio with enriched holdings and totals.
func (s *Service) GetPortfolioView(ctx context.Context, portfolioID string) (*models.PortfolioView, error) {
	p, err := s.store.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	graphs, err := s.loadHoldingGraphs(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	prices, err := s.prices.GetPrices(ctx, uniqueCodes(graphs))
	if err != nil {
		return nil, fmt.Errorf("price batch failed: %w", err)
	}

	return composePortfolioView(*p, graphs, prices), nil
}

// ListPortfolioViews returns all of a user's portfolios enriched. Codes are
// deduplicated across every portfolio into a single oracle round trip.
func (s *Service) ListPortfolioViews(ctx context.Context, userID string) ([]models.PortfolioView, error) {
	portfolios, err := s.store.ListPortfolios(ctx, userID)
	if err != nil {
		return nil, err
	}

	graphsByPortfolio := make([][]holdingGraph, len(portfolios))
	var all []holdingGraph
	for i, p := range portfolios {
		graphs, err := s.loadHoldingGraphs(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		graphsByPortfolio[i] = graphs
		all = append(all, graphs...)
	}

	prices, err := s.prices.GetPrices(ctx, uniqueCodes(all))
	if err != nil {
		return nil, fmt.Errorf("price batch failed: %w", err)
	}

	views := make([]models.PortfolioView, 0, len(portfolios))
	for i, p := range portfolios {
		views = append(views, *composePortfolioView(p, graphsByPortfolio[i], prices))
	}
	return views, nil
}

// GetHoldingView returns one holding enriched with metrics and valuation.
func (s *Service) GetHoldingView(ctx context.Context, holdingID string) (*models.HoldingView, error) {
	h, err := s.store.GetHolding(ctx, holdingID)
	if err != nil {
		return nil, err
	}
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

	g := holdingGraph{holding: *h, investment: *inv, transactions: txs, distributions: dists}

	prices := map[string]int64{}
	if cents, err := s.prices.GetPrice(ctx, inv.Code); err == nil {
		prices[inv.Code] = cents
	} else if err != interfaces.ErrPriceUnavailable {
		s.logger.Warn().Err(err).Str("code", inv.Code).Msg("Price lookup failed, using average cost")
	}

	view := composeHoldingView(g, prices)
	return &view, nil
}
