// Package interfaces defines service contracts for PortfolioPro
package interfaces

import (
	"context"
	"errors"

	"github.com/markhallen/portfoliopro/internal/models"
)

// ErrNotFound is returned (wrapped) by store lookups when no row exists for
// the given key. Callers branch on it with errors.Is.
var ErrNotFound = errors.New("not found")

// PortfolioStore is the embedded relational-style store for all domain rows.
// Deletes cascade parent to child: deleting a portfolio removes its holdings,
// and deleting a holding removes its transactions and distributions.
type PortfolioStore interface {
	// Users
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error

	// Investments (shared catalog)
	GetInvestment(ctx context.Context, id string) (*models.Investment, error)
	ListInvestments(ctx context.Context) ([]models.Investment, error)
	SaveInvestment(ctx context.Context, inv *models.Investment) error

	// Portfolios
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error)
	SavePortfolio(ctx context.Context, p *models.Portfolio) error
	DeletePortfolio(ctx context.Context, id string) error

	// Holdings
	GetHolding(ctx context.Context, id string) (*models.Holding, error)
	ListHoldings(ctx context.Context, portfolioID string) ([]models.Holding, error)
	SaveHolding(ctx context.Context, h *models.Holding) error
	DeleteHolding(ctx context.Context, id string) error

	// Transactions
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, holdingID string) ([]models.Transaction, error)
	SaveTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	// Distributions
	GetDistribution(ctx context.Context, id string) (*models.Distribution, error)
	ListDistributions(ctx context.Context, holdingID string) ([]models.Distribution, error)
	SaveDistribution(ctx context.Context, d *models.Distribution) error
	DeleteDistribution(ctx context.Context, id string) error

	Close() error
}
