// Package portfoliodb implements PortfolioStore using BadgerHold.
// It owns users, the investment catalog, portfolios, holdings, transactions,
// and distributions, with parent→child cascade deletes.
package portfoliodb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/markhallen/portfoliopro/internal/common"
	"github.com/markhallen/portfoliopro/internal/interfaces"
	"github.com/markhallen/portfoliopro/internal/models"
)

// Store implements interfaces.PortfolioStore backed by a single BadgerHold
// database. Row-level writes are atomic; cross-row cascade deletes are
// best-effort sweeps in child-first order.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens (or creates) the store at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("Portfolio store opened")
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Users ---

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.Get(id, &user); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("user '%s': %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", id, err)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	var users []models.User
	if err := s.db.Find(&users, badgerhold.Where("Email").Eq(email).Index("Email")); err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user with email '%s': %w", email, interfaces.ErrNotFound)
	}
	return &users[0], nil
}

func (s *Store) SaveUser(_ context.Context, user *models.User) error {
	now := time.Now()
	var existing models.User
	if err := s.db.Get(user.ID, &existing); err == nil {
		user.CreatedAt = existing.CreatedAt
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if err := s.db.Upsert(user.ID, user); err != nil {
		return fmt.Errorf("failed to save user '%s': %w", user.ID, err)
	}
	s.logger.Debug().Str("user_id", user.ID).Msg("User saved")
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	portfolios, err := s.ListPortfolios(ctx, id)
	if err == nil {
		for _, p := range portfolios {
			_ = s.DeletePortfolio(ctx, p.ID)
		}
	}
	if err := s.db.Delete(id, models.User{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete user '%s': %w", id, err)
	}
	s.logger.Debug().Str("user_id", id).Msg("User deleted")
	return nil
}

// --- Investments ---

func (s *Store) GetInvestment(_ context.Context, id string) (*models.Investment, error) {
	var inv models.Investment
	if err := s.db.Get(id, &inv); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("investment '%s': %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get investment '%s': %w", id, err)
	}
	return &inv, nil
}

func (s *Store) ListInvestments(_ context.Context) ([]models.Investment, error) {
	var invs []models.Investment
	if err := s.db.Find(&invs, nil); err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	sort.Slice(invs, func(i, j int) bool { return invs[i].Name < invs[j].Name })
	return invs, nil
}

func (s *Store) SaveInvestment(_ context.Context, inv *models.Investment) error {
	now := time.Now()
	var existing models.Investment
	if err := s.db.Get(inv.ID, &existing); err == nil {
		inv.CreatedAt = existing.CreatedAt
	} else if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now

	if err := s.db.Upsert(inv.ID, inv); err != nil {
		return fmt.Errorf("failed to save investment '%s': %w", inv.ID, err)
	}
	return nil
}

// --- Portfolios ---

func (s *Store) GetPortfolio(_ context.Context, id string) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := s.db.Get(id, &p); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("portfolio '%s': %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get portfolio '%s': %w", id, err)
	}
	return &p, nil
}

func (s *Store) ListPortfolios(_ context.Context, userID string) ([]models.Portfolio, error) {
	var portfolios []models.Portfolio
	if err := s.db.Find(&portfolios, badgerhold.Where("UserID").Eq(userID).Index("UserID")); err != nil {
		return nil, fmt.Errorf("failed to list portfolios for user '%s': %w", userID, err)
	}
	sortByCreated(portfolios, func(p models.Portfolio) (time.Time, string) { return p.CreatedAt, p.ID })
	return portfolios, nil
}

func (s *Store) SavePortfolio(_ context.Context, p *models.Portfolio) error {
	now := time.Now()
	var existing models.Portfolio
	if err := s.db.Get(p.ID, &existing); err == nil {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if err := s.db.Upsert(p.ID, p); err != nil {
		return fmt.Errorf("failed to save portfolio '%s': %w", p.ID, err)
	}
	s.logger.Debug().Str("portfolio_id", p.ID).Msg("Portfolio saved")
	return nil
}

func (s *Store) DeletePortfolio(ctx context.Context, id string) error {
	holdings, err := s.ListHoldings(ctx, id)
	if err == nil {
		for _, h := range holdings {
			_ = s.DeleteHolding(ctx, h.ID)
		}
	}
	if err := s.db.Delete(id, models.Portfolio{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete portfolio '%s': %w", id, err)
	}
	s.logger.Debug().Str("portfolio_id", id).Msg("Portfolio and holdings deleted")
	return nil
}

// --- Holdings ---

func (s *Store) GetHolding(_ context.Context, id string) (*models.Holding, error) {
	var h models.Holding
	if err := s.db.Get(id, &h); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("holding '%s': %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get holding '%s': %w", id, err)
	}
	return &h, nil
}

func (s *Store) ListHoldings(_ context.Context, portfolioID string) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := s.db.Find(&holdings, badgerhold.Where("PortfolioID").Eq(portfolioID).Index("PortfolioID")); err != nil {
		return nil, fmt.Errorf("failed to list holdings for portfolio '%s': %w", portfolioID, err)
	}
	sortByCreated(holdings, func(h models.Holding) (time.Time, string) { return h.CreatedAt, h.ID })
	return holdings, nil
}

func (s *Store) SaveHolding(_ context.Context, h *models.Holding) error {
	now := time.Now()
	var existing models.Holding
	if err := s.db.Get(h.ID, &existing); err == nil {
		h.CreatedAt = existing.CreatedAt
	} else if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now

	if err := s.db.Upsert(h.ID, h); err != nil {
		return fmt.Errorf("failed to save holding '%s': %w", h.ID, err)
	}
	return nil
}

func (s *Store) DeleteHolding(ctx context.Context, id string) error {
	// Children first: transactions, then distributions.
	var txs []models.Transaction
	if err := s.db.Find(&txs, badgerhold.Where("HoldingID").Eq(id).Index("HoldingID")); err == nil {
		for _, t := range txs {
			_ = s.db.Delete(t.ID, models.Transaction{})
		}
	}
	var dists []models.Distribution
	if err := s.db.Find(&dists, badgerhold.Where("HoldingID").Eq(id).Index("HoldingID")); err == nil {
		for _, d := range dists {
			_ = s.db.Delete(d.ID, models.Distribution{})
		}
	}
	if err := s.db.Delete(id, models.Holding{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete holding '%s': %w", id, err)
	}
	s.logger.Debug().Str("holding_id", id).Msg("Holding, transactions and distributions deleted")
	return nil
}

// --- Transactions ---

func (s *Store) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	var t models.Transaction
	if err := s.db.Get(id, &t); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("transaction '%s': %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction '%s': %w", id, err)
	}
	return &t, nil
}

// ListTransactions returns a holding's transactions ordered by creation time
// then ID. The tax engine re-sorts by transaction date; this ordering is the
// deterministic tie-break for equal dates.
func (s *Store) ListTransactions(_ context.Context, holdingID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := s.db.Find(&txs, badgerhold.Where("HoldingID").Eq(holdingID).Index("HoldingID")); err != nil {
		return nil, fmt.Errorf("failed to list transactions for holding '%s': %w", holdingID, err)
	}
	sortByCreated(txs, func(t models.Transaction) (time.Time, string) { return t.CreatedAt, t.ID })
	return txs, nil
}

func (s *Store) SaveTransaction(_ context.Context, t *models.Transaction) error {
	now := time.Now()
	var existing models.Transaction
	if err := s.db.Get(t.ID, &existing); err == nil {
		t.CreatedAt = existing.CreatedAt
	} else if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	if err := s.db.Upsert(t.ID, t); err != nil {
		return fmt.Errorf("failed to save transaction '%s': %w", t.ID, err)
	}
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	if err := s.db.Delete(id, models.Transaction{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete transaction '%s': %w", id, err)
	}
	return nil
}

// --- Distributions ---

func (s *Store) GetDistribution(_ context.Context, id string) (*models.Distribution, error) {
	var d models.Distribution
	if err := s.db.Get(id, &d); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("distribution '%s': %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get distribution '%s': %w", id, err)
	}
	return &d, nil
}

// ListDistributions returns a holding's distributions ordered by date paid
// descending, newest first.
func (s *Store) ListDistributions(_ context.Context, holdingID string) ([]models.Distribution, error) {
	var dists []models.Distribution
	if err := s.db.Find(&dists, badgerhold.Where("HoldingID").Eq(holdingID).Index("HoldingID")); err != nil {
		return nil, fmt.Errorf("failed to list distributions for holding '%s': %w", holdingID, err)
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i].DatePaid.After(dists[j].DatePaid) })
	return dists, nil
}

func (s *Store) SaveDistribution(_ context.Context, d *models.Distribution) error {
	now := time.Now()
	var existing models.Distribution
	if err := s.db.Get(d.ID, &existing); err == nil {
		d.CreatedAt = existing.CreatedAt
	} else if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	if err := s.db.Upsert(d.ID, d); err != nil {
		return fmt.Errorf("failed to save distribution '%s': %w", d.ID, err)
	}
	return nil
}

func (s *Store) DeleteDistribution(_ context.Context, id string) error {
	if err := s.db.Delete(id, models.Distribution{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete distribution '%s': %w", id, err)
	}
	return nil
}

// sortByCreated orders rows by CreatedAt ascending with ID as tie-break,
// giving stable insertion order across reads.
func sortByCreated[T any](rows []T, key func(T) (time.Time, string)) {
	sort.Slice(rows, func(i, j int) bool {
		ti, idi := key(rows[i])
		tj, idj := key(rows[j])
		if ti.Equal(tj) {
			return idi < idj
		}
		return ti.Before(tj)
	})
}
