package portfoliodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markhallen/portfoliopro/internal/common"
	"github.com/markhallen/portfoliopro/internal/interfaces"
	"github.com/markhallen/portfoliopro/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUserRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &models.User{ID: "u1", Email: "mark@example.com", FirstName: "Mark", LastName: "Hallen", PasswordHash: "hash"}
	require.NoError(t, store.SaveUser(ctx, user))

	got, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "mark@example.com", got.Email)
	assert.False(t, got.CreatedAt.IsZero())

	byEmail, err := store.GetUserByEmail(ctx, "mark@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	_, err = store.GetUser(ctx, "missing")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
}

func TestSavePreservesCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := &models.Portfolio{ID: "p1", UserID: "u1", Name: "Super"}
	require.NoError(t, store.SavePortfolio(ctx, p))
	created := p.CreatedAt

	time.Sleep(5 * time.Millisecond)

	p.Name = "Super Renamed"
	require.NoError(t, store.SavePortfolio(ctx, p))

	got, err := store.GetPortfolio(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Super Renamed", got.Name)
	assert.True(t, got.CreatedAt.Equal(created), "CreatedAt must survive updates")
	assert.True(t, got.UpdatedAt.After(created))
}

func TestListPortfoliosScopedToUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePortfolio(ctx, &models.Portfolio{ID: "p1", UserID: "u1", Name: "Mine"}))
	require.NoError(t, store.SavePortfolio(ctx, &models.Portfolio{ID: "p2", UserID: "u2", Name: "Theirs"}))

	mine, err := store.ListPortfolios(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "p1", mine[0].ID)
}

func TestDeletePortfolioCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePortfolio(ctx, &models.Portfolio{ID: "p1", UserID: "u1", Name: "Super"}))
	require.NoError(t, store.SaveHolding(ctx, &models.Holding{ID: "h1", PortfolioID: "p1", InvestmentID: "i1"}))
	require.NoError(t, store.SaveTransaction(ctx, &models.Transaction{
		ID: "t1", HoldingID: "h1", Quantity: 10, PricePerUnit: 1000,
		TransactionDate: time.Now(), Type: models.TransactionBuy,
	}))
	require.NoError(t, store.SaveDistribution(ctx, &models.Distribution{
		ID: "d1", HoldingID: "h1", DatePaid: time.Now(), GrossPayment: 5000,
	}))

	require.NoError(t, store.DeletePortfolio(ctx, "p1"))

	_, err := store.GetPortfolio(ctx, "p1")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
	_, err = store.GetHolding(ctx, "h1")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
	_, err = store.GetTransaction(ctx, "t1")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
	_, err = store.GetDistribution(ctx, "d1")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
}

func TestDeleteUserCascadesToPortfolios(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, &models.User{ID: "u1", Email: "a@b.c"}))
	require.NoError(t, store.SavePortfolio(ctx, &models.Portfolio{ID: "p1", UserID: "u1", Name: "Super"}))
	require.NoError(t, store.SaveHolding(ctx, &models.Holding{ID: "h1", PortfolioID: "p1", InvestmentID: "i1"}))

	require.NoError(t, store.DeleteUser(ctx, "u1"))

	_, err := store.GetUser(ctx, "u1")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
	_, err = store.GetPortfolio(ctx, "p1")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
	_, err = store.GetHolding(ctx, "h1")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
}

func TestListTransactionsInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, store.SaveTransaction(ctx, &models.Transaction{
			ID: id, HoldingID: "h1", Quantity: 1, PricePerUnit: 100,
			TransactionDate: date, Type: models.TransactionBuy,
		}))
		time.Sleep(2 * time.Millisecond)
	}

	txs, err := store.ListTransactions(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "t1", txs[0].ID)
	assert.Equal(t, "t2", txs[1].ID)
	assert.Equal(t, "t3", txs[2].ID)
}

func TestListDistributionsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveDistribution(ctx, &models.Distribution{ID: "d1", HoldingID: "h1", DatePaid: base}))
	require.NoError(t, store.SaveDistribution(ctx, &models.Distribution{ID: "d2", HoldingID: "h1", DatePaid: base.AddDate(0, 3, 0)}))

	dists, err := store.ListDistributions(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, dists, 2)
	assert.Equal(t, "d2", dists[0].ID)
}

func TestInvestmentsSortedByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveInvestment(ctx, &models.Investment{ID: "i1", Name: "Zeta Fund", Code: "ZET"}))
	require.NoError(t, store.SaveInvestment(ctx, &models.Investment{ID: "i2", Name: "Alpha Fund", Code: "ALP"}))

	invs, err := store.ListInvestments(ctx)
	require.NoError(t, err)
	require.Len(t, invs, 2)
	assert.Equal(t, "Alpha Fund", invs[0].Name)
}
