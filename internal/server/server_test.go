package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markhallen/portfoliopro/internal/app"
	"github.com/markhallen/portfoliopro/internal/common"
	"github.com/markhallen/portfoliopro/internal/interfaces"
	"github.com/markhallen/portfoliopro/internal/models"
	"github.com/markhallen/portfoliopro/internal/services/portfolio"
	"github.com/markhallen/portfoliopro/internal/services/tax"
	"github.com/markhallen/portfoliopro/internal/storage/portfoliodb"
)

// stubPrices is a deterministic in-memory price oracle.
type stubPrices struct {
	prices map[string]int64
}

func (s *stubPrices) GetPrice(_ context.Context, code string) (int64, error) {
	if cents, ok := s.prices[code]; ok {
		return cents, nil
	}
	return 0, interfaces.ErrPriceUnavailable
}

func (s *stubPrices) GetPrices(_ context.Context, codes []string) (map[string]int64, error) {
	out := make(map[string]int64, len(codes))
	for _, code := range codes {
		if cents, ok := s.prices[code]; ok {
			out[code] = cents
		}
	}
	return out, nil
}

func newTestServer(t *testing.T) (*Server, *stubPrices) {
	t.Helper()

	logger := common.NewSilentLogger()
	store, err := portfoliodb.NewStore(logger, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	prices := &stubPrices{prices: map[string]int64{}}

	a := &app.App{
		Config:      common.NewDefaultConfig(),
		Logger:      logger,
		Store:       store,
		Prices:      prices,
		Portfolio:   portfolio.NewService(store, prices, logger),
		Tax:         tax.NewService(store, prices, logger),
		StartupTime: time.Now(),
	}
	return NewServer(a), prices
}

// doJSON performs a JSON request against the server, attaching the session
// cookie when provided, and decodes the response into out (if non-nil).
func doJSON(t *testing.T, srv *Server, method, path string, body interface{}, cookie *http.Cookie, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), "body: %s", rec.Body.String())
	}
	return rec
}

// registerUser registers a user and returns the session cookie.
func registerUser(t *testing.T, srv *Server, email string) *http.Cookie {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"email":      email,
		"password":   "correct-horse-battery",
		"first_name": "Test",
		"last_name":  "User",
	}, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == srv.app.Config.Auth.CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set on register")
	return nil
}

func TestHealthAndVersion(t *testing.T) {
	srv, _ := newTestServer(t)

	var health map[string]interface{}
	rec := doJSON(t, srv, http.MethodGet, "/api/health", nil, nil, &health)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", health["status"])

	var version map[string]string
	rec = doJSON(t, srv, http.MethodGet, "/api/version", nil, nil, &version)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, version["version"])
}

func TestAuthRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	cookie := registerUser(t, srv, "mark@example.com")

	// Me with the cookie.
	var me models.User
	rec := doJSON(t, srv, http.MethodGet, "/api/auth/me", nil, cookie, &me)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mark@example.com", me.Email)

	// Me without a session.
	rec = doJSON(t, srv, http.MethodGet, "/api/auth/me", nil, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Login with good and bad credentials.
	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "mark@example.com", "password": "correct-horse-battery",
	}, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "mark@example.com", "password": "wrong",
	}, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "not-an-email", "password": "long-enough-pass",
	}, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "ok@example.com", "password": "short",
	}, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	registerUser(t, srv, "dup@example.com")
	rec = doJSON(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "dup@example.com", "password": "correct-horse-battery",
	}, nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPortfolioOwnership(t *testing.T) {
	srv, _ := newTestServer(t)

	alice := registerUser(t, srv, "alice@example.com")
	bob := registerUser(t, srv, "bob@example.com")

	var p models.Portfolio
	rec := doJSON(t, srv, http.MethodPost, "/api/portfolios", map[string]string{"name": "Alice Super"}, alice, &p)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Owner can read.
	rec = doJSON(t, srv, http.MethodGet, "/api/portfolios/"+p.ID, nil, alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another user cannot.
	rec = doJSON(t, srv, http.MethodGet, "/api/portfolios/"+p.ID, nil, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Anonymous cannot.
	rec = doJSON(t, srv, http.MethodGet, "/api/portfolios/"+p.ID, nil, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Missing row is 404 for an authenticated user.
	rec = doJSON(t, srv, http.MethodGet, "/api/portfolios/no-such-id", nil, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Bob cannot delete Alice's portfolio either.
	rec = doJSON(t, srv, http.MethodDelete, "/api/portfolios/"+p.ID, nil, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPortfolioLifecycle(t *testing.T) {
	srv, prices := newTestServer(t)
	prices.prices["VAS"] = 9500

	cookie := registerUser(t, srv, "mark@example.com")

	var p models.Portfolio
	rec := doJSON(t, srv, http.MethodPost, "/api/portfolios", map[string]string{"name": "Super"}, cookie, &p)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Create a holding with an inline investment.
	var h models.Holding
	rec = doJSON(t, srv, http.MethodPost, "/api/portfolios/"+p.ID+"/holdings", map[string]interface{}{
		"name": "Vanguard Australian Shares",
		"code": "vas",
		"type": "etf",
	}, cookie, &h)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Bulk-record transactions (dollar amounts at the API boundary).
	rec = doJSON(t, srv, http.MethodPost, "/api/holdings/"+h.ID+"/transactions", []map[string]interface{}{
		{"quantity": 10, "price_per_unit": 90.00, "transaction_date": "2024-01-10", "type": "buy"},
		{"quantity": 5, "price_per_unit": 92.50, "transaction_date": "2024-03-01", "type": "buy"},
	}, cookie, nil)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	// Portfolio view: 15 units, live price 9500 cents.
	var view models.PortfolioView
	rec = doJSON(t, srv, http.MethodGet, "/api/portfolios/"+p.ID, nil, cookie, &view)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, view.Holdings, 1)

	hv := view.Holdings[0]
	assert.Equal(t, "VAS", hv.Code)
	assert.Equal(t, int64(15), hv.Units)
	// (10*9000 + 5*9250) / 15 = 136250/15 = 9083.33 -> 9083
	assert.Equal(t, int64(9083), hv.AveragePrice)
	assert.Equal(t, int64(9500), hv.CurrentPrice)
	assert.False(t, hv.PriceEstimated)
	assert.Equal(t, int64(15*9500), hv.CurrentValue)
	assert.Equal(t, view.TotalValue, hv.CurrentValue)

	// Rename, then delete.
	rec = doJSON(t, srv, http.MethodPut, "/api/portfolios/"+p.ID, map[string]string{"name": "Renamed"}, cookie, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/portfolios/"+p.ID, nil, cookie, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/portfolios/"+p.ID, nil, cookie, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPriceFallbackInView(t *testing.T) {
	srv, _ := newTestServer(t)
	cookie := registerUser(t, srv, "mark@example.com")

	var p models.Portfolio
	doJSON(t, srv, http.MethodPost, "/api/portfolios", map[string]string{"name": "Super"}, cookie, &p)

	var h models.Holding
	doJSON(t, srv, http.MethodPost, "/api/portfolios/"+p.ID+"/holdings", map[string]interface{}{
		"name": "Unquoted Fund", "code": "UNQ",
	}, cookie, &h)

	doJSON(t, srv, http.MethodPost, "/api/holdings/"+h.ID+"/transactions", map[string]interface{}{
		"quantity": 10, "price_per_unit": 50.00, "transaction_date": "2024-01-10", "type": "buy",
	}, cookie, nil)

	var view models.HoldingView
	rec := doJSON(t, srv, http.MethodGet, "/api/holdings/"+h.ID, nil, cookie, &view)
	require.Equal(t, http.StatusOK, rec.Code)

	// No live quote: average cost substitutes, gain collapses to zero.
	assert.True(t, view.PriceEstimated)
	assert.Equal(t, int64(5000), view.CurrentPrice)
	assert.Equal(t, int64(0), view.UnrealisedGain)
}

func TestTaxSummaryEndpoint(t *testing.T) {
	srv, prices := newTestServer(t)
	prices.prices["VAS"] = 15000

	cookie := registerUser(t, srv, "mark@example.com")

	var p models.Portfolio
	doJSON(t, srv, http.MethodPost, "/api/portfolios", map[string]string{"name": "Super"}, cookie, &p)

	var h models.Holding
	doJSON(t, srv, http.MethodPost, "/api/portfolios/"+p.ID+"/holdings", map[string]interface{}{
		"name": "Vanguard Australian Shares", "code": "VAS",
	}, cookie, &h)

	doJSON(t, srv, http.MethodPost, "/api/holdings/"+h.ID+"/transactions", []map[string]interface{}{
		{"quantity": 10, "price_per_unit": 100.00, "transaction_date": "2022-01-10", "type": "buy"},
		{"quantity": 6, "price_per_unit": 150.00, "transaction_date": "2024-06-01", "type": "sell"},
	}, cookie, nil)

	var summary models.TaxSummary
	rec := doJSON(t, srv, http.MethodGet, "/api/portfolios/"+p.ID+"/tax-summary", nil, cookie, &summary)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	// Held well over a year: long-term gain of 6 * (15000-10000) cents.
	require.Len(t, summary.LongTerm, 1)
	assert.Equal(t, int64(30000), summary.TotalLongTermGain)
	assert.Equal(t, "2023-2024", summary.LongTerm[0].FinancialYear)

	require.Len(t, summary.Unrealised, 1)
	assert.Equal(t, int64(4), summary.Unrealised[0].Units)

	// Ownership applies to the report too.
	other := registerUser(t, srv, "other@example.com")
	rec = doJSON(t, srv, http.MethodGet, "/api/portfolios/"+p.ID+"/tax-summary", nil, other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTransactionValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	cookie := registerUser(t, srv, "mark@example.com")

	var p models.Portfolio
	doJSON(t, srv, http.MethodPost, "/api/portfolios", map[string]string{"name": "Super"}, cookie, &p)
	var h models.Holding
	doJSON(t, srv, http.MethodPost, "/api/portfolios/"+p.ID+"/holdings", map[string]interface{}{
		"name": "Fund", "code": "FND",
	}, cookie, &h)

	cases := []map[string]interface{}{
		{"quantity": 0, "price_per_unit": 10.0, "transaction_date": "2024-01-01", "type": "buy"},
		{"quantity": 1, "price_per_unit": -10.0, "transaction_date": "2024-01-01", "type": "buy"},
		{"quantity": 1, "price_per_unit": 10.0, "transaction_date": "bad-date", "type": "buy"},
		{"quantity": 1, "price_per_unit": 10.0, "transaction_date": "2024-01-01", "type": "dividend"},
	}
	for i, c := range cases {
		rec := doJSON(t, srv, http.MethodPost, "/api/holdings/"+h.ID+"/transactions", c, cookie, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "case %d", i)
	}

	// A batch with one bad row saves nothing.
	rec := doJSON(t, srv, http.MethodPost, "/api/holdings/"+h.ID+"/transactions", []map[string]interface{}{
		{"quantity": 10, "price_per_unit": 10.0, "transaction_date": "2024-01-01", "type": "buy"},
		{"quantity": -1, "price_per_unit": 10.0, "transaction_date": "2024-01-02", "type": "buy"},
	}, cookie, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var txs []models.Transaction
	rec = doJSON(t, srv, http.MethodGet, "/api/holdings/"+h.ID+"/transactions", nil, cookie, &txs)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, txs)
}

func TestDistributionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	cookie := registerUser(t, srv, "mark@example.com")

	var p models.Portfolio
	doJSON(t, srv, http.MethodPost, "/api/portfolios", map[string]string{"name": "Super"}, cookie, &p)
	var h models.Holding
	doJSON(t, srv, http.MethodPost, "/api/portfolios/"+p.ID+"/holdings", map[string]interface{}{
		"name": "Fund", "code": "FND",
	}, cookie, &h)

	var d models.Distribution
	rec := doJSON(t, srv, http.MethodPost, "/api/holdings/"+h.ID+"/distributions", map[string]interface{}{
		"date_paid": "2024-03-31", "gross_payment": 125.50, "tax_withheld": 12.55, "reinvested": true,
	}, cookie, &d)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(12550), d.GrossPayment)
	assert.Equal(t, int64(1255), d.TaxWithheld)
	assert.True(t, d.Reinvested)

	rec = doJSON(t, srv, http.MethodDelete, "/api/distributions/"+d.ID, nil, cookie, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/distributions/"+d.ID, nil, cookie, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodDelete, "/api/health", nil, nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Header().Get("Allow"), http.MethodGet)
}

func TestBearerTokenAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp struct {
		Token string `json:"token"`
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "mark@example.com", "password": "correct-horse-battery",
	}, nil, &resp)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, resp.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	out := httptest.NewRecorder()
	srv.Handler().ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)
}
