package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markhallen/portfoliopro/internal/interfaces"
)

func chartBody(price float64) string {
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"regularMarketPrice":%f,"currency":"AUD"}}],"error":null}}`, price)
}

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
	)
	return c, srv
}

func TestGetPrice_ConvertsToCents(t *testing.T) {
	var gotPath string
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, chartBody(95.42))
	})
	defer srv.Close()

	cents, err := c.GetPrice(context.Background(), "VAS")
	require.NoError(t, err)
	assert.Equal(t, int64(9542), cents)
	assert.Equal(t, "/v8/finance/chart/VAS.AX", gotPath)
}

func TestGetPrice_RoundsToNearestCent(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(87.349))
	})
	defer srv.Close()

	cents, err := c.GetPrice(context.Background(), "VAS")
	require.NoError(t, err)
	assert.Equal(t, int64(8735), cents)
}

func TestGetPrice_EmptyExchangeUsesBareCode(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, chartBody(50))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithExchange(""), WithRateLimit(1000))
	_, err := c.GetPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
}

func TestGetPrice_UnavailableOnNon200(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	_, err := c.GetPrice(context.Background(), "NOPE")
	assert.ErrorIs(t, err, interfaces.ErrPriceUnavailable)
}

func TestGetPrice_UnavailableOnEmptyResult(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":{"code":"Not Found","description":"No data found"}}}`)
	})
	defer srv.Close()

	_, err := c.GetPrice(context.Background(), "NOPE")
	assert.ErrorIs(t, err, interfaces.ErrPriceUnavailable)
}

func TestGetPrice_UnavailableOnZeroPrice(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(0))
	})
	defer srv.Close()

	_, err := c.GetPrice(context.Background(), "ZERO")
	assert.ErrorIs(t, err, interfaces.ErrPriceUnavailable)
}

func TestGetPrices_FailedCodesAbsentFromMap(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v8/finance/chart/VAS.AX":
			fmt.Fprint(w, chartBody(95.42))
		case "/v8/finance/chart/VGS.AX":
			fmt.Fprint(w, chartBody(110.00))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	defer srv.Close()

	prices, err := c.GetPrices(context.Background(), []string{"VAS", "VGS", "DEAD"})
	require.NoError(t, err)

	assert.Equal(t, int64(9542), prices["VAS"])
	assert.Equal(t, int64(11000), prices["VGS"])
	_, ok := prices["DEAD"]
	assert.False(t, ok, "failed code must be absent, not zero")
}

func TestGetPrices_DeduplicatesCodes(t *testing.T) {
	var requests int
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, chartBody(95.42))
	})
	defer srv.Close()

	prices, err := c.GetPrices(context.Background(), []string{"VAS", "VAS", "", "VAS"})
	require.NoError(t, err)
	assert.Len(t, prices, 1)
	assert.Equal(t, 1, requests)
}
