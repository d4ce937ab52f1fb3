package server

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathParam(t *testing.T) {
	cases := []struct {
		path, prefix, suffix, want string
	}{
		{"/api/portfolios/abc", "/api/portfolios/", "", "abc"},
		{"/api/portfolios/abc/tax-summary", "/api/portfolios/", "/tax-summary", "abc"},
		{"/api/portfolios/abc/holdings", "/api/portfolios/", "", "abc"},
		{"/api/holdings/h1/transactions", "/api/holdings/", "/transactions", "h1"},
		{"/wrong/prefix/abc", "/api/portfolios/", "", ""},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", c.path, nil)
		assert.Equal(t, c.want, PathParam(r, c.prefix, c.suffix), "path %s", c.path)
	}
}

func TestDollarsToCents(t *testing.T) {
	cases := []struct {
		dollars float64
		want    int64
	}{
		{0, 0},
		{1, 100},
		{95.42, 9542},
		{0.01, 1},
		{123.456, 12346},
		{-5.25, -525},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, dollarsToCents(c.dollars), "dollars %v", c.dollars)
	}
}
