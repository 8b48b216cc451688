package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartFolio/pkg/cache"
)

func TestVolatilityForCapBands(t *testing.T) {
	assert.Equal(t, 30.0, volatilityForCap(5e8))
	assert.Equal(t, 25.0, volatilityForCap(5e9))
	assert.Equal(t, 20.0, volatilityForCap(5e11))
	assert.Equal(t, 25.0, volatilityForCap(0))
}

func TestQuotesCachesPrice(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"c":123.45}`))
	}))
	defer srv.Close()

	q := NewQuotes(srv.URL, "test", time.Second, cache.NewMemory())
	ctx := context.Background()

	first, err := q.Price(ctx, "NVDA")
	require.NoError(t, err)
	second, err := q.Price(ctx, "NVDA")
	require.NoError(t, err)

	assert.True(t, first.Equal(decimal.NewFromFloat(123.45)))
	assert.True(t, first.Equal(second))
	assert.Equal(t, 1, calls, "second lookup must be served from cache")
}

func TestQuotesRejectsMissingPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"c":0}`))
	}))
	defer srv.Close()

	q := NewQuotes(srv.URL, "test", time.Second, nil)
	_, err := q.Price(context.Background(), "XXXX")
	assert.Error(t, err)
}

func TestVolatilityFetchesProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"mktCap":500000000}]`))
	}))
	defer srv.Close()

	v := NewMarketCapVolatility(srv.URL, "test", time.Second, nil)
	pct, err := v.Volatility(context.Background(), "SMOL")
	require.NoError(t, err)
	assert.Equal(t, 30.0, pct)
}
