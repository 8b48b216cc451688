package advisors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartFolio/internal/domain/models"
	"SmartFolio/pkg/config"
)

func TestBuildClosedVariantSet(t *testing.T) {
	cfg := config.AdvisorsConfig{
		Enabled:        []string{"FMP", "finnhub", "YAHOO"},
		RequestTimeout: time.Second,
	}

	gateways, err := Build(cfg, nil)
	require.NoError(t, err)
	require.Len(t, gateways, 3)
	assert.Equal(t, models.AdvisorFMP, gateways[0].Type())
	assert.Equal(t, models.AdvisorFinnhub, gateways[1].Type())
	assert.Equal(t, models.AdvisorYahoo, gateways[2].Type())
}

func TestBuildRejectsUnknownType(t *testing.T) {
	_, err := Build(config.AdvisorsConfig{Enabled: []string{"BLOOMBERG"}}, nil)
	assert.Error(t, err)
}

func TestScoreFundamentals(t *testing.T) {
	cases := []struct {
		name   string
		ratios fmpRatios
		want   models.SignalType
		score  float64
	}{
		{
			name:   "cheap profitable low debt",
			ratios: fmpRatios{PERatio: 12, DebtEquityRatio: 0.2, ReturnOnEquity: 0.2},
			want:   models.SignalStrongBuy,
			score:  0.8,
		},
		{
			name:   "fairly valued",
			ratios: fmpRatios{PERatio: 20, DebtEquityRatio: 0.5, ReturnOnEquity: 0.12},
			want:   models.SignalBuy,
			score:  0.65,
		},
		{
			name:   "expensive and neutral",
			ratios: fmpRatios{PERatio: 40, DebtEquityRatio: 0.5, ReturnOnEquity: 0.12},
			want:   models.SignalHold,
			score:  0.5,
		},
		{
			name:   "expensive and levered",
			ratios: fmpRatios{PERatio: 40, DebtEquityRatio: 1.5, ReturnOnEquity: 0.05},
			want:   models.SignalSell,
			score:  0.6,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig := scoreFundamentals("AAPL", tc.ratios)
			assert.Equal(t, tc.want, sig.Signal)
			assert.Equal(t, tc.score, sig.Score)
			assert.NotEmpty(t, sig.Reasoning)
		})
	}
}

func TestScoreAnalystView(t *testing.T) {
	bullish := finnhubTrend{StrongBuy: 20, Buy: 10, Hold: 5, Sell: 1}
	sig := scoreAnalystView("NVDA", bullish, 150, 120)
	assert.Equal(t, models.SignalStrongBuy, sig.Signal)
	assert.Equal(t, models.ConfidenceVeryHigh, sig.Confidence)
	assert.Equal(t, 0.9, sig.Score)
	require.True(t, sig.TargetPrice.Valid)

	bearish := finnhubTrend{StrongBuy: 1, Buy: 2, Hold: 5, Sell: 10, StrongSell: 10}
	sig = scoreAnalystView("NVDA", bearish, 90, 120)
	assert.Equal(t, models.SignalStrongSell, sig.Signal)

	neutral := finnhubTrend{Hold: 10}
	sig = scoreAnalystView("NVDA", neutral, 0, 0)
	assert.Equal(t, models.SignalHold, sig.Signal)
	assert.False(t, sig.TargetPrice.Valid)
}

func TestScoreTrend(t *testing.T) {
	sig := scoreTrend("MSFT", 110, 100, 90)
	assert.Equal(t, models.SignalStrongBuy, sig.Signal)

	sig = scoreTrend("MSFT", 102, 100, 90)
	assert.Equal(t, models.SignalBuy, sig.Signal)

	sig = scoreTrend("MSFT", 80, 90, 100)
	assert.Equal(t, models.SignalSell, sig.Signal)

	sig = scoreTrend("MSFT", 0, 0, 0)
	assert.Equal(t, models.SignalHold, sig.Signal)
}

func TestFinnhubFetchAgainstStubServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/stock/recommendation":
			_, _ = w.Write([]byte(`[{"period":"2025-06-01","strongBuy":15,"buy":10,"hold":4,"sell":1,"strongSell":0}]`))
		case "/stock/price-target":
			_, _ = w.Write([]byte(`{"targetMean":150,"lastPrice":120}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	gw := NewFinnhub(config.AdvisorAPIConfig{BaseURL: srv.URL, APIKey: "test"}, time.Second)
	signals, err := gw.Fetch(context.Background(), "NVDA")
	require.NoError(t, err)
	require.Len(t, signals, 1)

	assert.Equal(t, models.AdvisorFinnhub, signals[0].Advisor)
	assert.Equal(t, "NVDA", signals[0].Symbol)
	assert.Equal(t, models.SignalStrongBuy, signals[0].Signal)
}

func TestFMPFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	gw := NewFMP(config.AdvisorAPIConfig{BaseURL: srv.URL, APIKey: "test"}, time.Second)
	_, err := gw.Fetch(context.Background(), "AAPL")
	assert.Error(t, err)
}
