package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartFolio/internal/domain/models"
	"SmartFolio/internal/domain/service"
	"SmartFolio/pkg/cache"
)

func newTestCache(gateways ...*fakeGateway) *SignalCache {
	opts := SignalCacheOptions{
		RatePerSecond:  1000,
		Burst:          1000,
		RequestTimeout: time.Second,
	}
	for _, g := range gateways {
		opts.Gateways = append(opts.Gateways, g)
	}
	return NewSignalCache(opts)
}

func TestSingleFlightPerSymbol(t *testing.T) {
	gw := newFakeGateway(models.AdvisorFMP, map[string][]models.AdvisorSignal{
		"NVDA": {signal(models.AdvisorFMP, "NVDA", models.SignalBuy, models.ConfidenceHigh, 0.65)},
	})
	gw.delay = 20 * time.Millisecond
	sc := newTestCache(gw)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			signals, err := sc.GetOrFetch(context.Background(), "NVDA")
			assert.NoError(t, err)
			assert.Len(t, signals, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, gw.fetchCount("NVDA"))
	assert.Equal(t, 1, sc.Size())
}

func TestRepeatCallsServedFromRun(t *testing.T) {
	gw := newFakeGateway(models.AdvisorFMP, map[string][]models.AdvisorSignal{
		"AAPL": {signal(models.AdvisorFMP, "AAPL", models.SignalHold, models.ConfidenceMedium, 0.5)},
	})
	sc := newTestCache(gw)
	ctx := context.Background()

	first, err := sc.GetOrFetch(ctx, "AAPL")
	require.NoError(t, err)
	second, err := sc.GetOrFetch(ctx, "AAPL")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, gw.fetchCount("AAPL"))
}

func TestGatewayFailureIsNonFatal(t *testing.T) {
	good := newFakeGateway(models.AdvisorFMP, map[string][]models.AdvisorSignal{
		"MSFT": {signal(models.AdvisorFMP, "MSFT", models.SignalBuy, models.ConfidenceHigh, 0.65)},
	})
	bad := newFakeGateway(models.AdvisorFinnhub, nil)
	bad.err = errors.New("rate limited")
	sc := newTestCache(good, bad)

	signals, err := sc.GetOrFetch(context.Background(), "MSFT")
	require.NoError(t, err)

	require.Len(t, signals, 1)
	assert.Equal(t, models.AdvisorFMP, signals[0].Advisor)
}

func TestAllGatewaysFailYieldsEmptySet(t *testing.T) {
	bad := newFakeGateway(models.AdvisorFMP, nil)
	bad.err = errors.New("auth failure")
	sc := newTestCache(bad)

	signals, err := sc.GetOrFetch(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestReuseCacheSkipsFetch(t *testing.T) {
	reuse := cache.NewMemory()
	cached := []models.AdvisorSignal{
		signal(models.AdvisorFinnhub, "NVDA", models.SignalStrongBuy, models.ConfidenceVeryHigh, 0.9),
	}
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, reuse.Set(context.Background(), "signals:NVDA", data, time.Hour))

	gw := newFakeGateway(models.AdvisorFinnhub, nil)
	sc := NewSignalCache(SignalCacheOptions{
		Gateways:      []service.AdvisorGateway{gw},
		RatePerSecond: 1000,
		Burst:         1000,
		Reuse:         reuse,
		ReuseTTL:      6 * time.Hour,
	})

	signals, err := sc.GetOrFetch(context.Background(), "NVDA")
	require.NoError(t, err)

	assert.Equal(t, cached, signals)
	assert.Equal(t, 0, gw.fetchCount("NVDA"))
	assert.Equal(t, 0, sc.Fetches())
}

func TestFetchBackfillsReuseCache(t *testing.T) {
	reuse := cache.NewMemory()
	gw := newFakeGateway(models.AdvisorFMP, map[string][]models.AdvisorSignal{
		"AAPL": {signal(models.AdvisorFMP, "AAPL", models.SignalBuy, models.ConfidenceHigh, 0.65)},
	})
	sc := NewSignalCache(SignalCacheOptions{
		Gateways:      []service.AdvisorGateway{gw},
		RatePerSecond: 1000,
		Burst:         1000,
		Reuse:         reuse,
		ReuseTTL:      6 * time.Hour,
	})

	_, err := sc.GetOrFetch(context.Background(), "AAPL")
	require.NoError(t, err)

	data, ok, err := reuse.Get(context.Background(), "signals:AAPL")
	require.NoError(t, err)
	require.True(t, ok)

	var stored []models.AdvisorSignal
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Len(t, stored, 1)
	assert.Equal(t, 1, sc.Fetches())
}

func TestWaiterHonorsContextCancellation(t *testing.T) {
	gw := newFakeGateway(models.AdvisorFMP, map[string][]models.AdvisorSignal{
		"NVDA": {signal(models.AdvisorFMP, "NVDA", models.SignalBuy, models.ConfidenceHigh, 0.65)},
	})
	gw.delay = 200 * time.Millisecond
	sc := newTestCache(gw)

	go func() {
		_, _ = sc.GetOrFetch(context.Background(), "NVDA")
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sc.GetOrFetch(ctx, "NVDA")
	assert.ErrorIs(t, err, context.Canceled)
}
