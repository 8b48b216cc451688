package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"SmartFolio/internal/domain/models"
	"SmartFolio/internal/domain/repository"
	"SmartFolio/internal/domain/service"
	"SmartFolio/pkg/cache"
	"SmartFolio/pkg/logger"
)

// SignalCache is the run-scoped deduplicating fetch layer in front of all
// advisor gateways. Within one run a symbol is fetched at most once; the
// first caller performs the fetch and concurrent callers wait on it
// (single-flight per symbol). An optional reuse cache carries signal sets
// across runs so a freshly analyzed symbol is not re-fetched for hours.
type SignalCache struct {
	gateways []service.AdvisorGateway
	limiter  *rate.Limiter
	reuse    cache.Service
	reuseTTL time.Duration
	timeout  time.Duration
	archive  repository.SignalArchive
	metrics  repository.Metrics
	log      *logger.Logger

	mu      sync.Mutex
	entries map[string]*cacheEntry
	fetches int
}

type cacheEntry struct {
	done    chan struct{}
	signals []models.AdvisorSignal
}

// SignalCacheOptions bundles the collaborators a run cache needs.
type SignalCacheOptions struct {
	Gateways       []service.AdvisorGateway
	RatePerSecond  float64
	Burst          int
	Reuse          cache.Service
	ReuseTTL       time.Duration
	RequestTimeout time.Duration
	Archive        repository.SignalArchive
	Metrics        repository.Metrics
	Logger         *logger.Logger
}

// NewSignalCache builds a cache for a single run. Callers must not share a
// cache across runs: the reuse layer is the only state that outlives one.
func NewSignalCache(opts SignalCacheOptions) *SignalCache {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &SignalCache{
		gateways: opts.Gateways,
		limiter:  rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		reuse:    opts.Reuse,
		reuseTTL: opts.ReuseTTL,
		timeout:  opts.RequestTimeout,
		archive:  opts.Archive,
		metrics:  opts.Metrics,
		log:      log,
		entries:  make(map[string]*cacheEntry),
	}
}

// GetOrFetch returns every signal known for symbol in this run, fetching on
// first use. An empty slice means no advisor produced a signal; that is not
// an error. The only error returned is context cancellation while waiting.
func (c *SignalCache) GetOrFetch(ctx context.Context, symbol string) ([]models.AdvisorSignal, error) {
	c.mu.Lock()
	if e, ok := c.entries[symbol]; ok {
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.SignalCacheHit("run")
		}
		select {
		case <-e.done:
			return e.signals, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &cacheEntry{done: make(chan struct{})}
	c.entries[symbol] = e
	c.mu.Unlock()

	e.signals = c.fetch(ctx, symbol)
	close(e.done)
	return e.signals, nil
}

// Size is the number of distinct symbols seen this run.
func (c *SignalCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fetches is the number of symbols that required an external fetch, as
// opposed to being served from the cross-run reuse cache.
func (c *SignalCache) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

func (c *SignalCache) fetch(ctx context.Context, symbol string) []models.AdvisorSignal {
	if signals, ok := c.fromReuse(ctx, symbol); ok {
		if c.metrics != nil {
			c.metrics.SignalCacheHit("reuse")
		}
		return signals
	}

	c.mu.Lock()
	c.fetches++
	c.mu.Unlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		signals []models.AdvisorSignal
	)
	for _, gw := range c.gateways {
		wg.Add(1)
		go func(gw service.AdvisorGateway) {
			defer wg.Done()
			got := c.fetchOne(ctx, gw, symbol)
			if len(got) == 0 {
				return
			}
			mu.Lock()
			signals = append(signals, got...)
			mu.Unlock()
		}(gw)
	}
	wg.Wait()

	sortSignals(signals)

	if len(signals) > 0 {
		c.toReuse(ctx, symbol, signals)
		if c.archive != nil {
			if err := c.archive.Append(ctx, signals); err != nil {
				c.log.Warn("signal archive append failed",
					logger.String("symbol", symbol), logger.Error(err))
			}
		}
	}
	return signals
}

// fetchOne queries a single gateway under the run-wide rate limit. Gateway
// failures degrade to an empty result.
func (c *SignalCache) fetchOne(ctx context.Context, gw service.AdvisorGateway, symbol string) []models.AdvisorSignal {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	fetchCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	got, err := gw.Fetch(fetchCtx, symbol)
	if err != nil {
		if c.metrics != nil {
			c.metrics.AdvisorFetch(gw.Type(), "error", time.Since(start))
		}
		c.log.Warn("advisor fetch failed",
			logger.String("advisor", string(gw.Type())),
			logger.String("symbol", symbol),
			logger.Error(err))
		return nil
	}
	if c.metrics != nil {
		c.metrics.AdvisorFetch(gw.Type(), "ok", time.Since(start))
	}
	return got
}

func (c *SignalCache) fromReuse(ctx context.Context, symbol string) ([]models.AdvisorSignal, bool) {
	if c.reuse == nil || c.reuseTTL <= 0 {
		return nil, false
	}
	data, ok, err := c.reuse.Get(ctx, reuseKey(symbol))
	if err != nil || !ok {
		return nil, false
	}
	var signals []models.AdvisorSignal
	if err := json.Unmarshal(data, &signals); err != nil {
		return nil, false
	}
	return signals, true
}

func (c *SignalCache) toReuse(ctx context.Context, symbol string, signals []models.AdvisorSignal) {
	if c.reuse == nil || c.reuseTTL <= 0 {
		return
	}
	data, err := json.Marshal(signals)
	if err != nil {
		return
	}
	if err := c.reuse.Set(ctx, reuseKey(symbol), data, c.reuseTTL); err != nil {
		c.log.Warn("signal reuse cache set failed",
			logger.String("symbol", symbol), logger.Error(err))
	}
}

func reuseKey(symbol string) string { return "signals:" + symbol }
