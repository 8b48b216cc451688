package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"SmartFolio/pkg/cache"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// Quotes serves current prices, caching briefly so repeat lookups within a
// run do not burn quota.
type Quotes struct {
	client   *resty.Client
	apiKey   string
	cache    cache.Service
	cacheTTL time.Duration
}

func NewQuotes(baseURL, apiKey string, timeout time.Duration, c cache.Service) *Quotes {
	if baseURL == "" {
		baseURL = finnhubBaseURL
	}
	return &Quotes{
		client:   resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey:   apiKey,
		cache:    c,
		cacheTTL: 5 * time.Minute,
	}
}

type quoteResponse struct {
	Current float64 `json:"c"`
}

func (q *Quotes) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	key := "quote:" + symbol
	if q.cache != nil {
		if data, ok, err := q.cache.Get(ctx, key); err == nil && ok {
			if price, err := decimal.NewFromString(string(data)); err == nil {
				return price, nil
			}
		}
	}

	var quote quoteResponse
	resp, err := q.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"symbol": symbol, "token": q.apiKey}).
		SetResult(&quote).
		Get("/quote")
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if resp.IsError() {
		return decimal.Decimal{}, fmt.Errorf("quote %s: status %d", symbol, resp.StatusCode())
	}
	if quote.Current <= 0 {
		return decimal.Decimal{}, fmt.Errorf("quote %s: no price", symbol)
	}

	price := decimal.NewFromFloat(quote.Current)
	if q.cache != nil {
		_ = q.cache.Set(ctx, key, []byte(price.String()), q.cacheTTL)
	}
	return price, nil
}
