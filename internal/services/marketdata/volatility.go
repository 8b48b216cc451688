package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"SmartFolio/pkg/cache"
)

const fmpBaseURL = "https://financialmodelingprep.com/api/v3"

// MarketCapVolatility estimates volatility from company size: small caps
// are treated as more volatile than mega caps. It is a coarse proxy, not a
// realized-volatility calculation; callers treat the estimate as opaque.
type MarketCapVolatility struct {
	client   *resty.Client
	apiKey   string
	cache    cache.Service
	cacheTTL time.Duration
}

func NewMarketCapVolatility(baseURL, apiKey string, timeout time.Duration, c cache.Service) *MarketCapVolatility {
	if baseURL == "" {
		baseURL = fmpBaseURL
	}
	return &MarketCapVolatility{
		client:   resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey:   apiKey,
		cache:    c,
		cacheTTL: 24 * time.Hour,
	}
}

type capProfile struct {
	MarketCap float64 `json:"mktCap"`
}

func (v *MarketCapVolatility) Volatility(ctx context.Context, symbol string) (float64, error) {
	key := "volatility:" + symbol
	if v.cache != nil {
		if data, ok, err := v.cache.Get(ctx, key); err == nil && ok {
			if pct, err := strconv.ParseFloat(string(data), 64); err == nil {
				return pct, nil
			}
		}
	}

	var profile []capProfile
	resp, err := v.client.R().
		SetContext(ctx).
		SetQueryParam("apikey", v.apiKey).
		SetResult(&profile).
		Get("/profile/" + symbol)
	if err != nil {
		return 0, fmt.Errorf("volatility %s: %w", symbol, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("volatility %s: status %d", symbol, resp.StatusCode())
	}

	var marketCap float64
	if len(profile) > 0 {
		marketCap = profile[0].MarketCap
	}
	pct := volatilityForCap(marketCap)

	if v.cache != nil {
		_ = v.cache.Set(ctx, key, []byte(strconv.FormatFloat(pct, 'f', -1, 64)), v.cacheTTL)
	}
	return pct, nil
}

// volatilityForCap maps market cap bands to a volatility percentage.
// Unknown caps get the mid band.
func volatilityForCap(marketCap float64) float64 {
	switch {
	case marketCap <= 0:
		return 25
	case marketCap < 1e9:
		return 30
	case marketCap < 1e10:
		return 25
	default:
		return 20
	}
}
