package advisors

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"SmartFolio/internal/domain/models"
	"SmartFolio/pkg/config"
)

const yahooDefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance"

// Yahoo reads chart data and rates trend strength from the price relative
// to its moving averages.
type Yahoo struct {
	client *resty.Client
	weight float64
}

func NewYahoo(cfg config.AdvisorAPIConfig, timeout time.Duration) *Yahoo {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = yahooDefaultBaseURL
	}
	return &Yahoo{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("User-Agent", "smartfolio/1.0"),
		weight: cfg.Weight,
	}
}

func (y *Yahoo) Type() models.AdvisorType { return models.AdvisorYahoo }
func (y *Yahoo) Weight() float64          { return y.weight }

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				FiftyDayAverage    float64 `json:"fiftyDayAverage"`
				TwoHundredDayAvg   float64 `json:"twoHundredDayAverage"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

func (y *Yahoo) Fetch(ctx context.Context, symbol string) ([]models.AdvisorSignal, error) {
	var chart yahooChart
	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"interval": "1d", "range": "1d"}).
		SetResult(&chart).
		Get("/chart/" + symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("yahoo chart: status %d", resp.StatusCode())
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil
	}

	meta := chart.Chart.Result[0].Meta
	sig := scoreTrend(symbol, meta.RegularMarketPrice, meta.FiftyDayAverage, meta.TwoHundredDayAvg)
	sig.FetchedAt = time.Now().UTC()
	return []models.AdvisorSignal{sig}, nil
}

// scoreTrend rates price momentum against the 50 and 200 day averages.
func scoreTrend(symbol string, price, fifty, twoHundred float64) models.AdvisorSignal {
	var score int
	var reason string

	switch {
	case price <= 0 || fifty <= 0 || twoHundred <= 0:
		reason = "insufficient trend data"
	case price > fifty && fifty > twoHundred:
		score = 2
		reason = "uptrend: price above both moving averages"
		if price > fifty*1.05 {
			score = 3
			reason = "strong uptrend: price extended above 50-day average"
		}
	case price > twoHundred:
		score = 1
		reason = "price above 200-day average"
	case price < fifty && fifty < twoHundred:
		score = -2
		reason = "downtrend: price below both moving averages"
	default:
		score = -1
		reason = "price below 200-day average"
	}

	var (
		signal models.SignalType
		conf   float64
	)
	switch {
	case score >= 3:
		signal, conf = models.SignalStrongBuy, 0.75
	case score >= 2:
		signal, conf = models.SignalBuy, 0.65
	case score >= 0:
		signal, conf = models.SignalHold, 0.5
	case score >= -1:
		signal, conf = models.SignalHold, 0.45
	default:
		signal, conf = models.SignalSell, 0.6
	}

	return models.AdvisorSignal{
		Advisor:    models.AdvisorYahoo,
		Symbol:     symbol,
		Signal:     signal,
		Confidence: levelForScore(conf),
		Score:      conf,
		Reasoning:  "trend: " + reason,
	}
}
