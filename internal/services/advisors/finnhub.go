package advisors

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"SmartFolio/internal/domain/models"
	"SmartFolio/pkg/config"
)

const finnhubDefaultBaseURL = "https://finnhub.io/api/v1"

// Finnhub blends analyst recommendation trends with price-target upside.
type Finnhub struct {
	client *resty.Client
	apiKey string
	weight float64
}

func NewFinnhub(cfg config.AdvisorAPIConfig, timeout time.Duration) *Finnhub {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = finnhubDefaultBaseURL
	}
	return &Finnhub{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey: cfg.APIKey,
		weight: cfg.Weight,
	}
}

func (f *Finnhub) Type() models.AdvisorType { return models.AdvisorFinnhub }
func (f *Finnhub) Weight() float64          { return f.weight }

type finnhubTrend struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

type finnhubTarget struct {
	TargetMean float64 `json:"targetMean"`
	LastPrice  float64 `json:"lastPrice"`
}

type finnhubQuote struct {
	Current float64 `json:"c"`
}

func (f *Finnhub) Fetch(ctx context.Context, symbol string) ([]models.AdvisorSignal, error) {
	var trends []finnhubTrend
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"symbol": symbol, "token": f.apiKey}).
		SetResult(&trends).
		Get("/stock/recommendation")
	if err != nil {
		return nil, fmt.Errorf("finnhub trends: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("finnhub trends: status %d", resp.StatusCode())
	}
	if len(trends) == 0 {
		return nil, nil
	}

	var target finnhubTarget
	resp, err = f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"symbol": symbol, "token": f.apiKey}).
		SetResult(&target).
		Get("/stock/price-target")
	if err != nil {
		return nil, fmt.Errorf("finnhub target: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("finnhub target: status %d", resp.StatusCode())
	}

	price := target.LastPrice
	if price == 0 {
		var quote finnhubQuote
		resp, err = f.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{"symbol": symbol, "token": f.apiKey}).
			SetResult(&quote).
			Get("/quote")
		if err == nil && !resp.IsError() {
			price = quote.Current
		}
	}

	sig := scoreAnalystView(symbol, trends[0], target.TargetMean, price)
	sig.FetchedAt = time.Now().UTC()
	return []models.AdvisorSignal{sig}, nil
}

// scoreAnalystView combines the latest recommendation trend with target
// upside into one signal.
func scoreAnalystView(symbol string, trend finnhubTrend, targetMean, price float64) models.AdvisorSignal {
	var score int
	var reasons []string

	total := trend.StrongBuy + trend.Buy + trend.Hold + trend.Sell + trend.StrongSell
	if total > 0 {
		buyPct := float64(trend.StrongBuy+trend.Buy) / float64(total)
		sellPct := float64(trend.StrongSell+trend.Sell) / float64(total)
		switch {
		case buyPct > 0.6:
			score += 2
			reasons = append(reasons, fmt.Sprintf("%.0f%% of analysts rate buy", buyPct*100))
		case buyPct > 0.4:
			score++
			reasons = append(reasons, fmt.Sprintf("%.0f%% of analysts rate buy", buyPct*100))
		}
		if sellPct > 0.4 {
			score -= 2
			reasons = append(reasons, fmt.Sprintf("%.0f%% of analysts rate sell", sellPct*100))
		}
	}

	var upside float64
	if targetMean > 0 && price > 0 {
		upside = (targetMean - price) / price * 100
		switch {
		case upside > 15:
			score += 2
			reasons = append(reasons, fmt.Sprintf("%.0f%% upside to mean target", upside))
		case upside > 5:
			score++
			reasons = append(reasons, fmt.Sprintf("%.0f%% upside to mean target", upside))
		case upside < -10:
			score--
			reasons = append(reasons, fmt.Sprintf("%.0f%% downside to mean target", upside))
		}
	}

	var (
		signal models.SignalType
		conf   float64
		level  models.ConfidenceLevel
	)
	switch {
	case score >= 4:
		signal, conf, level = models.SignalStrongBuy, 0.9, models.ConfidenceVeryHigh
	case score >= 2:
		signal, conf, level = models.SignalBuy, 0.75, models.ConfidenceHigh
	case score >= 0:
		signal, conf, level = models.SignalHold, 0.5, models.ConfidenceMedium
	case score >= -2:
		signal, conf, level = models.SignalSell, 0.6, models.ConfidenceMedium
	default:
		signal, conf, level = models.SignalStrongSell, 0.8, models.ConfidenceHigh
	}

	sig := models.AdvisorSignal{
		Advisor:    models.AdvisorFinnhub,
		Symbol:     symbol,
		Signal:     signal,
		Confidence: level,
		Score:      conf,
		Reasoning:  "analyst view: " + joinReasons(reasons),
	}
	if targetMean > 0 {
		sig.TargetPrice = decimal.NewNullDecimal(decimal.NewFromFloat(targetMean))
	}
	return sig
}

func joinReasons(reasons []string) string {
	if len(reasons) == 0 {
		return "no strong analyst conviction"
	}
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += ", " + r
	}
	return out
}
