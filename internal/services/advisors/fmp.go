package advisors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"SmartFolio/internal/domain/models"
	"SmartFolio/pkg/config"
)

const fmpDefaultBaseURL = "https://financialmodelingprep.com/api/v3"

// FMP scores fundamentals from Financial Modeling Prep: valuation (P/E),
// leverage (debt/equity) and profitability (ROE).
type FMP struct {
	client *resty.Client
	apiKey string
	weight float64
}

func NewFMP(cfg config.AdvisorAPIConfig, timeout time.Duration) *FMP {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmpDefaultBaseURL
	}
	return &FMP{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey: cfg.APIKey,
		weight: cfg.Weight,
	}
}

func (f *FMP) Type() models.AdvisorType { return models.AdvisorFMP }
func (f *FMP) Weight() float64          { return f.weight }

type fmpRatios struct {
	PERatio         float64 `json:"peRatioTTM"`
	DebtEquityRatio float64 `json:"debtEquityRatioTTM"`
	ReturnOnEquity  float64 `json:"returnOnEquityTTM"`
}

type fmpProfile struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func (f *FMP) Fetch(ctx context.Context, symbol string) ([]models.AdvisorSignal, error) {
	var ratios []fmpRatios
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("apikey", f.apiKey).
		SetResult(&ratios).
		Get("/ratios-ttm/" + symbol)
	if err != nil {
		return nil, fmt.Errorf("fmp ratios: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fmp ratios: status %d", resp.StatusCode())
	}
	if len(ratios) == 0 {
		return nil, nil
	}

	var profile []fmpProfile
	resp, err = f.client.R().
		SetContext(ctx).
		SetQueryParam("apikey", f.apiKey).
		SetResult(&profile).
		Get("/profile/" + symbol)
	if err != nil {
		return nil, fmt.Errorf("fmp profile: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fmp profile: status %d", resp.StatusCode())
	}

	sig := scoreFundamentals(symbol, ratios[0])
	if len(profile) > 0 && profile[0].Price > 0 && sig.Signal.IsBuy() {
		// fundamentals carry no explicit target, assume modest upside
		target := decimal.NewFromFloat(profile[0].Price * 1.10)
		sig.TargetPrice = decimal.NewNullDecimal(target)
	}
	sig.FetchedAt = time.Now().UTC()
	return []models.AdvisorSignal{sig}, nil
}

// scoreFundamentals turns the ratio snapshot into a signal on a small
// additive scale.
func scoreFundamentals(symbol string, r fmpRatios) models.AdvisorSignal {
	var score int
	var reasons []string

	switch {
	case r.PERatio > 0 && r.PERatio < 15:
		score += 2
		reasons = append(reasons, fmt.Sprintf("attractive P/E %.1f", r.PERatio))
	case r.PERatio > 0 && r.PERatio < 25:
		score++
		reasons = append(reasons, fmt.Sprintf("reasonable P/E %.1f", r.PERatio))
	default:
		score--
		reasons = append(reasons, fmt.Sprintf("stretched P/E %.1f", r.PERatio))
	}

	switch {
	case r.DebtEquityRatio >= 0 && r.DebtEquityRatio < 0.3:
		score++
		reasons = append(reasons, "low leverage")
	case r.DebtEquityRatio > 1:
		score--
		reasons = append(reasons, fmt.Sprintf("high debt/equity %.2f", r.DebtEquityRatio))
	}

	switch {
	case r.ReturnOnEquity > 0.15:
		score += 2
		reasons = append(reasons, fmt.Sprintf("strong ROE %.0f%%", r.ReturnOnEquity*100))
	case r.ReturnOnEquity > 0.10:
		score++
		reasons = append(reasons, fmt.Sprintf("solid ROE %.0f%%", r.ReturnOnEquity*100))
	}

	var (
		signal models.SignalType
		conf   float64
	)
	switch {
	case score >= 3:
		signal, conf = models.SignalStrongBuy, 0.8
	case score >= 1:
		signal, conf = models.SignalBuy, 0.65
	case score >= -1:
		signal, conf = models.SignalHold, 0.5
	default:
		signal, conf = models.SignalSell, 0.6
	}

	return models.AdvisorSignal{
		Advisor:    models.AdvisorFMP,
		Symbol:     symbol,
		Signal:     signal,
		Confidence: levelForScore(conf),
		Score:      conf,
		Reasoning:  "fundamentals: " + strings.Join(reasons, ", "),
	}
}
