package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"SmartFolio/internal/domain/models"
)

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

var (
	// ErrInsufficientCash rejects a buy the portfolio cannot cover.
	ErrInsufficientCash = errors.New("insufficient cash")

	// ErrInsufficientShares rejects a sell larger than the position.
	ErrInsufficientShares = errors.New("insufficient shares")
)

// PortfolioTradeExecutor settles recommendations against the portfolio
// tables in a single transaction per trade.
type PortfolioTradeExecutor struct {
	db *gorm.DB
}

func NewPortfolioTradeExecutor(db *gorm.DB) *PortfolioTradeExecutor {
	return &PortfolioTradeExecutor{db: db}
}

func (e *PortfolioTradeExecutor) Execute(ctx context.Context, rec models.Recommendation) error {
	switch rec.Action {
	case models.ActionBuy:
		return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return buy(tx, rec)
		})
	case models.ActionSell:
		return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return sell(tx, rec)
		})
	case models.ActionHold:
		return nil
	default:
		return fmt.Errorf("unknown action %q", rec.Action)
	}
}

func buy(tx *gorm.DB, rec models.Recommendation) error {
	var portfolio portfolioRow
	if err := tx.Clauses(lockForUpdate()).First(&portfolio, "user_id = ?", rec.UserID).Error; err != nil {
		return err
	}

	cost := rec.CurrentPrice.Mul(decimal.NewFromInt(rec.Shares))
	if portfolio.AvailableCash.LessThan(cost) {
		return ErrInsufficientCash
	}

	portfolio.AvailableCash = portfolio.AvailableCash.Sub(cost)
	if err := tx.Save(&portfolio).Error; err != nil {
		return err
	}

	var h holdingRow
	err := tx.Clauses(lockForUpdate()).First(&h, "user_id = ? AND symbol = ?", rec.UserID, rec.Symbol).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		h = holdingRow{
			UserID:       rec.UserID,
			Symbol:       rec.Symbol,
			Quantity:     rec.Shares,
			AveragePrice: rec.CurrentPrice,
			CurrentPrice: rec.CurrentPrice,
		}
	case err != nil:
		return err
	default:
		oldCost := h.AveragePrice.Mul(decimal.NewFromInt(h.Quantity))
		newQty := h.Quantity + rec.Shares
		h.AveragePrice = oldCost.Add(cost).Div(decimal.NewFromInt(newQty))
		h.Quantity = newQty
		h.CurrentPrice = rec.CurrentPrice
	}
	return tx.Save(&h).Error
}

func sell(tx *gorm.DB, rec models.Recommendation) error {
	var h holdingRow
	if err := tx.Clauses(lockForUpdate()).First(&h, "user_id = ? AND symbol = ?", rec.UserID, rec.Symbol).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInsufficientShares
		}
		return err
	}
	if h.Quantity < rec.Shares {
		return ErrInsufficientShares
	}

	h.Quantity -= rec.Shares
	h.CurrentPrice = rec.CurrentPrice
	if err := tx.Save(&h).Error; err != nil {
		return err
	}

	var portfolio portfolioRow
	if err := tx.Clauses(lockForUpdate()).First(&portfolio, "user_id = ?", rec.UserID).Error; err != nil {
		return err
	}
	proceeds := rec.CurrentPrice.Mul(decimal.NewFromInt(rec.Shares))
	portfolio.AvailableCash = portfolio.AvailableCash.Add(proceeds)
	return tx.Save(&portfolio).Error
}
