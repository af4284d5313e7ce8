package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/sales-tracker/internal/config"
	"github.com/spec-kit/sales-tracker/internal/domain"
	"github.com/spec-kit/sales-tracker/internal/repository"
)

// CloserStats folds confirmed sales into per-closer running totals. The
// currency conversion uses the configured ad hoc factors; the repository
// upsert keeps the read-modify-write atomic under concurrent sales.
type CloserStats struct {
	closers repository.CloserRepository
	rates   config.RatesConfig
	now     func() time.Time
}

// NewCloserStats constructs the aggregator.
func NewCloserStats(closers repository.CloserRepository, rates config.RatesConfig) *CloserStats {
	return &CloserStats{closers: closers, rates: rates, now: time.Now}
}

// ApplySale converts the amount to its USD equivalent and applies it to
// the closer's rollup: count+1, amount added, display name refreshed,
// lastSaleAt advanced.
func (s *CloserStats) ApplySale(ctx context.Context, closerID, displayName string, amount decimal.Decimal, currency domain.Currency) (*domain.CloserRollup, error) {
	return s.closers.ApplySale(ctx, closerID, displayName, s.ToUSD(amount, currency), s.now())
}

// ToUSD converts an amount to the approximate USD equivalent used for
// leaderboard display: ARS divided by the configured peso rate, EUR
// multiplied by the configured factor, USD unchanged.
func (s *CloserStats) ToUSD(amount decimal.Decimal, currency domain.Currency) decimal.Decimal {
	switch currency {
	case domain.CurrencyARS:
		return amount.DivRound(s.rates.ARSPerUSD, 2)
	case domain.CurrencyEUR:
		return amount.Mul(s.rates.EURUSDRate).Round(2)
	default:
		return amount
	}
}
