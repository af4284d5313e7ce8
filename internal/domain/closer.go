package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CloserRollup keeps running totals per salesperson, keyed by the sender
// phone. Amounts are approximate USD equivalents for leaderboard display.
type CloserRollup struct {
	ID             string
	CloserID       string
	DisplayName    string
	TotalSaleCount int64
	TotalAmountUSD decimal.Decimal
	LastSaleAt     time.Time
	CreatedAt      time.Time
}
