package pricefeed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"

	"github.com/metacrafters/atmgate/internal/domain"
)

// HyperliquidQuoter fetches mid prices from the Hyperliquid public Info API.
type HyperliquidQuoter struct {
	info *hyperliquid.Info
}

func NewHyperliquidQuoter(info *hyperliquid.Info) *HyperliquidQuoter {
	return &HyperliquidQuoter{info: info}
}

func (q *HyperliquidQuoter) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	if q.info == nil {
		return decimal.Zero, fmt.Errorf("hyperliquid info client is nil")
	}

	mids, err := q.info.AllMids(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	// Hyperliquid mids are keyed by base coin (e.g., "ETH").
	mid, ok := mids[pair.From]
	if !ok || mid == "" {
		return decimal.Zero, fmt.Errorf("hyperliquid API returned empty mid price for %s", pair.From)
	}
	return decimal.NewFromString(mid)
}
