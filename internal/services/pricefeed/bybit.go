package pricefeed

import (
	"context"
	"fmt"

	"github.com/hirokisan/bybit/v2"
	"github.com/shopspring/decimal"

	"github.com/metacrafters/atmgate/internal/domain"
)

// BybitQuoter fetches spot tickers from the Bybit public API.
type BybitQuoter struct {
	client *bybit.Client
}

func NewBybitQuoter(client *bybit.Client) *BybitQuoter {
	return &BybitQuoter{client: client}
}

func (q *BybitQuoter) GetPrice(_ context.Context, pair domain.Pair) (decimal.Decimal, error) {
	symbol := bybit.SymbolV5(pair.Symbol())

	result, err := q.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &symbol,
	})
	if err != nil {
		return decimal.Decimal{}, err
	}

	if len(result.Result.Spot.List) == 0 {
		return decimal.Decimal{}, fmt.Errorf("bybit API returned empty prices for %s", pair.String())
	}

	return decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
}
