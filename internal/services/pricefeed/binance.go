package pricefeed

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"github.com/metacrafters/atmgate/internal/domain"
)

// BinanceQuoter fetches spot prices from the Binance public API.
type BinanceQuoter struct {
	client *binance.Client
}

func NewBinanceQuoter(client *binance.Client) *BinanceQuoter {
	return &BinanceQuoter{client: client}
}

func (q *BinanceQuoter) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	prices, err := q.client.NewListPricesService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if len(prices) == 0 {
		return decimal.Decimal{}, fmt.Errorf("binance API returned empty prices for %s", pair.String())
	}

	return decimal.NewFromString(prices[0].Price)
}
