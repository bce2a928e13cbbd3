package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Pair names the quote currency pair served by the price feed, e.g. ETH_USDT.
type Pair struct {
	// From base currency symbol.
	From string
	// To quote currency symbol.
	To string
}

// String returns the string representation.
func (p *Pair) String() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

// Symbol returns the concatenated symbol representation.
func (p *Pair) Symbol() string {
	return fmt.Sprintf("%s%s", p.From, p.To)
}

// PriceQuote is the latest value from the external quote endpoint. It is
// refreshed on its own cycle and carries no ordering dependency on wallet or
// contract state.
type PriceQuote struct {
	Value     decimal.Decimal `json:"value"`
	FetchedAt time.Time       `json:"fetched_at"`
}
