package clients

import (
	"github.com/adshao/go-binance/v2"
)

// NewBinanceClient builds an unauthenticated client. The quote endpoints we
// consume are public, no credentials are required.
func NewBinanceClient() *binance.Client {
	return binance.NewClient("", "")
}
