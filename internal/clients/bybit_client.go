package clients

import (
	"github.com/hirokisan/bybit/v2"
)

// NewBybitClient builds an unauthenticated client for public market data.
func NewBybitClient() *bybit.Client {
	return bybit.NewClient()
}
