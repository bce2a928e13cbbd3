package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/metacrafters/atmgate/internal/domain"
)

// HTTPQuoter consumes a plain request/response quote endpoint: one GET, one
// JSON body with a numeric price, no authentication. Used when the quote
// source is not one of the supported exchanges.
type HTTPQuoter struct {
	url    string
	client *http.Client
}

func NewHTTPQuoter(url string) *HTTPQuoter {
	return &HTTPQuoter{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (q *HTTPQuoter) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.url, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("quote endpoint returned %s for %s", resp.Status, pair.String())
	}

	var body struct {
		Price string `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode quote response: %w", err)
	}
	if body.Price == "" {
		return decimal.Decimal{}, fmt.Errorf("quote endpoint returned empty price for %s", pair.String())
	}

	return decimal.NewFromString(body.Price)
}
