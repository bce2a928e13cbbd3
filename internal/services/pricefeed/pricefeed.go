// Package pricefeed polls an external quote endpoint on its own cycle,
// independent of wallet and contract state. A failed fetch leaves the
// previous quote visible as stale and never blocks anything else.
package pricefeed

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/metacrafters/atmgate/internal/domain"
	"github.com/metacrafters/atmgate/internal/metrics"
	"github.com/metacrafters/atmgate/internal/viewstate"
	"github.com/metacrafters/atmgate/pkg/retrier"
)

// Quoter fetches the current quote for a pair from one provider.
type Quoter interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// Poller drives a Quoter on a fixed interval and writes results into the
// view. Transient provider hiccups are retried with backoff inside a single
// cycle before the quote is declared stale.
type Poller struct {
	quoter   Quoter
	pair     domain.Pair
	interval time.Duration
	view     *viewstate.Store
	retrier  *retrier.Retrier
	logger   *zap.Logger
}

func NewPoller(quoter Quoter, pair domain.Pair, interval time.Duration, view *viewstate.Store, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		quoter:   quoter,
		pair:     pair,
		interval: interval,
		view:     view,
		retrier: retrier.New(
			retrier.WithMaxRetries(2),
			retrier.WithInitialInterval(500*time.Millisecond),
		),
		logger: logger,
	}
}

// Run polls until ctx is cancelled. The first fetch happens immediately so
// the view is not empty for a whole interval after startup.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if err := p.FetchOnce(ctx); err != nil {
		p.logger.Warn("initial price fetch failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.FetchOnce(ctx); err != nil {
				p.logger.Warn("price fetch failed", zap.Error(err))
			}
		}
	}
}

// FetchOnce performs a single quote fetch cycle. On failure the previous
// quote is marked stale rather than cleared.
func (p *Poller) FetchOnce(ctx context.Context) error {
	value, err := retrier.DoWithData(p.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		return p.quoter.GetPrice(ctx, p.pair)
	})
	if err != nil {
		metrics.PriceFetchFailures.Inc()
		p.view.MarkQuoteStale()
		return errors.Wrapf(domain.ErrPriceFetchFailed, "%s: %v", p.pair.String(), err)
	}

	p.view.SetQuote(domain.PriceQuote{Value: value, FetchedAt: time.Now().UTC()})
	return nil
}
