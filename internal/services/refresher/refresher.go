// Package refresher re-reads ledger truth into the view. Balance and
// activity are always read back from the contract after any state-changing
// action, never guessed locally.
package refresher

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"github.com/metacrafters/atmgate/internal/domain"
	"github.com/metacrafters/atmgate/internal/metrics"
	"github.com/metacrafters/atmgate/internal/viewstate"
)

// BalanceSource is the read surface for the contract balance.
type BalanceSource interface {
	GetBalance(ctx context.Context) (*big.Int, error)
}

// ActivitySource is the read surface for the transaction history.
type ActivitySource interface {
	GetRecentActivity(ctx context.Context) ([]domain.ActivityRecord, error)
}

// Refresher owns the balance and activity fields of the view. Each refresh
// is tagged with a token issued at initiation; out-of-order completions are
// dropped so a slow stale read never overwrites a fresher one. Sources bound
// to a wallet session additionally tag the result with their account, so a
// read started under a previous account is dropped after a switch.
type Refresher struct {
	view   *viewstate.Store
	logger *zap.Logger
}

func New(view *viewstate.Store, logger *zap.Logger) *Refresher {
	return &Refresher{view: view, logger: logger}
}

// sourceAccount extracts the account a session-bound source reads for.
// Sources without a session (tests, unbound reads) are applied unchecked.
func sourceAccount(source any) string {
	bound, ok := source.(interface{ Session() *domain.WalletSession })
	if !ok {
		return ""
	}
	session := bound.Session()
	if session == nil {
		return ""
	}
	return session.Account.Hex()
}

// RefreshBalance reads the contract balance and applies it to the view.
// A nil source is a no-op keeping the previous cached value.
func (r *Refresher) RefreshBalance(ctx context.Context, source BalanceSource) error {
	if source == nil {
		return nil
	}

	token := r.view.BeginBalanceRefresh()
	raw, err := source.GetBalance(ctx)
	if err != nil {
		return err
	}

	if !r.view.ApplyBalance(token, sourceAccount(source), domain.FromBaseUnits(raw)) {
		metrics.StaleRefreshDropped.WithLabelValues("balance").Inc()
		r.logger.Debug("stale balance read dropped", zap.Uint64("token", token))
		return nil
	}
	metrics.RefreshTotal.WithLabelValues("balance").Inc()
	return nil
}

// RefreshActivity reads the recent transaction history and applies it to
// the view. A nil source is a no-op keeping the previous cached value.
func (r *Refresher) RefreshActivity(ctx context.Context, source ActivitySource) error {
	if source == nil {
		return nil
	}

	token := r.view.BeginActivityRefresh()
	records, err := source.GetRecentActivity(ctx)
	if err != nil {
		return err
	}

	if !r.view.ApplyActivities(token, sourceAccount(source), records) {
		metrics.StaleRefreshDropped.WithLabelValues("activity").Inc()
		r.logger.Debug("stale activity read dropped", zap.Uint64("token", token))
		return nil
	}
	metrics.RefreshTotal.WithLabelValues("activity").Inc()
	return nil
}
