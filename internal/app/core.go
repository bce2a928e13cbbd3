// Package app is the orchestration context tying wallet, contract, view and
// price feed together. It owns the session/binding lifecycle: created on
// connect, recreated on account switch, torn down on disconnect.
package app

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/metacrafters/atmgate/internal/domain"
	"github.com/metacrafters/atmgate/internal/services/executor"
	"github.com/metacrafters/atmgate/internal/services/refresher"
	"github.com/metacrafters/atmgate/internal/services/wallet"
	"github.com/metacrafters/atmgate/internal/storage/activitylog"
	"github.com/metacrafters/atmgate/internal/viewstate"
)

// Binder turns a wallet session into a contract proxy bound to it. Injected
// so the chain construction site stays in main and tests can fake the
// ledger.
type Binder func(session *domain.WalletSession) (executor.Ledger, error)

// Core exposes the operations the presentation layer invokes and keeps the
// three sources of truth synchronized into the view.
type Core struct {
	connector *wallet.Connector
	binder    Binder
	executor  *executor.Executor
	refresher *refresher.Refresher
	view      *viewstate.Store
	log       *activitylog.WALStore
	logger    *zap.Logger

	// session and binding are single-writer (this struct), multi-reader.
	mu      sync.RWMutex
	session *domain.WalletSession
	binding executor.Ledger
}

func NewCore(
	connector *wallet.Connector,
	binder Binder,
	exec *executor.Executor,
	refresh *refresher.Refresher,
	view *viewstate.Store,
	log *activitylog.WALStore,
	logger *zap.Logger,
) *Core {
	return &Core{
		connector: connector,
		binder:    binder,
		executor:  exec,
		refresher: refresh,
		view:      view,
		log:       log,
		logger:    logger,
	}
}

// Connect acquires a wallet session (prompting the wallet owner), binds the
// contract to it and populates balance and activity. Connector and binding
// failures leave the core in a blocking no-contract state; nothing is
// silently retried.
func (c *Core) Connect(ctx context.Context) error {
	session, err := c.connector.RequestSession(ctx)
	if err != nil {
		c.view.SetLastError(err)
		return err
	}
	return c.adopt(ctx, session)
}

// TryReconnect restores an already-granted session without prompting. A
// wallet with nothing granted is not an error; the view simply stays
// disconnected.
func (c *Core) TryReconnect(ctx context.Context) error {
	session, err := c.connector.CurrentAccounts(ctx)
	if err != nil {
		c.view.SetLastError(err)
		return err
	}
	if session == nil {
		return nil
	}
	return c.adopt(ctx, session)
}

// adopt installs the session, rebinding the contract. A binding is never
// reused with a session other than the one it was bound to, so any previous
// binding is discarded wholesale.
func (c *Core) adopt(ctx context.Context, session *domain.WalletSession) error {
	binding, err := c.binder(session)
	if err != nil {
		c.view.SetLastError(err)
		return err
	}

	c.mu.Lock()
	c.session = session
	c.binding = binding
	c.mu.Unlock()

	c.view.SetSession(session.Account.Hex())

	// Startup reads are not ordered relative to executor-triggered ones;
	// the view's request tokens sort out late arrivals.
	if err := c.refresher.RefreshBalance(ctx, binding); err != nil {
		c.view.SetLastError(err)
		c.logger.Warn("initial balance read failed", zap.Error(err))
	}
	if err := c.refresher.RefreshActivity(ctx, binding); err != nil {
		c.view.SetLastError(err)
		c.logger.Warn("initial activity read failed", zap.Error(err))
	} else {
		c.persistNewActivity()
	}
	return nil
}

// Disconnect tears the session and binding down and clears derived view
// fields. The price feed is unaffected.
func (c *Core) Disconnect() {
	c.mu.Lock()
	c.session = nil
	c.binding = nil
	c.mu.Unlock()
	c.view.ClearSession()
	c.logger.Info("wallet session torn down")
}

// Binding returns the current contract proxy, or nil when disconnected.
func (c *Core) Binding() executor.Ledger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.binding
}

// Deposit moves amount (human units) into the ledger contract.
func (c *Core) Deposit(ctx context.Context, amount string) error {
	return c.execute(ctx, executor.Request{Kind: domain.ActionDeposit, Amount: amount})
}

// Withdraw moves amount (human units) out of the ledger contract.
func (c *Core) Withdraw(ctx context.Context, amount string) error {
	return c.execute(ctx, executor.Request{Kind: domain.ActionWithdraw, Amount: amount})
}

// Transfer sends amount (human units) to recipient.
func (c *Core) Transfer(ctx context.Context, recipient, amount string) error {
	return c.execute(ctx, executor.Request{
		Kind:      domain.ActionTransfer,
		Amount:    amount,
		Recipient: recipient,
	})
}

func (c *Core) execute(ctx context.Context, req executor.Request) error {
	binding := c.Binding()
	if binding == nil {
		err := errors.Wrap(domain.ErrBinding, "connect a wallet first")
		c.view.SetLastError(err)
		return err
	}

	if err := c.executor.Execute(ctx, binding, req); err != nil {
		return err
	}
	c.persistNewActivity()
	return nil
}

// persistNewActivity appends refreshed records the WAL has not seen yet,
// oldest first so replay order matches ledger order. Records sharing the
// newest persisted timestamp (same-block siblings) are matched against the
// persisted set, not the timestamp, so none of them are skipped.
func (c *Core) persistNewActivity() {
	if c.log == nil {
		return
	}

	newest := c.log.NewestTimestamp()
	var fresh []domain.ActivityRecord
	for _, record := range c.view.Activities() {
		if !record.Timestamp.Before(newest) {
			fresh = append(fresh, record)
		}
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].Timestamp.Before(fresh[j].Timestamp) })

	for _, record := range fresh {
		if record.Timestamp.Equal(c.log.NewestTimestamp()) && containsRecord(c.log.NewestRecords(), record) {
			continue
		}
		if err := c.log.Append(record); err != nil {
			c.logger.Warn("activity record not persisted", zap.Error(err))
			return
		}
	}
}

func containsRecord(records []domain.ActivityRecord, record domain.ActivityRecord) bool {
	for _, have := range records {
		if have.Equal(record) {
			return true
		}
	}
	return false
}
