// Package executor submits mutating ledger calls and sequences their
// confirmation. The view is never optimistic about money movement: balance
// and history are re-read from the contract after every confirmed action.
package executor

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/metacrafters/atmgate/internal/domain"
	"github.com/metacrafters/atmgate/internal/metrics"
	"github.com/metacrafters/atmgate/internal/services/refresher"
	"github.com/metacrafters/atmgate/internal/viewstate"
)

// Ledger is the contract surface the executor needs: the three mutating
// methods plus the reads triggered after confirmation. Satisfied by
// *contract.Binding.
type Ledger interface {
	refresher.BalanceSource
	refresher.ActivitySource

	Deposit(ctx context.Context, amount *big.Int) (common.Hash, error)
	Withdraw(ctx context.Context, amount *big.Int) (common.Hash, error)
	Transfer(ctx context.Context, recipient common.Address, amount *big.Int) (common.Hash, error)
}

// Confirmer waits for a submitted transaction to become final.
type Confirmer interface {
	WaitConfirmed(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Request is one user-triggered mutating operation. Amount is the raw
// human-unit input; Recipient only applies to transfers.
type Request struct {
	Kind      domain.Action
	Amount    string
	Recipient string
}

// Executor runs requests through submission and confirmation. At most one
// operation per action kind may be in flight; distinct kinds may overlap.
type Executor struct {
	confirmer Confirmer
	refresher *refresher.Refresher
	view      *viewstate.Store
	logger    *zap.Logger

	mu       sync.Mutex
	inflight map[domain.Action]string
}

func New(confirmer Confirmer, refresh *refresher.Refresher, view *viewstate.Store, logger *zap.Logger) *Executor {
	return &Executor{
		confirmer: confirmer,
		refresher: refresh,
		view:      view,
		logger:    logger,
		inflight:  make(map[domain.Action]string),
	}
}

// Execute validates, submits and confirms one operation, then re-reads
// balance and history so the view reflects ledger truth. On any failure the
// previously applied balance and history stay untouched.
func (e *Executor) Execute(ctx context.Context, ledger Ledger, req Request) error {
	if ledger == nil {
		return errors.Wrap(domain.ErrBinding, "no contract binding")
	}

	amount, baseUnits, err := e.validate(req)
	if err != nil {
		e.view.SetLastError(err)
		return err
	}

	opID, err := e.acquireSlot(req.Kind)
	if err != nil {
		return err
	}
	defer e.releaseSlot(req.Kind)

	log := e.logger.With(
		zap.String("op", opID),
		zap.Stringer("kind", req.Kind),
		zap.String("amount", amount.String()),
	)

	hash, err := e.submit(ctx, ledger, req, baseUnits)
	if err != nil {
		metrics.TxFailed.WithLabelValues(req.Kind.String()).Inc()
		e.view.SetLastError(err)
		log.Warn("submission failed", zap.Error(err))
		return errors.Wrapf(err, "%s failed", req.Kind)
	}
	metrics.TxSubmitted.WithLabelValues(req.Kind.String()).Inc()
	log.Info("transaction submitted", zap.String("tx", hash.Hex()))

	receipt, err := e.confirmer.WaitConfirmed(ctx, hash)
	if err != nil {
		metrics.TxFailed.WithLabelValues(req.Kind.String()).Inc()
		e.view.SetLastError(err)
		log.Warn("confirmation failed", zap.Error(err))
		return errors.Wrapf(err, "%s failed", req.Kind)
	}
	metrics.TxConfirmed.WithLabelValues(req.Kind.String()).Inc()
	log.Info("transaction confirmed", zap.Uint64("block", receipt.BlockNumber.Uint64()))

	e.view.SetLastError(nil)

	// ledger truth, not a locally guessed delta
	if err := e.refresher.RefreshBalance(ctx, ledger); err != nil {
		e.view.SetLastError(err)
		log.Warn("post-confirmation balance refresh failed", zap.Error(err))
	}
	if err := e.refresher.RefreshActivity(ctx, ledger); err != nil {
		e.view.SetLastError(err)
		log.Warn("post-confirmation activity refresh failed", zap.Error(err))
	}

	return nil
}

// validate applies the client-side guards. These are optimistic only; the
// authoritative check is the remote call itself.
func (e *Executor) validate(req Request) (decimal.Decimal, *big.Int, error) {
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return decimal.Decimal{}, nil, err
	}
	baseUnits, err := domain.ToBaseUnits(amount)
	if err != nil {
		return decimal.Decimal{}, nil, err
	}

	if req.Kind == domain.ActionTransfer {
		if !domain.ValidAddress(req.Recipient) {
			return decimal.Decimal{}, nil, errors.Wrapf(domain.ErrInvalidAmount, "malformed recipient address %q", req.Recipient)
		}
		if balance, ok := e.view.Balance(); ok && amount.GreaterThan(balance) {
			return decimal.Decimal{}, nil, errors.Wrapf(domain.ErrInvalidAmount,
				"transfer of %s exceeds last-known balance %s", amount, balance)
		}
	}

	return amount, baseUnits, nil
}

func (e *Executor) submit(ctx context.Context, ledger Ledger, req Request, baseUnits *big.Int) (common.Hash, error) {
	switch req.Kind {
	case domain.ActionDeposit:
		return ledger.Deposit(ctx, baseUnits)
	case domain.ActionWithdraw:
		return ledger.Withdraw(ctx, baseUnits)
	case domain.ActionTransfer:
		return ledger.Transfer(ctx, common.HexToAddress(req.Recipient), baseUnits)
	default:
		return common.Hash{}, errors.Errorf("unsupported action %s", req.Kind)
	}
}

func (e *Executor) acquireSlot(kind domain.Action) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id, busy := e.inflight[kind]; busy {
		return "", errors.Wrapf(domain.ErrOperationInProgress, "%s %s still awaiting confirmation", kind, id)
	}
	opID := uuid.NewString()
	e.inflight[kind] = opID
	e.view.SetPending(kind, true)
	return opID, nil
}

func (e *Executor) releaseSlot(kind domain.Action) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, kind)
	e.view.SetPending(kind, false)
}
