package contract

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/metacrafters/atmgate/internal/domain"
)

const defaultPollInterval = 2 * time.Second

// Confirmer waits for submitted transactions to be accepted as final by the
// ledger network, polling receipts with a hard deadline so a pending
// operation can never get stuck forever.
type Confirmer struct {
	caller       EthCaller
	pollInterval time.Duration
	timeout      time.Duration
}

// NewConfirmer builds a confirmer polling at interval with the given overall
// timeout. Zero values fall back to sane defaults.
func NewConfirmer(caller EthCaller, interval, timeout time.Duration) *Confirmer {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Confirmer{caller: caller, pollInterval: interval, timeout: timeout}
}

// WaitConfirmed blocks until the transaction is mined, the deadline passes
// (ErrConfirmationTimeout) or the receipt reports a revert
// (ErrRemoteCallRejected). Transient lookup failures keep the wait going;
// the deadline is the only way out of a flaky network.
func (c *Confirmer) WaitConfirmed(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.caller.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return nil, errors.Wrapf(domain.ErrRemoteCallRejected, "transaction %s reverted", hash.Hex())
			}
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			// not mined yet
		default:
			// transient lookup failure, retry until the deadline
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, errors.Wrapf(domain.ErrConfirmationTimeout, "transaction %s still unconfirmed after %s", hash.Hex(), c.timeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
