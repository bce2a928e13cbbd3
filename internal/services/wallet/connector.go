// Package wallet acquires and owns the session with the browser-side wallet
// capability. The session is read-only for every other component.
package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/metacrafters/atmgate/internal/domain"
)

// Capability is the consumed wallet surface. Its internal security model is
// not our concern; we only hold the handles it grants.
type Capability interface {
	domain.TxSender

	IsPresent(ctx context.Context) bool
	RequestAccess(ctx context.Context) ([]common.Address, error)
	ListGrantedAccounts(ctx context.Context) ([]common.Address, error)
}

// Connector discovers the wallet and turns granted accounts into sessions.
type Connector struct {
	capability Capability
	logger     *zap.Logger
}

func NewConnector(capability Capability, logger *zap.Logger) *Connector {
	return &Connector{capability: capability, logger: logger}
}

// Detect checks whether a wallet capability is reachable. Never fails; an
// absent wallet is an answer, not an error.
func (c *Connector) Detect(ctx context.Context) bool {
	if c.capability == nil {
		return false
	}
	present := c.capability.IsPresent(ctx)
	if !present {
		c.logger.Debug("wallet capability not present")
	}
	return present
}

// RequestSession asks the wallet for account access. The wallet may show a
// permission prompt to its owner, at most once per call. Fails with
// ErrWalletUnavailable when no wallet is reachable, ErrUserRejected when the
// owner denies access.
func (c *Connector) RequestSession(ctx context.Context) (*domain.WalletSession, error) {
	if !c.Detect(ctx) {
		return nil, errors.Wrap(domain.ErrWalletUnavailable, "no wallet capability in hosting environment")
	}

	accounts, err := c.capability.RequestAccess(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, errors.Wrap(domain.ErrUserRejected, "wallet granted no accounts")
	}

	session := &domain.WalletSession{Account: accounts[0], Signer: c.capability}
	c.logger.Info("wallet session established", zap.String("account", session.ShortAccount()))
	return session, nil
}

// CurrentAccounts passively queries already-granted accounts without
// prompting, for silent reconnection on startup. Returns (nil, nil) when
// nothing was granted yet.
func (c *Connector) CurrentAccounts(ctx context.Context) (*domain.WalletSession, error) {
	if !c.Detect(ctx) {
		return nil, errors.Wrap(domain.ErrWalletUnavailable, "no wallet capability in hosting environment")
	}

	accounts, err := c.capability.ListGrantedAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}

	session := &domain.WalletSession{Account: accounts[0], Signer: c.capability}
	c.logger.Info("wallet session restored silently", zap.String("account", session.ShortAccount()))
	return session, nil
}
